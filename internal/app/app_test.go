package app

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"ContentBriefs/internal/config"
	"ContentBriefs/internal/domain"
	"ContentBriefs/internal/logging"
)

func TestNewWiresConfiguredProviders(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Database.DSN = "file:" + filepath.Join(t.TempDir(), "app.db")
	p := cfg.Providers[domain.ProviderMistral]
	p.APIKey = "k"
	cfg.Providers[domain.ProviderMistral] = p

	a, err := New(cfg, logging.Discard())
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer a.Close()

	if got := a.Providers(); len(got) != 1 || got[0] != domain.ProviderMistral {
		t.Fatalf("unexpected providers %v", got)
	}
	if a.DefaultProvider() != domain.ProviderClaude {
		t.Fatalf("unexpected default provider %s", a.DefaultProvider())
	}

	handler, err := a.Handler()
	if err != nil {
		t.Fatalf("Handler error: %v", err)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/batches", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list batches: %d %s", rec.Code, rec.Body.String())
	}
}

func TestNewRejectsUnknownDatabaseDriver(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Database.Driver = "oracle"
	if _, err := New(cfg, logging.Discard()); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}
