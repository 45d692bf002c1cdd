package research

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"ContentBriefs/internal/config"
	"ContentBriefs/internal/ports"
)

const homePage = `<html><head><meta name="description" content="Workplace health experts"></head><body>
<header>Site header</header>
<nav><a href="/services/health-checks">Health Checks</a><a href="/services/screening">Screening</a></nav>
<h1>HealthWorks</h1>
<div class="about-us">We help business teams stay well.</div>
<section class="our-services"><h3>Health Checks</h3><h3>Flu Clinics</h3></section>
<p>We are serving Greater Manchester. We work with corporate clients.</p>
<a href="/blog/health-checks-guide/">Guide</a>
<a href="/contact">Contact</a>
<a href="https://other.com/x">Other</a>
<a href="/broken-health">Broken</a>
<a href="mailto:hi@example.com">Mail</a>
<script>var tracking = "ignored";</script>
</body></html>`

func newSite(t *testing.T, homeHits *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/", "":
			if r.Method == http.MethodGet {
				homeHits.Add(1)
			}
			_, _ = w.Write([]byte(homePage))
		case "/services/health-checks":
			_, _ = w.Write([]byte(`<html><body><p>Corporate health checks for staff.</p><a href="/services/health-checks/corporate">Corporate</a></body></html>`))
		case "/services/health-checks/corporate", "/services/screening":
			_, _ = w.Write([]byte(`<html><body><p>Detail page.</p></body></html>`))
		case "/blog/health-checks-guide":
			_, _ = w.Write([]byte(`<html><body><p>Our guide to checks.</p></body></html>`))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestResearchSummarisesSite(t *testing.T) {
	t.Parallel()

	var homeHits atomic.Int32
	srv := newSite(t, &homeHits)
	defer srv.Close()

	r := NewResearcher(config.ResearchConfig{UserAgent: "test-agent"}, nil)
	got, err := r.Research(context.Background(), srv.URL, "health checks", []string{"corporate health checks"})
	if err != nil {
		t.Fatalf("Research error: %v", err)
	}

	if got.BrandVoice != "Workplace health experts | HealthWorks | We help business teams stay well." {
		t.Fatalf("unexpected brand voice %q", got.BrandVoice)
	}
	if strings.Join(got.Services, "|") != "Health Checks|Flu Clinics|Screening" {
		t.Fatalf("unexpected services %v", got.Services)
	}
	if got.GeographicFocus != "Greater Manchester" || got.TargetAudience != "Business professionals" || got.BusinessModel != "B2B" {
		t.Fatalf("unexpected profile %+v", got)
	}
	if strings.Contains(got.KeyContent, "Site header") || strings.Contains(got.KeyContent, "tracking") {
		t.Fatalf("page chrome leaked into key content: %q", got.KeyContent)
	}
	if !strings.Contains(got.TopicContent, "Corporate health checks for staff.") || !strings.Contains(got.TopicContent, "Our guide to checks.") {
		t.Fatalf("unexpected topic content %q", got.TopicContent)
	}

	want := []string{
		srv.URL + "/services/health-checks/corporate",
		srv.URL + "/services/health-checks",
		srv.URL + "/blog/health-checks-guide",
	}
	if strings.Join(got.InternalLinks, " ") != strings.Join(want, " ") {
		t.Fatalf("unexpected links:\n got %v\nwant %v", got.InternalLinks, want)
	}
	if homeHits.Load() != 1 {
		t.Fatalf("homepage fetched %d times, want 1", homeHits.Load())
	}
}

func TestResearchHomepageFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewResearcher(config.ResearchConfig{}, nil).Research(context.Background(), srv.URL, "topic", nil)
	var adapterErr *ports.AdapterError
	if !errors.As(err, &adapterErr) || adapterErr.Kind != ports.KindResearch {
		t.Fatalf("expected research failure, got %v", err)
	}
}

func TestRankLinks(t *testing.T) {
	t.Parallel()

	links := filterLinks(map[string]struct{}{
		"https://site.com":                    {},
		"https://site.com/privacy":            {},
		"https://site.com/about":              {},
		"https://site.com/blog/office-moves":  {},
		"https://site.com/services/removals":  {},
		"https://site.com/services/packing":   {},
		"https://site.com/a/b/c/d/office-job": {},
	}, "https://site.com/")

	got := rankLinks(links, "office removals", []string{"packing"})
	want := []string{
		"https://site.com/services/removals",
		"https://site.com/blog/office-moves",
		"https://site.com/services/packing",
		"https://site.com/a/b/c/d/office-job",
		"https://site.com/about",
	}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Fatalf("unexpected ranking:\n got %v\nwant %v", got, want)
	}
}
