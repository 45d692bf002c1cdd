package provider

import (
	"context"
	"errors"
	"testing"

	"ContentBriefs/internal/domain"
)

type stubClient struct{}

func (stubClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return "{}", nil
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register(domain.ProviderMistral, stubClient{})
	reg.Register(domain.ProviderClaude, stubClient{})

	if _, err := reg.Resolve(domain.ProviderClaude); err != nil {
		t.Fatalf("Resolve claude: %v", err)
	}
	if _, err := reg.Resolve("gemini"); !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}

	got := reg.Available()
	if len(got) != 2 || got[0] != domain.ProviderClaude || got[1] != domain.ProviderMistral {
		t.Fatalf("unexpected providers %v", got)
	}
}
