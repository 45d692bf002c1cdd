package llm

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"ContentBriefs/internal/domain"
	"ContentBriefs/internal/guidelines"
	"ContentBriefs/internal/infrastructure/validation"
	"ContentBriefs/internal/ports"
)

const (
	maxInternalLinks = 3
	maxRestrictions  = 5
)

// ClientResolver finds the chat client registered for a provider.
type ClientResolver interface {
	Resolve(id domain.ProviderID) (ports.ChatClient, error)
}

// Generator turns a batch item into a brief through the selected provider.
type Generator struct {
	clients ClientResolver
	catalog *guidelines.Catalog
	logger  *slog.Logger
}

var _ ports.Generator = (*Generator)(nil)

// NewGenerator wires the provider registry and client guideline catalog.
func NewGenerator(clients ClientResolver, catalog *guidelines.Catalog, logger *slog.Logger) *Generator {
	if logger != nil {
		logger = logger.With("component", "generator")
	}
	return &Generator{clients: clients, catalog: catalog, logger: logger}
}

// Generate asks the provider for a brief and applies the deterministic fixups.
func (g *Generator) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.Brief, error) {
	if g.clients == nil {
		return nil, ports.Fail(ports.KindInvalidProvider, nil, "no providers configured")
	}
	client, err := g.clients.Resolve(req.Provider)
	if err != nil {
		return nil, ports.Fail(ports.KindInvalidProvider, err, "resolve provider %q", req.Provider)
	}

	item := req.Item
	rules := g.catalog.Lookup(item.URL)
	links := internalLinks(req.Research)

	g.debug("requesting brief", "provider", req.Provider, "row", item.Row, "topic", item.Topic, "links", len(links))
	reply, err := client.Complete(ctx, systemPrompt(rules), userPrompt(item, links, req.Research, rules))
	if err != nil {
		var adapterErr *ports.AdapterError
		if errors.As(err, &adapterErr) {
			return nil, adapterErr
		}
		return nil, ports.Fail(ports.KindUpstream, err, "provider %q", req.Provider)
	}

	brief, ok := parseBrief(reply)
	if !ok {
		return nil, ports.Fail(ports.KindMalformedResponse, nil, "provider %q returned an empty reply", req.Provider)
	}

	brief.ClientName = g.catalog.ClientName(item.URL)
	brief.Site = item.URL
	brief.Topic = item.Topic
	brief.PrimaryKeyword = item.PrimaryKeyword
	brief.SecondaryKeywords = slices.Clone(item.SecondaryKeywords)
	brief.InternalLinks = links

	validation.Fix(&brief, rules.UsesUKEnglish())
	if rules != nil {
		brief.Restrictions = mergeRestrictions(rules.Restrictions, brief.Restrictions)
	}

	return &brief, nil
}

func internalLinks(research *domain.Research) []string {
	if research == nil {
		return nil
	}
	links := research.InternalLinks
	if len(links) > maxInternalLinks {
		links = links[:maxInternalLinks]
	}
	return slices.Clone(links)
}

// mergeRestrictions keeps client restrictions first and tops up with the model's own.
func mergeRestrictions(client, generated []string) []string {
	out := slices.Clone(client)
	for _, r := range generated {
		if len(out) >= maxRestrictions {
			break
		}
		if !slices.Contains(out, r) {
			out = append(out, r)
		}
	}
	if len(out) > maxRestrictions {
		out = out[:maxRestrictions]
	}
	return out
}

func (g *Generator) debug(msg string, args ...any) {
	if g.logger != nil {
		g.logger.Debug(msg, args...)
	}
}
