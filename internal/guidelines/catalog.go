package guidelines

import (
	"strings"

	"ContentBriefs/internal/domain"
)

// Catalog resolves per-client brief rules by site domain.
type Catalog struct {
	byDomain map[string]domain.Guidelines
}

// NewCatalog indexes guidelines by their normalised domain.
func NewCatalog(entries []domain.Guidelines) *Catalog {
	c := &Catalog{byDomain: make(map[string]domain.Guidelines, len(entries))}
	for _, g := range entries {
		key := domain.SiteDomain(g.Domain)
		if key == "" {
			continue
		}
		c.byDomain[key] = g
	}
	return c
}

// Lookup returns the guidelines for the site behind url, or nil for unknown clients.
func (c *Catalog) Lookup(url string) *domain.Guidelines {
	if c == nil {
		return nil
	}
	g, ok := c.byDomain[domain.SiteDomain(url)]
	if !ok {
		return nil
	}
	return &g
}

// ClientName returns the configured client name, or one derived from the domain.
func (c *Catalog) ClientName(url string) string {
	if g := c.Lookup(url); g != nil && g.ClientName != "" {
		return g.ClientName
	}

	host := domain.SiteDomain(url)
	if host == "" {
		return "Client"
	}
	name := strings.SplitN(host, ".", 2)[0]
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)

	words := strings.Fields(name)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	if len(words) == 0 {
		return "Client"
	}
	return strings.Join(words, " ")
}
