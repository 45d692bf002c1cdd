package research

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ContentBriefs/internal/config"
	"ContentBriefs/internal/domain"
	"ContentBriefs/internal/ports"
)

const (
	keyContentLimit   = 2000
	topicContentLimit = 1000
	maxTopicPages     = 3
	maxPageBytes      = 5 << 20
)

// Researcher crawls a client site and summarises it for brief generation.
type Researcher struct {
	client    *http.Client
	verifier  *http.Client
	userAgent string
	maxLinks  int
	logger    *slog.Logger
}

var _ ports.Researcher = (*Researcher)(nil)

// NewResearcher wires HTTP clients from research configuration.
func NewResearcher(cfg config.ResearchConfig, logger *slog.Logger) *Researcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	verifyTimeout := cfg.VerifyTimeout
	if verifyTimeout <= 0 {
		verifyTimeout = 5 * time.Second
	}
	maxLinks := cfg.MaxLinks
	if maxLinks <= 0 {
		maxLinks = 3
	}
	if logger != nil {
		logger = logger.With("component", "research")
	}
	return &Researcher{
		client:    &http.Client{Timeout: timeout},
		verifier:  &http.Client{Timeout: verifyTimeout},
		userAgent: cfg.UserAgent,
		maxLinks:  maxLinks,
		logger:    logger,
	}
}

// Research fetches the homepage, pages related to the topic, and picks verified
// internal links. Only a homepage failure is reported as an error.
func (r *Researcher) Research(ctx context.Context, siteURL, topic string, keywords []string) (*domain.Research, error) {
	siteURL = domain.NormalizeURL(siteURL)
	site := domain.SiteDomain(siteURL)
	if site == "" {
		return nil, ports.Fail(ports.KindResearch, nil, "invalid site url %q", siteURL)
	}

	c := &crawl{r: r, pages: map[string]string{}}
	home, err := c.fetch(ctx, siteURL)
	if err != nil {
		return nil, ports.Fail(ports.KindResearch, err, "fetch homepage %s", siteURL)
	}

	doc, err := parse(home)
	if err != nil {
		return nil, ports.Fail(ports.KindResearch, err, "parse homepage %s", siteURL)
	}
	text := cleanText(home)

	out := &domain.Research{
		URL:             siteURL,
		Domain:          site,
		BrandVoice:      brandVoice(doc),
		Services:        services(doc),
		TargetAudience:  audience(text),
		GeographicFocus: location(text),
		BusinessModel:   businessModel(text),
		KeyContent:      truncate(text, keyContentLimit),
	}

	homeLinks := extractLinks(doc, site, siteURL)
	if strings.TrimSpace(topic) != "" {
		out.TopicContent = c.topicContent(ctx, homeLinks, topic)
	}
	out.InternalLinks = c.internalLinks(ctx, siteURL, site, homeLinks, topic, keywords)

	r.debug("site researched", "site", site, "services", len(out.Services), "links", len(out.InternalLinks))
	return out, nil
}

// crawl holds the pages fetched during one Research call.
type crawl struct {
	r     *Researcher
	pages map[string]string
}

func (c *crawl) fetch(ctx context.Context, pageURL string) (string, error) {
	if body, ok := c.pages[pageURL]; ok {
		return body, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	if c.r.userAgent != "" {
		req.Header.Set("User-Agent", c.r.userAgent)
	}

	resp, err := c.r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s returned %s", pageURL, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("read page: %w", err)
	}
	c.pages[pageURL] = string(body)
	return string(body), nil
}

func (c *crawl) topicContent(ctx context.Context, homeLinks []string, topic string) string {
	var parts []string
	for _, link := range relevantPages(homeLinks, topic) {
		if len(parts) == maxTopicPages || ctx.Err() != nil {
			break
		}
		body, err := c.fetch(ctx, link)
		if err != nil {
			c.r.debug("topic page skipped", "url", link, "error", err)
			continue
		}
		if text := cleanText(body); text != "" {
			parts = append(parts, truncate(text, topicContentLimit))
		}
	}
	return strings.Join(parts, "\n\n")
}

func (c *crawl) internalLinks(ctx context.Context, siteURL, site string, homeLinks []string, topic string, keywords []string) []string {
	all := map[string]struct{}{}
	for _, link := range homeLinks {
		all[link] = struct{}{}
	}

	terms := strings.Fields(strings.ToLower(topic))
	for _, link := range homeLinks {
		if ctx.Err() != nil {
			break
		}
		if !containsAny(strings.ToLower(link), terms, 0) {
			continue
		}
		body, err := c.fetch(ctx, link)
		if err != nil {
			continue
		}
		doc, err := parse(body)
		if err != nil {
			continue
		}
		for _, nested := range extractLinks(doc, site, link) {
			all[nested] = struct{}{}
		}
	}

	ranked := rankLinks(filterLinks(all, siteURL), topic, keywords)

	var verified []string
	for _, link := range ranked {
		if len(verified) == c.r.maxLinks || ctx.Err() != nil {
			break
		}
		if c.r.verify(ctx, link) {
			verified = append(verified, link)
		}
	}
	return verified
}

// verify reports whether url answers 200, trying HEAD first and GET as a fallback.
func (r *Researcher) verify(ctx context.Context, url string) bool {
	for _, method := range []string{http.MethodHead, http.MethodGet} {
		req, err := http.NewRequestWithContext(ctx, method, url, nil)
		if err != nil {
			return false
		}
		if r.userAgent != "" {
			req.Header.Set("User-Agent", r.userAgent)
		}
		resp, err := r.verifier.Do(req)
		if err != nil {
			continue
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}
	return false
}

func parse(body string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(body))
}

func (r *Researcher) debug(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}
