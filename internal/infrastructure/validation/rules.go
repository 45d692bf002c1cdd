package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"ContentBriefs/internal/domain"
	"ContentBriefs/internal/ports"
)

const (
	maxTitleLength = 60
	minMetaLength  = 140
	maxMetaLength  = 160
	maxH2          = 4
	maxH3PerH2     = 2
	minFAQs        = 4
	maxFAQs        = 6
	maxRestriction = 5
	maxAudience    = 2
	requiredLinks  = 3
)

var (
	yearExpr  = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	emojiExpr = regexp.MustCompile(`[\x{1F300}-\x{1FAFF}\x{1F1E0}-\x{1F1FF}\x{2600}-\x{27BF}]`)
)

// Rules checks generated briefs against the fixed SEO rule set.
type Rules struct{}

var _ ports.Validator = (*Rules)(nil)

// New returns the rule checker.
func New() *Rules {
	return &Rules{}
}

// Validate returns every broken rule. Errors mark hard rule failures,
// warnings mark style issues; neither stops the brief from being delivered.
func (r *Rules) Validate(brief domain.Brief) []domain.Violation {
	var out []domain.Violation
	errorf := func(format string, args ...any) {
		out = append(out, domain.Violation{Kind: domain.ViolationError, Message: fmt.Sprintf(format, args...)})
	}
	warnf := func(format string, args ...any) {
		out = append(out, domain.Violation{Kind: domain.ViolationWarning, Message: fmt.Sprintf(format, args...)})
	}

	if msg := checkTitle(brief.PageTitle); msg != "" {
		errorf("Page Title: %s", msg)
	}
	if msg := checkMeta(brief.MetaDescription); msg != "" {
		errorf("Meta Description: %s", msg)
	}
	for _, msg := range checkHeadings(brief.Headings) {
		errorf("Headings: %s", msg)
	}
	if msg := checkFAQs(brief.FAQs); msg != "" {
		errorf("FAQs: %s", msg)
	}
	if n := len(brief.Restrictions); n > maxRestriction {
		warnf("Restrictions: Too many restrictions (%d, maximum is %d)", n, maxRestriction)
	}
	for _, msg := range checkLinks(brief.InternalLinks, domain.SiteDomain(brief.Site)) {
		errorf("Internal Links: %s", msg)
	}

	fields := []struct{ name, value string }{
		{"page_title", brief.PageTitle},
		{"meta_description", brief.MetaDescription},
		{"h1", brief.H1},
		{"cta", brief.CTA},
	}
	for _, f := range fields {
		if ContainsEmoji(f.value) {
			errorf("%s: Contains emoji (not allowed)", f.name)
		}
	}
	for _, f := range fields {
		if ContainsDash(f.value) {
			warnf("%s: Contains em dash (should use hyphen)", f.name)
		}
	}

	if n := len(brief.Audience); n > maxAudience {
		warnf("Audience has %d points (maximum is %d)", n, maxAudience)
	}

	return out
}

// HasErrors reports whether any violation is blocking.
func HasErrors(violations []domain.Violation) bool {
	for _, v := range violations {
		if v.Kind == domain.ViolationError {
			return true
		}
	}
	return false
}

func checkTitle(title string) string {
	if title == "" {
		return "Page title is empty"
	}
	if n := utf8.RuneCountInString(title); n >= maxTitleLength {
		return fmt.Sprintf("Page title is %d characters (must be under %d)", n, maxTitleLength)
	}
	if ContainsYear(title) {
		return "Page title contains a year/date"
	}
	return ""
}

func checkMeta(meta string) string {
	if meta == "" {
		return "Meta description is empty"
	}
	if n := utf8.RuneCountInString(meta); n < minMetaLength || n > maxMetaLength {
		return fmt.Sprintf("Meta description is %d characters (must be %d-%d)", n, minMetaLength, maxMetaLength)
	}
	if ContainsYear(meta) {
		return "Meta description contains a year/date"
	}
	return ""
}

func checkHeadings(headings []domain.Heading) []string {
	if len(headings) == 0 {
		return []string{"No headings provided"}
	}

	var errs []string
	if headings[0].Level != "H1" {
		errs = append(errs, "H1 must be the first heading")
	}

	h2 := 0
	for _, h := range headings {
		if h.Level == "H2" {
			h2++
			if n := len(h.Subheadings); n > maxH3PerH2 {
				errs = append(errs, fmt.Sprintf("H2 '%s...' has %d H3s (maximum is %d)", truncate(h.Text, 30), n, maxH3PerH2))
			}
		}
		if ContainsYear(h.Text) {
			errs = append(errs, fmt.Sprintf("Heading contains year: '%s'", h.Text))
		}
		for _, sub := range h.Subheadings {
			if ContainsYear(sub.Text) {
				errs = append(errs, fmt.Sprintf("Subheading contains year: '%s'", sub.Text))
			}
		}
	}
	if h2 > maxH2 {
		// reported before per-heading problems
		errs = append([]string{fmt.Sprintf("Too many H2 sections (%d, maximum is %d)", h2, maxH2)}, errs...)
	}
	return errs
}

func checkFAQs(faqs []string) string {
	switch {
	case len(faqs) == 0:
		return "No FAQs provided"
	case len(faqs) < minFAQs:
		return fmt.Sprintf("Too few FAQs (%d, minimum is %d)", len(faqs), minFAQs)
	case len(faqs) > maxFAQs:
		return fmt.Sprintf("Too many FAQs (%d, maximum is %d)", len(faqs), maxFAQs)
	}
	for _, faq := range faqs {
		if ContainsYear(faq) {
			return fmt.Sprintf("FAQ contains year: '%s'", faq)
		}
		if !strings.HasSuffix(strings.TrimSpace(faq), "?") {
			return fmt.Sprintf("FAQ doesn't end with question mark: '%s'", faq)
		}
	}
	return ""
}

func checkLinks(links []string, site string) []string {
	if len(links) == 0 {
		return []string{"No internal links provided"}
	}

	var errs []string
	if len(links) != requiredLinks {
		errs = append(errs, fmt.Sprintf("Expected %d internal links, got %d", requiredLinks, len(links)))
	}
	if site == "" {
		return errs
	}
	for _, link := range links {
		parsed, err := url.Parse(link)
		if err != nil || strings.TrimPrefix(strings.ToLower(parsed.Host), "www.") != site {
			errs = append(errs, fmt.Sprintf("Link '%s' is not from domain '%s'", link, site))
		}
	}
	return errs
}

// ContainsYear reports whether text mentions a year between 1900 and 2099.
func ContainsYear(text string) bool {
	return text != "" && yearExpr.MatchString(text)
}

// ContainsEmoji reports whether text contains emoji or pictographs.
func ContainsEmoji(text string) bool {
	return text != "" && emojiExpr.MatchString(text)
}

// ContainsDash reports whether text contains an em or en dash.
func ContainsDash(text string) bool {
	return strings.ContainsAny(text, "—–")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
