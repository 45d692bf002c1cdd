package research

import (
	"net/url"
	"regexp"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	whitespace   = regexp.MustCompile(`\s+`)
	aboutClass   = regexp.MustCompile(`(?i)about|mission|values`)
	serviceClass = regexp.MustCompile(`(?i)service|product|solution|offer`)

	locationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`serving\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`),
		regexp.MustCompile(`located\s+in\s+([A-Z][a-z]+(?:,\s*[A-Z]{2})?)`),
		regexp.MustCompile(`based\s+in\s+([A-Z][a-z]+(?:,\s*[A-Z]{2})?)`),
	}

	b2bAudience = []string{"business", "enterprise", "company", "organization", "professional"}
	b2cAudience = []string{"homeowner", "family", "individual", "personal", "residential"}

	b2bModel = []string{"enterprise", "business solution", "commercial", "dealer", "wholesale", "b2b", "corporate"}
	b2cModel = []string{"consumer", "personal", "home", "family", "individual", "residential", "b2c"}
)

// cleanText returns the visible page text without scripts or page chrome.
func cleanText(body string) string {
	doc, err := parse(body)
	if err != nil {
		return ""
	}
	doc.Find("script, style, nav, footer, header").Remove()
	return strings.TrimSpace(whitespace.ReplaceAllString(doc.Text(), " "))
}

func brandVoice(doc *goquery.Document) string {
	var indicators []string

	if content, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok && strings.TrimSpace(content) != "" {
		indicators = append(indicators, strings.TrimSpace(content))
	}
	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		indicators = append(indicators, h1)
	}
	if about := firstWithClass(doc.Find("section, div"), aboutClass); about != nil {
		indicators = append(indicators, truncate(squash(about.Text()), 300))
	}

	if len(indicators) == 0 {
		return "Professional and informative"
	}
	return truncate(strings.Join(indicators, " | "), 500)
}

func services(doc *goquery.Document) []string {
	var out []string

	sections := 0
	doc.Find("section, div").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !hasClass(s, serviceClass) {
			return true
		}
		s.Find("h2, h3, h4").EachWithBreak(func(i int, h *goquery.Selection) bool {
			if text := strings.TrimSpace(h.Text()); text != "" && len(text) < 100 {
				out = append(out, text)
			}
			return i < 4
		})
		sections++
		return sections < 2
	})

	if len(out) < 3 {
		doc.Find("nav").First().Find("a").Each(func(_ int, a *goquery.Selection) {
			href := strings.ToLower(a.AttrOr("href", ""))
			if !strings.Contains(href, "/service") && !strings.Contains(href, "/product") {
				return
			}
			text := strings.TrimSpace(a.Text())
			if text != "" && len(text) < 50 && !slices.Contains(out, text) {
				out = append(out, text)
			}
		})
	}

	if len(out) > 10 {
		out = out[:10]
	}
	return out
}

func audience(text string) string {
	lower := strings.ToLower(text)
	var out []string
	if containsAny(lower, b2bAudience, 0) {
		out = append(out, "Business professionals")
	}
	if containsAny(lower, b2cAudience, 0) {
		out = append(out, "Individual consumers")
	}
	if len(out) == 0 {
		return "General audience"
	}
	return strings.Join(out, ", ")
}

func location(text string) string {
	for _, p := range locationPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "nationwide"):
		return "Nationwide"
	case strings.Contains(lower, "international"), strings.Contains(lower, "global"):
		return "International"
	}
	return "Not specified"
}

func businessModel(text string) string {
	lower := strings.ToLower(text)
	b2b, b2c := countTerms(lower, b2bModel), countTerms(lower, b2cModel)
	switch {
	case b2b > b2c:
		return "B2B"
	case b2c > b2b:
		return "B2C"
	case b2b > 0:
		return "Both B2B and B2C"
	}
	return "Not specified"
}

// extractLinks returns same-site links found in doc, without query or fragment
// and without a trailing slash.
func extractLinks(doc *goquery.Document, site, baseURL string) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	seen := map[string]struct{}{}
	var out []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		ref, err := url.Parse(strings.TrimSpace(a.AttrOr("href", "")))
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return
		}
		if strings.TrimPrefix(strings.ToLower(abs.Host), "www.") != site {
			return
		}
		clean := strings.TrimSuffix(abs.Scheme+"://"+abs.Host+abs.Path, "/")
		if _, dup := seen[clean]; dup {
			return
		}
		seen[clean] = struct{}{}
		out = append(out, clean)
	})
	return out
}

func firstWithClass(sel *goquery.Selection, expr *regexp.Regexp) *goquery.Selection {
	var found *goquery.Selection
	sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if hasClass(s, expr) {
			found = s
			return false
		}
		return true
	})
	return found
}

func hasClass(s *goquery.Selection, expr *regexp.Regexp) bool {
	class, ok := s.Attr("class")
	return ok && expr.MatchString(class)
}

func squash(text string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// containsAny reports whether s contains a term longer than minLen.
func containsAny(s string, terms []string, minLen int) bool {
	for _, t := range terms {
		if len(t) > minLen && strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func countTerms(s string, terms []string) int {
	n := 0
	for _, t := range terms {
		if strings.Contains(s, t) {
			n++
		}
	}
	return n
}
