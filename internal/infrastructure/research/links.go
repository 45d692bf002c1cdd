package research

import (
	"slices"
	"strings"
)

const maxRelevantPages = 5

var excludedLinkPatterns = []string{
	"/privacy", "/terms", "/contact", "/login", "/signup", "/register",
	"/cart", "/checkout", "/account", "/search", "/tag/", "/category/",
	"/page/", "/wp-admin", "/wp-login", "/feed", "/rss", "/sitemap",
	"/author/", "#", "javascript:", "mailto:", "tel:",
}

// relevantPages picks homepage links whose URL mentions a topic word.
func relevantPages(links []string, topic string) []string {
	terms := strings.Fields(strings.ToLower(topic))
	var out []string
	for _, link := range links {
		if containsAny(strings.ToLower(link), terms, 3) {
			out = append(out, link)
			if len(out) == maxRelevantPages {
				break
			}
		}
	}
	return out
}

// filterLinks drops the homepage and utility pages.
func filterLinks(links map[string]struct{}, homepage string) []string {
	home := strings.TrimRight(homepage, "/")
	var out []string
	for link := range links {
		if strings.TrimRight(link, "/") == home {
			continue
		}
		if containsAny(strings.ToLower(link), excludedLinkPatterns, 0) {
			continue
		}
		out = append(out, link)
	}
	return out
}

// rankLinks orders links by relevance to the topic and keywords, best first.
// Ties keep alphabetical order.
func rankLinks(links []string, topic string, keywords []string) []string {
	topicTerms := uniqueFields(topic)
	var keywordTerms []string
	for _, kw := range keywords {
		keywordTerms = append(keywordTerms, uniqueFields(kw)...)
	}
	slices.Sort(keywordTerms)
	keywordTerms = slices.Compact(keywordTerms)

	scores := make(map[string]float64, len(links))
	for _, link := range links {
		scores[link] = scoreLink(link, topicTerms, keywordTerms)
	}

	out := slices.Clone(links)
	slices.SortFunc(out, func(a, b string) int {
		switch {
		case scores[a] > scores[b]:
			return -1
		case scores[a] < scores[b]:
			return 1
		}
		return strings.Compare(a, b)
	})
	return out
}

func scoreLink(link string, topicTerms, keywordTerms []string) float64 {
	lower := strings.ToLower(link)
	score := 0.0
	for _, t := range topicTerms {
		if len(t) > 3 && strings.Contains(lower, t) {
			score += 2.0
		}
	}
	for _, t := range keywordTerms {
		if len(t) > 3 && strings.Contains(lower, t) {
			score += 1.5
		}
	}
	if strings.Contains(lower, "/service") {
		score += 1.0
	}
	if strings.Contains(lower, "/about") {
		score += 0.5
	}
	if strings.Contains(lower, "/blog") {
		score += 0.5
	}
	if strings.Count(link, "/") > 5 {
		score -= 0.5
	}
	return score
}

func uniqueFields(s string) []string {
	fields := strings.Fields(strings.ToLower(s))
	slices.Sort(fields)
	return slices.Compact(fields)
}
