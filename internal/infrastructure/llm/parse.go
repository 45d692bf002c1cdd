package llm

import (
	"encoding/json"
	"regexp"
	"strings"

	"ContentBriefs/internal/domain"
)

var fencedJSON = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")

// briefPayload accepts word_count as either a string or a number.
type briefPayload struct {
	domain.Brief
	WordCount json.RawMessage `json:"word_count"`
}

// parseBrief extracts a brief from a model reply. It tries the whole reply,
// then fenced code blocks, then the outermost braces, and finally reads
// labelled lines. ok is false only when nothing usable was found.
func parseBrief(reply string) (domain.Brief, bool) {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return domain.Brief{}, false
	}

	if b, ok := decodeBrief(reply); ok {
		return b, true
	}
	for _, m := range fencedJSON.FindAllStringSubmatch(reply, -1) {
		if b, ok := decodeBrief(m[1]); ok {
			return b, true
		}
	}
	start, end := strings.Index(reply, "{"), strings.LastIndex(reply, "}")
	if start != -1 && end > start {
		if b, ok := decodeBrief(reply[start : end+1]); ok {
			return b, true
		}
	}
	return parseText(reply), true
}

func decodeBrief(raw string) (domain.Brief, bool) {
	var p briefPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return domain.Brief{}, false
	}
	brief := p.Brief
	if len(p.WordCount) > 0 {
		var s string
		if err := json.Unmarshal(p.WordCount, &s); err == nil {
			brief.WordCount = s
		} else if string(p.WordCount) != "null" {
			brief.WordCount = string(p.WordCount)
		}
	}
	return brief, true
}

// parseText reads "Label: value" lines from a free-form reply.
func parseText(reply string) domain.Brief {
	b := domain.Brief{
		PageType:  "Service Page",
		WordCount: "800-1200 words",
		Tone:      []string{"Clear, factual, professional", "UK English spelling", "Year 8 reading level"},
		POV:       []string{"We/You perspective", "Active voice"},
		CTA:       "Contact us today",
		Requirements: []string{
			"Self-referencing canonical URL",
			"Structured data matching visible content",
			"Robots meta applied appropriately",
		},
	}

	for _, line := range strings.Split(reply, "\n") {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)
		_, value, hasColon := strings.Cut(trimmed, ":")
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		switch {
		case hasColon && strings.Contains(lower, "page title"):
			b.PageTitle = value
		case hasColon && strings.Contains(lower, "meta description"):
			b.MetaDescription = value
		case hasColon && strings.HasPrefix(lower, "h1"):
			b.H1 = value
		case hasColon && strings.Contains(lower, "target url"):
			b.TargetURL = value
		case hasColon && strings.Contains(lower, "cta"):
			b.CTA = value
		case strings.HasSuffix(trimmed, "?") && len(trimmed) > 10:
			b.FAQs = append(b.FAQs, trimmed)
		}
	}

	if b.PageTitle == "" {
		b.PageTitle = "Page Title Needed"
	}
	if b.MetaDescription == "" {
		b.MetaDescription = "Meta description needed - 140-160 characters with call to action."
	}
	if b.H1 == "" {
		b.H1 = b.PageTitle
	}
	return b
}
