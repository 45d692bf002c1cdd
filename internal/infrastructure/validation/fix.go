package validation

import (
	"regexp"
	"slices"
	"strings"

	"ContentBriefs/internal/domain"
)

var usToUK = map[string]string{
	"color": "colour", "colors": "colours",
	"favor": "favour", "favors": "favours", "favorite": "favourite", "favorites": "favourites",
	"honor": "honour", "honors": "honours",
	"labor": "labour", "labors": "labours",
	"neighbor": "neighbour", "neighbors": "neighbours",
	"behavior": "behaviour", "behaviors": "behaviours",
	"center": "centre", "centers": "centres",
	"theater": "theatre", "theaters": "theatres",
	"meter": "metre", "meters": "metres",
	"liter": "litre", "liters": "litres",
	"fiber": "fibre", "fibers": "fibres",
	"analyze": "analyse", "analyzes": "analyses", "analyzed": "analysed", "analyzing": "analysing",
	"organize": "organise", "organizes": "organises", "organized": "organised", "organizing": "organising",
	"organization": "organisation", "organizations": "organisations",
	"optimize": "optimise", "optimizes": "optimises", "optimized": "optimised", "optimizing": "optimising",
	"optimization": "optimisation",
	"recognize": "recognise", "recognizes": "recognises", "recognized": "recognised", "recognizing": "recognising",
	"specialize": "specialise", "specializes": "specialises", "specialized": "specialised", "specializing": "specialising",
	"realize": "realise", "realizes": "realises", "realized": "realised", "realizing": "realising",
	"utilize": "utilise", "utilizes": "utilises", "utilized": "utilised", "utilizing": "utilising",
	"apologize": "apologise",
	"defense": "defence", "offense": "offence",
	"traveling": "travelling", "traveled": "travelled", "traveler": "traveller",
	"canceled": "cancelled", "canceling": "cancelling",
	"enrollment": "enrolment", "fulfill": "fulfil", "installment": "instalment", "modeling": "modelling",
}

var usSpellingExpr = buildSpellingExpr()

func buildSpellingExpr() *regexp.Regexp {
	words := make([]string, 0, len(usToUK))
	for us := range usToUK {
		words = append(words, regexp.QuoteMeta(us))
	}
	// longest first so plurals win over their stems
	slices.SortFunc(words, func(a, b string) int {
		if len(a) != len(b) {
			return len(b) - len(a)
		}
		return strings.Compare(a, b)
	})
	return regexp.MustCompile(`(?i)\b(` + strings.Join(words, "|") + `)\b`)
}

// ToUKEnglish rewrites known US spellings, keeping the original casing.
func ToUKEnglish(text string) string {
	if text == "" {
		return text
	}
	return usSpellingExpr.ReplaceAllStringFunc(text, func(match string) string {
		uk, ok := usToUK[strings.ToLower(match)]
		if !ok {
			return match
		}
		switch {
		case match == strings.ToUpper(match):
			return strings.ToUpper(uk)
		case match[:1] == strings.ToUpper(match[:1]):
			return strings.ToUpper(uk[:1]) + uk[1:]
		default:
			return uk
		}
	})
}

var dashReplacer = strings.NewReplacer("—", "-", "–", "-")

// Fix repairs the mechanical problems in a brief that do not need the model:
// spelling, dashes, list caps and FAQ punctuation.
func Fix(brief *domain.Brief, ukEnglish bool) {
	text := []*string{&brief.PageTitle, &brief.MetaDescription, &brief.H1, &brief.CTA}

	if ukEnglish {
		for _, s := range text {
			*s = ToUKEnglish(*s)
		}
		for i := range brief.Headings {
			fixHeadingSpelling(&brief.Headings[i])
		}
	}

	for _, s := range text {
		*s = dashReplacer.Replace(*s)
	}

	if len(brief.Restrictions) > maxRestriction {
		brief.Restrictions = brief.Restrictions[:maxRestriction]
	}
	if len(brief.Audience) > maxAudience {
		brief.Audience = brief.Audience[:maxAudience]
	}
	for i, faq := range brief.FAQs {
		faq = strings.TrimSpace(faq)
		if !strings.HasSuffix(faq, "?") {
			faq += "?"
		}
		brief.FAQs[i] = faq
	}
}

func fixHeadingSpelling(h *domain.Heading) {
	h.Text = ToUKEnglish(h.Text)
	h.Description = ToUKEnglish(h.Description)
	for i := range h.Subheadings {
		fixHeadingSpelling(&h.Subheadings[i])
	}
}
