package document

import (
	"fmt"
	"strings"

	"ContentBriefs/internal/domain"
)

// Markdown renders the brief as a Markdown preview with the same sections as the document.
func Markdown(b domain.Brief) string {
	var md []string
	add := func(format string, args ...any) { md = append(md, fmt.Sprintf(format, args...)) }
	bullets := func(items []string) {
		for _, item := range items {
			add("- %s", item)
		}
		add("")
	}

	add("# %s - %s - Content Brief\n", orDefault(b.ClientName, "Client"), orDefault(b.Topic, "Topic"))

	add("## Client Site")
	add("%s\n", b.Site)

	add("## Keywords")
	add("**Primary Keyword:** %s", b.PrimaryKeyword)
	if len(b.SecondaryKeywords) > 0 {
		add("**Secondary Keywords:** %s\n", strings.Join(b.SecondaryKeywords, ", "))
	}

	add("## Web Page Structure")
	add("**Type:** %s", b.PageType)
	add("**Page Title:** %s", b.PageTitle)
	add("**Meta Description:** %s", b.MetaDescription)
	add("**Target URL:** %s", b.TargetURL)
	add("**H1 Heading:** %s\n", b.H1)

	add("## Internal Linking")
	md = append(md, b.InternalLinks...)
	add("")

	add("## Writing Guidelines")
	add("**Word Count:** %s\n", orDefault(b.WordCount, "800-1200 words"))
	add("**Audience:**")
	bullets(b.Audience)
	add("**Tone:**")
	bullets(b.Tone)
	add("**CTA:** %s\n", b.CTA)
	add("**Restrictions:**")
	bullets(b.Restrictions)

	add("## Suggested Headings\n")
	for _, h := range b.Headings {
		add("**%s - %s**", orDefault(h.Level, "H2"), h.Text)
		if h.Description != "" {
			add("_%s_\n", h.Description)
		}
		for _, sub := range h.Subheadings {
			add("  **H3 - %s**", sub.Text)
		}
		add("")
	}

	add("## FAQs")
	for _, faq := range b.FAQs {
		add("%s", question(faq))
	}

	return strings.Join(md, "\n")
}
