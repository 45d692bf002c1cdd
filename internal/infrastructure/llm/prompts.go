package llm

import (
	"fmt"
	"strings"

	"ContentBriefs/internal/domain"
)

const maxPromptRestrictions = 5

const briefSystemPrompt = `You are an expert SEO content brief generator. Generate precise, validated content briefs following the exact format and rules provided.

## STRICT RULES - APPLY TO EVERY BRIEF

### Content Rules
1. NO years or numeric dates anywhere (titles, descriptions, headings, content). Months (January, March) are allowed.
2. NO link references in content (never write "link to research document" or "link to this page")
3. Use ONLY the exact keywords provided - no modifications, no additions
4. NO emojis anywhere
5. Use hyphens, NOT em dashes

### Language Rules
6. Use UK English spelling throughout (colour, organisation, optimisation, centre) UNLESS client specifies US English
7. Year 8 reading level - short sentences, simple vocabulary, plain language
8. Clear, factual, professional tone
9. We/You perspective with active voice

### Character Limits (INCLUDING SPACES)
10. Page Title: UNDER 60 characters (this is critical)
11. Meta Description: 140-160 characters exactly

### Structure Rules
12. Maximum 4 H2 sections only
13. Maximum 2 H3 subheadings per H2
14. H1 comes first in heading structure
15. 4-6 FAQ questions only (NO answers provided)
16. Maximum 5 restrictions
17. Maximum 2 audience bullet points
18. Single CTA only

### Internal Linking Rules
19. Use exactly 3 URLs provided
20. No anchor text - just list the URLs
21. All URLs must be from the same domain

## OUTPUT FORMAT

You MUST return a valid JSON object with this exact structure:

{
    "page_type": "Service Page OR Blog OR Landing Page",
    "page_title": "Under 60 chars, primary keyword near start",
    "meta_description": "140-160 chars exactly, includes primary keyword, has call to action",
    "target_url": "/keyword-rich-slug/",
    "h1": "Clear, natural heading aligned with primary keyword",
    "word_count": "800-1200 words for service pages, 800-1000 for blogs",
    "audience": ["First audience point - who they are", "Second audience point - what they want"],
    "tone": ["Clear, factual, professional", "UK English spelling", "Year 8 reading level"],
    "pov": ["We/You perspective", "Active voice"],
    "cta": "Single call-to-action",
    "restrictions": ["Restriction 1", "Restriction 2"],
    "requirements": [
        "Self-referencing canonical URL",
        "Structured data matching visible content (Organisation, Article, FAQPage)",
        "Robots meta applied appropriately"
    ],
    "headings": [
        {"level": "H1", "text": "Same as h1 field above", "description": "One short line explaining what this section covers"},
        {
            "level": "H2",
            "text": "Main Topic Heading 1",
            "description": "One short line explaining what this section covers",
            "subheadings": [
                {"level": "H3", "text": "Optional Subheading", "description": "One short line describing what to include"}
            ]
        }
    ],
    "faqs": ["Question 1?", "Question 2?", "Question 3?", "Question 4?"]
}

Return ONLY the JSON object, no markdown formatting or explanation.`

// systemPrompt returns the rule prompt, extended with client instructions when known.
func systemPrompt(g *domain.Guidelines) string {
	return briefSystemPrompt + clientInstructions(g)
}

func clientInstructions(g *domain.Guidelines) string {
	if g == nil {
		return ""
	}

	name := g.ClientName
	if name == "" {
		name = "This client"
	}

	var b strings.Builder
	b.WriteString("\n\n## CLIENT-SPECIFIC REQUIREMENTS\n\n")
	if g.Language == "US" {
		fmt.Fprintf(&b, "**IMPORTANT**: %s uses US English spelling (color, organization, center).\n\n", name)
	}
	writeList(&b, "NEVER INCLUDE:", g.NeverInclude)
	writeList(&b, "ALWAYS INCLUDE (when relevant):", g.AlwaysInclude)
	restrictions := g.Restrictions
	if len(restrictions) > maxPromptRestrictions {
		restrictions = restrictions[:maxPromptRestrictions]
	}
	writeList(&b, "RESTRICTIONS FOR BRIEF:", restrictions)
	writeList(&b, "TECHNICAL TERMS TO USE CORRECTLY:", g.TechnicalTerms)
	if g.CTA != "" {
		fmt.Fprintf(&b, "**PREFERRED CTA:** %s\n", g.CTA)
	}
	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "**%s**\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

// userPrompt describes the single brief to produce.
func userPrompt(item domain.BatchItem, links []string, research *domain.Research, g *domain.Guidelines) string {
	var b strings.Builder
	b.WriteString("Generate a complete SEO content brief for:\n\n## INPUT DATA\n\n")
	fmt.Fprintf(&b, "**Website URL:** %s\n", item.URL)
	fmt.Fprintf(&b, "**Topic:** %s\n", item.Topic)
	fmt.Fprintf(&b, "**Primary Keyword:** %s\n", item.PrimaryKeyword)
	fmt.Fprintf(&b, "**Secondary Keywords:** %s\n\n", strings.Join(item.SecondaryKeywords, ", "))

	b.WriteString("**Internal Links to Use (exactly 3):**\n")
	for _, link := range links {
		fmt.Fprintf(&b, "- %s\n", link)
	}
	b.WriteString("\n")

	if research != nil {
		b.WriteString("## WEBSITE RESEARCH\n\n")
		fmt.Fprintf(&b, "**Brand Voice:** %s\n", orDefault(research.BrandVoice, "Professional and informative"))
		fmt.Fprintf(&b, "**Target Audience:** %s\n", orDefault(research.TargetAudience, "Not specified"))
		fmt.Fprintf(&b, "**Geographic Focus:** %s\n", orDefault(research.GeographicFocus, "Not specified"))
		fmt.Fprintf(&b, "**Business Model:** %s\n", orDefault(research.BusinessModel, "Not specified"))
		fmt.Fprintf(&b, "**Key Services/Products:** %s\n\n", strings.Join(research.Services, ", "))
		if research.TopicContent != "" {
			fmt.Fprintf(&b, "**Related Site Content:** %s\n\n", research.TopicContent)
		}
	}

	b.WriteString(clientInstructions(g))

	b.WriteString(`
## TASK

Generate a complete content brief following the exact JSON format specified in the system prompt.

Ensure:
1. Page title is under 60 characters
2. Meta description is 140-160 characters
3. All provided keywords are incorporated naturally
4. All 3 internal links are included
5. Maximum 4 H2 sections with max 2 H3s each
6. 4-6 FAQ questions
7. No dates or years anywhere

Return ONLY valid JSON.`)
	return b.String()
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
