package domain

// Heading is one entry of the suggested heading outline (H1, H2 or H3).
type Heading struct {
	Level       string    `json:"level"`
	Text        string    `json:"text"`
	Description string    `json:"description,omitempty"`
	Subheadings []Heading `json:"subheadings,omitempty"`
}

// Brief is the generated content brief for a single page.
type Brief struct {
	ClientName        string    `json:"client_name"`
	Site              string    `json:"site"`
	Topic             string    `json:"topic"`
	PrimaryKeyword    string    `json:"primary_keyword"`
	SecondaryKeywords []string  `json:"secondary_keywords"`
	PageType          string    `json:"page_type"`
	PageTitle         string    `json:"page_title"`
	MetaDescription   string    `json:"meta_description"`
	TargetURL         string    `json:"target_url"`
	H1                string    `json:"h1"`
	WordCount         string    `json:"word_count"`
	Audience          []string  `json:"audience"`
	Tone              []string  `json:"tone"`
	POV               []string  `json:"pov"`
	CTA               string    `json:"cta"`
	Restrictions      []string  `json:"restrictions"`
	Requirements      []string  `json:"requirements"`
	Headings          []Heading `json:"headings"`
	FAQs              []string  `json:"faqs"`
	InternalLinks     []string  `json:"internal_links"`
}

// Research summarises what was learned about a client website.
type Research struct {
	URL             string   `json:"url"`
	Domain          string   `json:"domain"`
	BrandVoice      string   `json:"brand_voice"`
	Services        []string `json:"services_products"`
	TargetAudience  string   `json:"target_audience"`
	GeographicFocus string   `json:"geographic_focus"`
	BusinessModel   string   `json:"business_model"`
	KeyContent      string   `json:"key_content"`
	TopicContent    string   `json:"topic_relevant_content,omitempty"`
	InternalLinks   []string `json:"internal_links"`
}

// ViolationKind separates blocking rule failures from advisory ones.
type ViolationKind string

const (
	ViolationError   ViolationKind = "error"
	ViolationWarning ViolationKind = "warning"
)

// Violation is a single broken brief rule.
type Violation struct {
	Kind    ViolationKind `json:"kind"`
	Message string        `json:"message"`
}

// Document is an encoded brief ready for download.
type Document struct {
	Filename string
	Bytes    []byte
}

// Guidelines carries the per-client rules a brief must honour.
type Guidelines struct {
	Domain         string   `yaml:"domain" json:"domain"`
	ClientName     string   `yaml:"clientName" json:"client_name"`
	Language       string   `yaml:"language" json:"language"`
	NeverInclude   []string `yaml:"neverInclude" json:"never_include,omitempty"`
	AlwaysInclude  []string `yaml:"alwaysInclude" json:"always_include,omitempty"`
	Restrictions   []string `yaml:"restrictions" json:"restrictions,omitempty"`
	TechnicalTerms []string `yaml:"technicalTerms" json:"technical_terms,omitempty"`
	CTA            string   `yaml:"cta" json:"cta,omitempty"`
}

// UsesUKEnglish reports whether brief text should be converted to UK spelling.
func (g *Guidelines) UsesUKEnglish() bool {
	return g == nil || g.Language == "" || g.Language == "UK"
}
