// Package model defines the tagged-union document record indexed by the
// service and the chunks derived from it.
package model

import "encoding/json"

// Kind discriminates the variant of a Document. There is no virtual
// hierarchy: every operation that needs kind-specific behavior switches
// on this tag.
type Kind string

const (
	KindStatute            Kind = "statute"
	KindCase                Kind = "case"
	KindProcedure           Kind = "procedure"
	KindTemplate            Kind = "template"
	KindManual              Kind = "manual"
	KindCaseType            Kind = "case_type"
	KindSentencingGuideline Kind = "sentencing_guideline"
	KindFAQ                 Kind = "faq"
	KindKeywordMapping      Kind = "keyword_mapping"
	KindStyleIssue          Kind = "style_issue"
	KindStatistics          Kind = "statistics"
)

var validKinds = map[Kind]bool{
	KindStatute: true, KindCase: true, KindProcedure: true, KindTemplate: true,
	KindManual: true, KindCaseType: true, KindSentencingGuideline: true,
	KindFAQ: true, KindKeywordMapping: true, KindStyleIssue: true, KindStatistics: true,
}

// Content is the `string | list[string]` variant from the source model.
// Exactly one of Text/List is populated; IsList reports which.
type Content struct {
	Text   string
	List   []string
	IsList bool
}

// TextContent builds a scalar-text Content.
func TextContent(s string) Content { return Content{Text: s} }

// ListContent builds a list-of-strings Content.
func ListContent(items []string) Content { return Content{List: items, IsList: true} }

// Joined returns the content as a single string, newline-joining list items.
// Chunkers that work on plain text use this; chunkers that care about the
// list structure (template) inspect IsList/List directly.
func (c Content) Joined() string {
	if !c.IsList {
		return c.Text
	}
	out := ""
	for i, s := range c.List {
		if i > 0 {
			out += "\n"
		}
		out += s
	}
	return out
}

// Empty reports whether the content carries no information after trimming.
func (c Content) Empty() bool {
	if c.IsList {
		for _, s := range c.List {
			if trimmedNonEmpty(s) {
				return false
			}
		}
		return true
	}
	return !trimmedNonEmpty(c.Text)
}

func trimmedNonEmpty(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return true
		}
	}
	return false
}

// MarshalJSON renders Content as a bare string or a bare array, matching
// the on-disk interchange format (spec §6).
func (c Content) MarshalJSON() ([]byte, error) {
	if c.IsList {
		return json.Marshal(c.List)
	}
	return json.Marshal(c.Text)
}

// UnmarshalJSON accepts either a JSON string or a JSON array of strings.
func (c *Content) UnmarshalJSON(data []byte) error {
	var asList []string
	if err := json.Unmarshal(data, &asList); err == nil {
		c.List = asList
		c.IsList = true
		c.Text = ""
		return nil
	}
	var asText string
	if err := json.Unmarshal(data, &asText); err != nil {
		return err
	}
	c.Text = asText
	c.IsList = false
	c.List = nil
	return nil
}

// Document is the common envelope for every indexable record. Kind-specific
// attributes live in Metadata rather than as typed struct fields, mirroring
// spec §3 ("metadata: kind-specific attributes").
type Document struct {
	ID          string                 `json:"id"`
	Kind        Kind                   `json:"type"`
	Category    string                 `json:"category,omitempty"`
	SubCategory string                 `json:"sub_category,omitempty"`
	Title       string                 `json:"title"`
	Content     Content                `json:"content"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// MetaString reads a string metadata field, returning "" if absent or of a
// different type.
func (d Document) MetaString(key string) string {
	if d.Metadata == nil {
		return ""
	}
	if v, ok := d.Metadata[key].(string); ok {
		return v
	}
	return ""
}

// requiredMetadataKeys lists the kind-specific metadata fields a valid
// document of that kind must carry, grounded on
// original_source/src/models/{statute,case,statistics}.py.
var requiredMetadataKeys = map[Kind][]string{
	KindStatute:    {"law_name", "article_number"},
	KindCase:       {"court", "case_number"},
	KindStatistics: {"domain", "occurrence"},
}
