package markdown

import (
	"fmt"
	"strings"

	"openjuris/types"
)

// sourceDisplayNames maps source identifiers to the attribution line used in
// the rendered envelope.
var sourceDisplayNames = map[string]string{
	string(types.SourceLawphil):    "The Lawphil Project",
	string(types.SourceSCELibrary): "Supreme Court E-Library",
}

// Render emits the canonical Markdown for a parsed document: citation as H1,
// title as H2, a metadata block, then every part depth-first in sort order,
// closed by a footer naming the document type.
func Render(doc *types.ScrapedDocument) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", doc.CanonicalCitation)
	if doc.Title != "" {
		fmt.Fprintf(&b, "## %s\n\n", doc.Title)
	}

	b.WriteString("---\n\n")
	if doc.DatePromulgated != nil {
		fmt.Fprintf(&b, "**Promulgated:** %s\n", doc.DatePromulgated.Format("2006-01-02"))
	}
	if doc.DateEffectivity != nil {
		fmt.Fprintf(&b, "**Effectivity:** %s\n", doc.DateEffectivity.Format("2006-01-02"))
	}
	if name, ok := sourceDisplayNames[doc.Metadata["source_name"]]; ok {
		fmt.Fprintf(&b, "**Source:** %s\n", name)
	}
	if doc.SourceURL != "" {
		fmt.Fprintf(&b, "**URL:** %s\n", doc.SourceURL)
	}
	b.WriteString("\n---\n\n")

	for _, part := range doc.Parts {
		renderPart(&b, part, 0)
	}

	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "*Document Type: %s*\n", doc.DocType)
	return b.String()
}

func renderPart(b *strings.Builder, part *types.ScrapedPart, depth int) {
	switch part.SectionType {
	case types.SectionArticle:
		label := part.Label
		if label == "" {
			label = "Article"
		}
		fmt.Fprintf(b, "## %s\n", label)
		if part.ContentText != "" {
			fmt.Fprintf(b, "%s\n", part.ContentText)
		}
		b.WriteString("\n")
	case types.SectionSection:
		label := part.Label
		if label == "" {
			label = "Section"
		}
		fmt.Fprintf(b, "### %s\n", label)
		if part.ContentText != "" {
			fmt.Fprintf(b, "%s\n", part.ContentText)
		}
		b.WriteString("\n")
	case types.SectionParagraph, types.SectionBody, types.SectionTable:
		if part.ContentMarkdown != "" {
			fmt.Fprintf(b, "%s\n", part.ContentMarkdown)
		} else if part.ContentText != "" {
			fmt.Fprintf(b, "%s\n", part.ContentText)
		}
		b.WriteString("\n")
	default:
		if part.Label != "" {
			fmt.Fprintf(b, "**%s**\n", part.Label)
		}
		if part.ContentMarkdown != "" {
			fmt.Fprintf(b, "%s\n", part.ContentMarkdown)
		} else if part.ContentText != "" {
			fmt.Fprintf(b, "%s\n", part.ContentText)
		}
		b.WriteString("\n")
	}

	for _, child := range part.Children {
		renderPart(b, child, depth+1)
	}
}

// FlatPart is one node of a flattened part tree. ParentIndex refers to the
// slice position of the parent (-1 for roots); real storage keys are assigned
// only at the persistence boundary.
type FlatPart struct {
	SectionType     types.SectionType
	Label           string
	ContentText     string
	ContentMarkdown string
	ContentHTML     string
	SortOrder       int
	ParentIndex     int
}

// Flatten converts a part tree into a flat pre-order list with
// parent-by-index references. It performs no I/O and assigns no identity.
func Flatten(parts []*types.ScrapedPart) []FlatPart {
	var out []FlatPart
	var walk func(part *types.ScrapedPart, parent int)
	walk = func(part *types.ScrapedPart, parent int) {
		out = append(out, FlatPart{
			SectionType:     part.SectionType,
			Label:           part.Label,
			ContentText:     part.ContentText,
			ContentMarkdown: part.ContentMarkdown,
			ContentHTML:     part.ContentHTML,
			SortOrder:       part.SortOrder,
			ParentIndex:     parent,
		})
		idx := len(out) - 1
		for _, child := range part.Children {
			walk(child, idx)
		}
	}
	for _, part := range parts {
		walk(part, -1)
	}
	return out
}

// TablePreservingView rebuilds a document view from rendered Markdown and a
// flattened part list, substituting each table part's original markup for its
// Markdown rendering. Non-table content is left unchanged.
func TablePreservingView(rendered string, parts []FlatPart) string {
	out := rendered
	for _, part := range parts {
		if part.SectionType != types.SectionTable || part.ContentHTML == "" || part.ContentMarkdown == "" {
			continue
		}
		out = strings.Replace(out, part.ContentMarkdown, part.ContentHTML, 1)
	}
	return out
}
