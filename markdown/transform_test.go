package markdown

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openjuris/types"
)

func sampleDocument() *types.ScrapedDocument {
	promulgated := time.Date(1946, time.September, 5, 0, 0, 0, 0, time.UTC)
	return &types.ScrapedDocument{
		CanonicalCitation: "Republic Act No. 5",
		Title:             "AN ACT TO PROVIDE FOR REHABILITATION",
		Category:          types.CategoryStatute,
		DocType:           types.DocRepublicAct,
		SourceURL:         "https://lawphil.net/ra5.html",
		DatePromulgated:   &promulgated,
		Metadata:          map[string]string{"source_name": "lawphil"},
		Parts: []*types.ScrapedPart{
			{
				SectionType: types.SectionParagraph,
				ContentText: "Front matter paragraph.",
				SortOrder:   0,
			},
			{
				SectionType: types.SectionSection,
				Label:       "Section 1",
				ContentText: "Section 1. The operative provision.",
				SortOrder:   1,
				Children: []*types.ScrapedPart{
					{
						SectionType:     types.SectionTable,
						ContentText:     "Item Fee",
						ContentMarkdown: "| Item | Fee |\n| --- | --- |",
						ContentHTML:     "<table><tr><td>Item</td><td>Fee</td></tr></table>",
						SortOrder:       2,
					},
				},
			},
		},
	}
}

func TestRenderEnvelope(t *testing.T) {
	out := Render(sampleDocument())

	assert.Contains(t, out, "# Republic Act No. 5\n")
	assert.Contains(t, out, "## AN ACT TO PROVIDE FOR REHABILITATION\n")
	assert.Contains(t, out, "**Promulgated:** 1946-09-05")
	assert.Contains(t, out, "**Source:** The Lawphil Project")
	assert.Contains(t, out, "**URL:** https://lawphil.net/ra5.html")
	assert.Contains(t, out, "### Section 1\n")
	assert.Contains(t, out, "Front matter paragraph.")
	assert.Contains(t, out, "| Item | Fee |")
	assert.Contains(t, out, "*Document Type: Republic Act*")
}

func TestRenderSkipsAbsentMetadata(t *testing.T) {
	doc := sampleDocument()
	doc.Title = ""
	doc.DatePromulgated = nil
	doc.Metadata = nil

	out := Render(doc)
	assert.NotContains(t, out, "##  ")
	assert.NotContains(t, out, "**Promulgated:**")
	assert.NotContains(t, out, "**Source:**")
}

func TestFlattenPreOrder(t *testing.T) {
	flat := Flatten(sampleDocument().Parts)
	require.Len(t, flat, 3)

	assert.Equal(t, -1, flat[0].ParentIndex)
	assert.Equal(t, -1, flat[1].ParentIndex)
	assert.Equal(t, types.SectionSection, flat[1].SectionType)
	// The table nests under the section, by slice index.
	assert.Equal(t, 1, flat[2].ParentIndex)
	assert.Equal(t, types.SectionTable, flat[2].SectionType)

	for i := 1; i < len(flat); i++ {
		assert.Greater(t, flat[i].SortOrder, flat[i-1].SortOrder)
	}
}

func TestTablePreservingView(t *testing.T) {
	doc := sampleDocument()
	rendered := Render(doc)
	flat := Flatten(doc.Parts)

	view := TablePreservingView(rendered, flat)
	assert.Contains(t, view, "<table>")
	assert.NotContains(t, view, "| Item | Fee |")
	// Everything outside the table is untouched.
	assert.Contains(t, view, "# Republic Act No. 5")
}
