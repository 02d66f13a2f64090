package scrape

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openjuris/markdown"
	"openjuris/types"
)

const ra5HTML = `<html>
<head><title>R.A. 5</title></head>
<body>
<div id="nav-menu"><a href="/">Home</a> | <a href="/statutes">Statutes</a></div>
<p>REPUBLIC ACT No. 5</p>
<p>AN ACT TO PROVIDE FOR THE REHABILITATION OF AGRICULTURAL LANDS AND FOR OTHER PURPOSES</p>
<p>Be it enacted by the Senate and House of Representatives of the Philippines in Congress assembled:</p>
<p>Section 1. This Act shall be known as the "Agricultural Rehabilitation Act."</p>
<p>Loose explanatory text under the first section.</p>
<p>Section 2. This Act shall take effect upon its approval.</p>
<p>Approved: September 5, 1946.</p>
<p class="site-footer">The Lawphil Project - Arellano Law Foundation</p>
</body>
</html>`

func lawphilParser(t *testing.T) *Parser {
	t.Helper()
	src, err := SourceByName(types.SourceLawphil)
	require.NoError(t, err)
	return NewParser(src)
}

func TestParseRepublicAct(t *testing.T) {
	parser := lawphilParser(t)

	doc, err := parser.Parse([]byte(ra5HTML), "https://lawphil.net/statutes/repacts/ra1946/ra_5_1946.html", types.DocRepublicAct)
	require.NoError(t, err)
	require.NotNil(t, doc)

	assert.Equal(t, "Republic Act No. 5", doc.CanonicalCitation)
	assert.Equal(t, types.CategoryStatute, doc.Category)
	assert.Equal(t, types.DocRepublicAct, doc.DocType)
	assert.Equal(t, "5", doc.Metadata["document_number"])
	assert.Equal(t, "lawphil", doc.Metadata["source_name"])

	assert.True(t, strings.HasPrefix(doc.Title, "AN ACT TO PROVIDE FOR THE REHABILITATION"))
	assert.NotContains(t, doc.Title, "Be it enacted")
	assert.Equal(t, "Agricultural Rehabilitation Act.", doc.ShortTitle)

	require.NotNil(t, doc.DatePromulgated)
	assert.Equal(t, time.Date(1946, time.September, 5, 0, 0, 0, 0, time.UTC), *doc.DatePromulgated)

	// Front matter paragraph, then the two sections at the root.
	require.Len(t, doc.Parts, 3)
	assert.Equal(t, types.SectionParagraph, doc.Parts[0].SectionType)
	assert.Contains(t, doc.Parts[0].ContentText, "REPUBLIC ACT No. 5")

	sec1 := doc.Parts[1]
	assert.Equal(t, types.SectionSection, sec1.SectionType)
	assert.Equal(t, "Section 1", sec1.Label)
	require.Len(t, sec1.Children, 1)
	assert.Contains(t, sec1.Children[0].ContentText, "Loose explanatory text")

	sec2 := doc.Parts[2]
	assert.Equal(t, "Section 2", sec2.Label)
	require.Len(t, sec2.Children, 1)
	assert.Contains(t, sec2.Children[0].ContentText, "Approved")

	// The navigation bar and footer never make it into the tree.
	for _, part := range markdown.Flatten(doc.Parts) {
		assert.NotContains(t, part.ContentText, "Arellano Law Foundation")
		assert.NotContains(t, part.ContentText, "Home")
	}

	assert.Contains(t, doc.ContentMarkdown, "# Republic Act No. 5")
	assert.Contains(t, doc.ContentMarkdown, "### Section 1")
	assert.Contains(t, doc.ContentMarkdown, "*Document Type: Republic Act*")
}

func TestParseTitleFromStandaloneElement(t *testing.T) {
	// The citation appears only in the title tag, so the citation-anchored
	// title search has nothing to anchor on.
	html := `<title>Republic Act No. 5</title><body><p>AN ACT providing X.</p><p>SEC. 1. Short Title. This Act shall be known as X.</p></body>`

	parser := lawphilParser(t)
	doc, err := parser.Parse([]byte(html), "https://lawphil.net/ra5.html", types.DocRepublicAct)
	require.NoError(t, err)
	require.NotNil(t, doc)

	assert.Equal(t, "Republic Act No. 5", doc.CanonicalCitation)
	assert.True(t, strings.HasPrefix(doc.Title, "AN ACT providing X"), "got title %q", doc.Title)

	var sections []*types.ScrapedPart
	for _, part := range doc.Parts {
		if part.SectionType == types.SectionSection {
			sections = append(sections, part)
		}
	}
	require.Len(t, sections, 1)
	assert.Equal(t, "Section 1", sections[0].Label)
}

func TestParseTitleDefaultsToCitation(t *testing.T) {
	html := `<html><head><title>Republic Act No. 7</title></head><body>
<p>REPUBLIC ACT No. 7</p>
<p>Be it enacted by the Senate and House of Representatives:</p>
<p>Section 1. A provision without any long title.</p>
</body></html>`

	parser := lawphilParser(t)
	doc, err := parser.Parse([]byte(html), "https://lawphil.net/ra7.html", types.DocRepublicAct)
	require.NoError(t, err)
	require.NotNil(t, doc)

	assert.Equal(t, "Republic Act No. 7", doc.Title)
}

func TestParseTitleTrailingPunctuationStripped(t *testing.T) {
	html := `<html><head><title>Presidential Decree No. 50</title></head><body>
<p>PRESIDENTIAL DECREE No. 50</p>
<p>DECLARING A NATIONAL HOLIDAY.</p>
<p>WHEREAS, the occasion warrants observance;</p>
</body></html>`

	parser := lawphilParser(t)
	doc, err := parser.Parse([]byte(html), "https://lawphil.net/pd50.html", types.DocPresidentialDecree)
	require.NoError(t, err)
	require.NotNil(t, doc)

	assert.Equal(t, "DECLARING A NATIONAL HOLIDAY", doc.Title)
}

func TestParseSortOrderStrictlyIncreasing(t *testing.T) {
	parser := lawphilParser(t)

	doc, err := parser.Parse([]byte(ra5HTML), "https://lawphil.net/ra5.html", types.DocRepublicAct)
	require.NoError(t, err)
	require.NotNil(t, doc)

	flat := markdown.Flatten(doc.Parts)
	require.NotEmpty(t, flat)
	for i := 1; i < len(flat); i++ {
		assert.Greater(t, flat[i].SortOrder, flat[i-1].SortOrder)
	}
}

func TestParseNoCitationReturnsNil(t *testing.T) {
	parser := lawphilParser(t)

	doc, err := parser.Parse([]byte("<html><body><p>Nothing to see here.</p></body></html>"),
		"https://lawphil.net/empty.html", types.DocRepublicAct)
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestParseUnknownDocTypeIsError(t *testing.T) {
	parser := lawphilParser(t)

	_, err := parser.Parse([]byte(ra5HTML), "https://lawphil.net/ra5.html", types.DocDecision)
	require.Error(t, err)
}

func TestParseArticlesNestSections(t *testing.T) {
	html := `<html><head><title>Presidential Decree No. 100</title></head><body>
<p>PRESIDENTIAL DECREE No. 100</p>
<p>DECLARING A NEW STRUCTURE FOR LOCAL COURTS</p>
<p>ARTICLE I</p>
<p>Section 1. The first provision of article one.</p>
<p>Section 2. The second provision of article one.</p>
<p>ARTICLE II</p>
<p>Section 1. The first provision of article two.</p>
</body></html>`

	parser := lawphilParser(t)
	doc, err := parser.Parse([]byte(html), "https://lawphil.net/pd100.html", types.DocPresidentialDecree)
	require.NoError(t, err)
	require.NotNil(t, doc)

	var articles []*types.ScrapedPart
	for _, part := range doc.Parts {
		if part.SectionType == types.SectionArticle {
			articles = append(articles, part)
		}
	}
	require.Len(t, articles, 2)
	assert.Equal(t, "Article I", articles[0].Label)
	assert.Len(t, articles[0].Children, 2)
	assert.Equal(t, "Article II", articles[1].Label)
	assert.Len(t, articles[1].Children, 1)
}

func TestParseTablePreserved(t *testing.T) {
	html := `<html><head><title>Republic Act No. 9</title></head><body>
<p>REPUBLIC ACT No. 9</p>
<p>AN ACT FIXING SCHEDULES OF FEES</p>
<table><tr><th>Item</th><th>Fee | Rate</th></tr><tr><td>Filing</td><td>10.00</td></tr></table>
</body></html>`

	parser := lawphilParser(t)
	doc, err := parser.Parse([]byte(html), "https://lawphil.net/ra9.html", types.DocRepublicAct)
	require.NoError(t, err)
	require.NotNil(t, doc)

	var table *types.ScrapedPart
	for _, part := range doc.Parts {
		if part.SectionType == types.SectionTable {
			table = part
		}
	}
	require.NotNil(t, table)

	assert.Contains(t, table.ContentMarkdown, "| Item |")
	assert.Contains(t, table.ContentMarkdown, "| --- | --- |")
	assert.Contains(t, table.ContentMarkdown, `Fee \| Rate`)
	assert.Contains(t, table.ContentHTML, "<table>")

	// The rendered document carries the pipe table; the table-preserving
	// view swaps the original markup back in.
	assert.Contains(t, doc.ContentMarkdown, "| Item |")
	view := markdown.TablePreservingView(doc.ContentMarkdown, markdown.Flatten(doc.Parts))
	assert.Contains(t, view, "<table>")
}

func TestParseDayOfSigningFormula(t *testing.T) {
	html := `<html><head><title>Proclamation No. 1081</title></head><body>
<p>PROCLAMATION No. 1081</p>
<p>PROCLAIMING A STATE OF MARTIAL LAW IN THE PHILIPPINES</p>
<p>Done in the City of Manila, this 21st day of September, 1972.</p>
</body></html>`

	parser := lawphilParser(t)
	doc, err := parser.Parse([]byte(html), "https://lawphil.net/proc1081.html", types.DocProclamation)
	require.NoError(t, err)
	require.NotNil(t, doc)

	require.NotNil(t, doc.DatePromulgated)
	assert.Equal(t, time.Date(1972, time.September, 21, 0, 0, 0, 0, time.UTC), *doc.DatePromulgated)
}
