// Package scrape turns publisher HTML into structured legal documents. The
// parser is heuristic: it locates a citation, recovers the long title, then
// walks the page's block elements to rebuild the article/section hierarchy.
package scrape

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"openjuris/markdown"
	"openjuris/types"
)

const (
	// citationScanLimit bounds how far into the body text the citation is
	// searched for when the page title carries none.
	citationScanLimit = 2000
	// titleWindowLimit bounds the text window after the citation that may
	// contain the long title.
	titleWindowLimit = 5000
	// titleMaxLen caps the stored title length.
	titleMaxLen = 500
	// boilerplateTextLimit is the longest element text still eligible for
	// publisher-fragment boilerplate matching. Long passages quoting the
	// publisher are kept.
	boilerplateTextLimit = 200

	blockSelector = "p, div, blockquote, table, center, pre"
)

var (
	articleRe = regexp.MustCompile(`^(?i:ART(?:ICLE)?)\.?\s+([IVXLCDM]+|\d+)\b`)
	sectionRe = regexp.MustCompile(`^(?i:SEC(?:TION)?)\.?\s+(\d+(?:-[A-Za-z])?)\.?(\s|$)`)

	// titleTerminators mark where front matter ends and the body begins.
	// The earliest match closes the title window.
	titleTerminators = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bSEC(?:TION)?\.?\s+1\b`),
		regexp.MustCompile(`(?i)\bARTICLE\s+(?:I|1)\b`),
		regexp.MustCompile(`(?i)\bCHAPTER\s+(?:I|1)\b`),
		regexp.MustCompile(`(?i)\bPRELIMINARY\s+TITLE\b`),
		regexp.MustCompile(`(?i)\bGENERAL\s+PROVISIONS\b`),
		regexp.MustCompile(`(?i)\bBe\s+it\s+enacted\b`),
		regexp.MustCompile(`(?i)\bWHEREAS\b`),
	}

	shortTitleRe = regexp.MustCompile(`(?i)shall be known(?: and cited)? as\s+(?:the\s+)?[“"']([^”"']{3,200})[”"']`)

	// dateLabelPatterns anchor each semantic date on a publisher label. The
	// date string is the first capture group.
	dateLabelPatterns = map[string][]*regexp.Regexp{
		"approved": {
			regexp.MustCompile(`(?i)\bApproved[:,]?\s+([A-Za-z]+\.?\s+\d{1,2},?\s+\d{4})`),
		},
		"promulgated": {
			regexp.MustCompile(`(?i)\bPromulgated[:,]?\s+([A-Za-z]+\.?\s+\d{1,2},?\s+\d{4})`),
		},
		"published": {
			regexp.MustCompile(`(?i)\bPublished[:,]?\s+([A-Za-z]+\.?\s+\d{1,2},?\s+\d{4})`),
		},
		"effectivity": {
			regexp.MustCompile(`(?i)\bEffectivity[:,]?\s+([A-Za-z]+\.?\s+\d{1,2},?\s+\d{4})`),
			regexp.MustCompile(`(?i)shall take effect\s+(?:on\s+)?([A-Za-z]+\.?\s+\d{1,2},?\s+\d{4})`),
		},
	}

	// dayOfRe handles the ceremonial signing formula used on decrees and
	// orders: "this 21st day of September, 1972".
	dayOfRe = regexp.MustCompile(`(?i)this\s+(\d{1,2})(?:st|nd|rd|th)?\s+day\s+of\s+([A-Za-z]+),?\s+(\d{4})`)

	dateLayouts = []string{
		"January 2, 2006",
		"January 2 2006",
		"Jan. 2, 2006",
		"Jan 2, 2006",
	}
)

// Parser extracts structured documents from one source's pages.
type Parser struct {
	source Source
	conv   *markdown.Converter
}

func NewParser(source Source) *Parser {
	return &Parser{source: source, conv: markdown.NewConverter()}
}

// Parse builds a ScrapedDocument from raw page HTML. A page where no
// citation for docType can be located is not an error; Parse returns
// (nil, nil) and the caller records the miss.
func (p *Parser) Parse(raw []byte, sourceURL string, docType types.DocumentType) (*types.ScrapedDocument, error) {
	pattern, ok := PatternFor(docType)
	if !ok {
		return nil, fmt.Errorf("no citation patterns registered for document type %s", docType)
	}

	gq, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse html for %s: %w", sourceURL, err)
	}

	body := gq.Find("body")
	if body.Length() == 0 {
		body = gq.Selection
	}
	bodyText := normalizeWS(body.Text())

	citation, number := p.findCitation(gq, bodyText, pattern)
	if citation == "" {
		return nil, nil
	}

	doc := &types.ScrapedDocument{
		CanonicalCitation: citation,
		Category:          docType.Category(),
		DocType:           docType,
		SourceURL:         sourceURL,
		Metadata: map[string]string{
			"source_name":     string(p.source.Name),
			"document_number": number,
		},
	}

	doc.Title = p.findTitle(body, bodyText, pattern)
	if doc.Title == "" {
		doc.Title = citation
	}
	if m := shortTitleRe.FindStringSubmatch(bodyText); m != nil {
		doc.ShortTitle = strings.TrimSpace(m[1])
	}

	p.extractDates(bodyText, pattern, doc)
	doc.Parts = p.buildTree(body)
	doc.ContentMarkdown = markdown.Render(doc)
	return doc, nil
}

// findCitation looks for the citation in the page title first, then in the
// leading body text. The canonical form is "<DisplayName> No. <number>".
func (p *Parser) findCitation(gq *goquery.Document, bodyText string, pattern StatutePattern) (citation, number string) {
	candidates := []string{normalizeWS(gq.Find("title").Text())}
	if len(bodyText) > citationScanLimit {
		candidates = append(candidates, bodyText[:citationScanLimit])
	} else {
		candidates = append(candidates, bodyText)
	}

	for _, text := range candidates {
		if text == "" {
			continue
		}
		for _, re := range pattern.Patterns {
			if m := re.FindStringSubmatch(text); m != nil {
				number = m[2]
				return fmt.Sprintf("%s No. %s", pattern.DisplayName, number), number
			}
		}
	}
	return "", ""
}

// findTitle recovers the long title: the text between the citation and the
// first structural terminator, starting at a known title prefix. When the
// citation is absent from the body text (title-tag-only pages), it falls
// back to scanning standalone elements for a title-prefix match.
func (p *Parser) findTitle(body *goquery.Selection, bodyText string, pattern StatutePattern) string {
	start := -1
	for _, re := range pattern.Patterns {
		if loc := re.FindStringIndex(bodyText); loc != nil {
			start = loc[1]
			break
		}
	}
	if start < 0 {
		return p.standaloneTitle(body, pattern)
	}

	window := bodyText[start:]
	if len(window) > titleWindowLimit {
		window = window[:titleWindowLimit]
	}

	end := len(window)
	for _, re := range titleTerminators {
		if loc := re.FindStringIndex(window); loc != nil && loc[0] < end {
			end = loc[0]
		}
	}
	candidate := window[:end]

	upper := strings.ToUpper(candidate)
	titleStart := -1
	for _, prefix := range pattern.TitlePrefixes {
		if idx := strings.Index(upper, prefix); idx >= 0 && (titleStart < 0 || idx < titleStart) {
			titleStart = idx
		}
	}
	if titleStart < 0 {
		return p.standaloneTitle(body, pattern)
	}

	return clampTitle(normalizeWS(candidate[titleStart:]))
}

// standaloneTitle scans standalone elements for one whose text opens with a
// title prefix and carries no structural marker. Pages that cite the statute
// only in the title tag still present the long title as its own element.
func (p *Parser) standaloneTitle(body *goquery.Selection, pattern StatutePattern) string {
	title := ""
	body.Find("p, div, center, b, i, em").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := normalizeWS(sel.Text())
		if text == "" {
			return true
		}
		upper := strings.ToUpper(text)
		for _, prefix := range pattern.TitlePrefixes {
			if strings.HasPrefix(upper, prefix) && !hasTitleTerminator(text) {
				title = text
				return false
			}
		}
		return true
	})
	return clampTitle(title)
}

func hasTitleTerminator(text string) bool {
	for _, re := range titleTerminators {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func clampTitle(title string) string {
	title = strings.TrimRight(title, ".,;: ")
	if len(title) > titleMaxLen {
		title = title[:titleMaxLen] + "..."
	}
	return title
}

// extractDates fills the document's semantic dates from label-anchored
// patterns. A date that matches but will not parse is kept raw in metadata
// rather than guessed at.
func (p *Parser) extractDates(bodyText string, pattern StatutePattern, doc *types.ScrapedDocument) {
	for _, field := range pattern.DateFields {
		raw := ""
		for _, re := range dateLabelPatterns[field] {
			if m := re.FindStringSubmatch(bodyText); m != nil {
				raw = strings.TrimSpace(m[1])
				break
			}
		}
		if raw == "" && (field == "promulgated" || field == "approved") {
			if m := dayOfRe.FindStringSubmatch(bodyText); m != nil {
				raw = fmt.Sprintf("%s %s, %s", m[2], m[1], m[3])
			}
		}
		if raw == "" {
			continue
		}

		parsed, err := parseDate(raw)
		if err != nil {
			doc.Metadata["date_"+field+"_raw"] = raw
			continue
		}
		switch field {
		case "approved", "promulgated":
			doc.DatePromulgated = &parsed
		case "published":
			doc.DatePublished = &parsed
		case "effectivity":
			doc.DateEffectivity = &parsed
		}
	}
}

func parseDate(raw string) (time.Time, error) {
	cleaned := normalizeWS(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

// treeBuilder accumulates the structural tree during the body walk. Loose
// text between headers is buffered and flushed as a paragraph attached to the
// innermost open container.
type treeBuilder struct {
	roots      []*types.ScrapedPart
	curArticle *types.ScrapedPart
	curSection *types.ScrapedPart
	textBuf    []string
	mdBuf      []string
	nextOrder  int
}

func (tb *treeBuilder) newPart(kind types.SectionType, label string) *types.ScrapedPart {
	part := &types.ScrapedPart{
		SectionType: kind,
		Label:       label,
		SortOrder:   tb.nextOrder,
	}
	tb.nextOrder++
	return part
}

func (tb *treeBuilder) attach(part *types.ScrapedPart) {
	switch {
	case tb.curSection != nil:
		tb.curSection.Children = append(tb.curSection.Children, part)
	case tb.curArticle != nil:
		tb.curArticle.Children = append(tb.curArticle.Children, part)
	default:
		tb.roots = append(tb.roots, part)
	}
}

func (tb *treeBuilder) flush() {
	if len(tb.textBuf) == 0 {
		return
	}
	part := tb.newPart(types.SectionParagraph, "")
	part.ContentText = strings.Join(tb.textBuf, "\n\n")
	part.ContentMarkdown = strings.Join(tb.mdBuf, "\n\n")
	tb.attach(part)
	tb.textBuf = nil
	tb.mdBuf = nil
}

func (tb *treeBuilder) openArticle(label, text string) {
	tb.flush()
	tb.curSection = nil
	article := tb.newPart(types.SectionArticle, label)
	article.ContentText = text
	tb.roots = append(tb.roots, article)
	tb.curArticle = article
}

func (tb *treeBuilder) openSection(label, text string) {
	tb.flush()
	tb.curSection = nil
	section := tb.newPart(types.SectionSection, label)
	section.ContentText = text
	tb.attach(section)
	tb.curSection = section
}

// buildTree walks the page's block elements in document order and rebuilds
// the article/section hierarchy. Container blocks that hold other block
// candidates are skipped so nested markup is not ingested twice; tables are
// taken whole.
func (p *Parser) buildTree(body *goquery.Selection) []*types.ScrapedPart {
	tb := &treeBuilder{}

	body.Find(blockSelector).Each(func(_ int, sel *goquery.Selection) {
		if goquery.NodeName(sel) != "table" && sel.ParentsFiltered("table").Length() > 0 {
			return
		}

		if p.isBoilerplateElement(sel) {
			return
		}

		if goquery.NodeName(sel) == "table" {
			md := tableToMarkdown(sel)
			if md == "" {
				return
			}
			tb.flush()
			part := tb.newPart(types.SectionTable, "")
			part.ContentText = normalizeWS(sel.Text())
			part.ContentMarkdown = md
			if html, err := goquery.OuterHtml(sel); err == nil {
				part.ContentHTML = strings.TrimSpace(html)
			}
			tb.attach(part)
			return
		}

		if sel.Find(blockSelector).Length() > 0 {
			return
		}

		text := normalizeWS(sel.Text())
		if text == "" {
			return
		}

		if m := articleRe.FindStringSubmatch(text); m != nil {
			tb.openArticle("Article "+m[1], text)
			return
		}
		if m := sectionRe.FindStringSubmatch(text); m != nil {
			tb.openSection("Section "+m[1], text)
			return
		}

		tb.textBuf = append(tb.textBuf, text)
		tb.mdBuf = append(tb.mdBuf, p.blockMarkdown(sel, text))
	})

	tb.flush()
	return tb.roots
}

// blockMarkdown converts one block element to Markdown, falling back to its
// plain text when conversion fails.
func (p *Parser) blockMarkdown(sel *goquery.Selection, text string) string {
	html, err := goquery.OuterHtml(sel)
	if err != nil {
		return text
	}
	md, err := p.conv.ToMarkdown(html)
	if err != nil || md == "" {
		return text
	}
	return md
}

func (p *Parser) isBoilerplateElement(sel *goquery.Selection) bool {
	for _, attr := range []string{"id", "class"} {
		if val, ok := sel.Attr(attr); ok && IsBoilerplateAttr(val) {
			return true
		}
	}
	text := normalizeWS(sel.Text())
	return len(text) < boilerplateTextLimit && p.source.IsBoilerplateText(text)
}

// tableToMarkdown renders a table element as a pipe table, escaping literal
// pipes in cell text. A header separator follows the first row.
func tableToMarkdown(sel *goquery.Selection) string {
	var lines []string
	sel.Find("tr").Each(func(i int, row *goquery.Selection) {
		var cells []string
		row.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			text := strings.ReplaceAll(normalizeWS(cell.Text()), "|", `\|`)
			cells = append(cells, text)
		})
		if len(cells) == 0 {
			return
		}
		lines = append(lines, "| "+strings.Join(cells, " | ")+" |")
		if len(lines) == 1 {
			sep := make([]string, len(cells))
			for j := range sep {
				sep[j] = "---"
			}
			lines = append(lines, "| "+strings.Join(sep, " | ")+" |")
		}
	})
	return strings.Join(lines, "\n")
}

func normalizeWS(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
