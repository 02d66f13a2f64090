// Package markdown converts between rich markup fragments and Markdown, and
// renders parsed document trees into a single canonical Markdown document.
package markdown

import (
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"
)

// Converter turns HTML fragments into Markdown. Superscript and subscript
// have no standard Markdown syntax; the ^x^ / ~x~ forms are kept so footnote
// markers and chemical formulas in statute annexes survive the conversion.
type Converter struct {
	conv *md.Converter
}

func NewConverter() *Converter {
	conv := md.NewConverter("", true, nil)
	conv.Use(plugin.Strikethrough(""))

	conv.AddRules(
		md.Rule{
			Filter: []string{"sup"},
			Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
				return wrapInline(content, "^")
			},
		},
		md.Rule{
			Filter: []string{"sub"},
			Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
				return wrapInline(content, "~")
			},
		},
		md.Rule{
			Filter: []string{"u", "ins"},
			Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
				return wrapInline(content, "_")
			},
		},
	)
	return &Converter{conv: conv}
}

func wrapInline(content, marker string) *string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		empty := ""
		return &empty
	}
	out := marker + trimmed + marker
	return &out
}

// ToMarkdown converts an HTML fragment to cleaned Markdown.
func (c *Converter) ToMarkdown(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", nil
	}
	out, err := c.conv.ConvertString(html)
	if err != nil {
		return "", err
	}
	return Clean(out), nil
}

var (
	excessNewlines = regexp.MustCompile(`\n{3,}`)
	emptyBold      = regexp.MustCompile(`\*\*\s*\*\*`)
	emptyItalic    = regexp.MustCompile(`\*\s+\*`) // one space minimum, or bold markers would be eaten
	trailingSpace  = regexp.MustCompile(`[ \t]+\n`)
)

// Clean collapses runs of three or more newlines to one blank line and
// removes emphasis marker pairs left behind by elements with no text.
func Clean(text string) string {
	text = emptyBold.ReplaceAllString(text, "")
	text = emptyItalic.ReplaceAllString(text, "")
	text = trailingSpace.ReplaceAllString(text, "\n")
	text = excessNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
