package scrape

import (
	"fmt"
	"net/url"
	"strings"

	"openjuris/types"
)

// Source describes one supported publisher: where its index pages live, how
// document links are found on them, and which page furniture to discard.
type Source struct {
	Name    types.SourceName
	BaseURL string

	// IndexPaths maps each supported document type to the path of its index
	// page, relative to BaseURL.
	IndexPaths map[types.DocumentType]string

	// IndexSelector scopes link extraction on an index page. Empty means the
	// whole body.
	IndexSelector string

	// SubIndexSelector, when set, marks the index as two-level: links found
	// under IndexSelector lead to intermediate pages whose links (under this
	// selector) are the actual documents.
	SubIndexSelector string

	// BoilerplateTexts are publisher attribution fragments; an element whose
	// text contains one of these (lowercased) is navigation or credits, not
	// document content.
	BoilerplateTexts []string
}

var sources = map[types.SourceName]Source{
	types.SourceLawphil: {
		Name:    types.SourceLawphil,
		BaseURL: "https://lawphil.net",
		IndexPaths: map[types.DocumentType]string{
			types.DocRepublicAct:        "/statutes/repacts/repacts.html",
			types.DocCommonwealthAct:    "/statutes/comacts/comacts.html",
			types.DocAct:                "/statutes/acts/acts.html",
			types.DocBatasPambansa:      "/statutes/bataspam/bataspam.html",
			types.DocPresidentialDecree: "/executive/presdecs/presdecs.html",
			types.DocExecutiveOrder:     "/executive/execord/execord.html",
			types.DocProclamation:       "/executive/proc/proc.html",
		},
		IndexSelector: "table#s-menu",
		BoilerplateTexts: []string{
			"the lawphil project",
			"arellano law foundation",
			"philippine laws and jurisprudence databank",
			"back to main",
			"all rights reserved",
		},
	},
	types.SourceSCELibrary: {
		Name:    types.SourceSCELibrary,
		BaseURL: "https://elibrary.judiciary.gov.ph",
		IndexPaths: map[types.DocumentType]string{
			types.DocRepublicAct:        "/thebookshelf/docmonth/Republic%20Acts",
			types.DocPresidentialDecree: "/thebookshelf/docmonth/Presidential%20Decrees",
			types.DocExecutiveOrder:     "/thebookshelf/docmonth/Executive%20Orders",
			types.DocDecision:           "/thebookshelf/docmonth/Jur",
			types.DocResolution:         "/thebookshelf/docmonth/Res",
		},
		IndexSelector:    "div#container_date",
		SubIndexSelector: "div#container_title",
		BoilerplateTexts: []string{
			"supreme court e-library",
			"information at your fingertips",
			"all rights reserved",
			"back to top",
		},
	},
}

// boilerplateAttrKeywords flag elements whose id or class marks them as page
// furniture regardless of source.
var boilerplateAttrKeywords = []string{
	"nav", "menu", "footer", "header", "sidebar", "banner",
	"breadcrumb", "copyright", "search", "social",
}

// SourceByName resolves a source identifier to its registration.
func SourceByName(name types.SourceName) (Source, error) {
	src, ok := sources[name]
	if !ok {
		return Source{}, fmt.Errorf("unknown source %q", name)
	}
	return src, nil
}

// IndexURL returns the absolute index page URL for a document type, or an
// error when the source does not publish that type. The check happens before
// any network traffic.
func (s Source) IndexURL(docType types.DocumentType) (string, error) {
	path, ok := s.IndexPaths[docType]
	if !ok {
		return "", fmt.Errorf("source %s does not index document type %s", s.Name, docType)
	}
	return s.BaseURL + path, nil
}

// SupportedTypes lists the document types this source indexes.
func (s Source) SupportedTypes() []types.DocumentType {
	out := make([]types.DocumentType, 0, len(s.IndexPaths))
	for dt := range s.IndexPaths {
		out = append(out, dt)
	}
	return out
}

// InDomain reports whether rawURL points into this source's site. Crawls
// never follow links off the publisher's host.
func (s Source) InDomain(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	base, err := url.Parse(s.BaseURL)
	if err != nil {
		return false
	}
	return normalizeHost(u.Hostname()) == normalizeHost(base.Hostname())
}

func normalizeHost(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}

// IsBoilerplateText reports whether text is publisher furniture rather than
// document content.
func (s Source) IsBoilerplateText(text string) bool {
	lower := strings.ToLower(text)
	for _, frag := range s.BoilerplateTexts {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}

// IsBoilerplateAttr reports whether an element's id or class value marks it
// as navigation, chrome or credits.
func IsBoilerplateAttr(attr string) bool {
	lower := strings.ToLower(attr)
	for _, kw := range boilerplateAttrKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
