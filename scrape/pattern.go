package scrape

import (
	"regexp"

	"openjuris/types"
)

// StatutePattern is the per-type configuration table the parser works from.
// The citation regexes and title prefixes are empirically tuned against the
// publishers' markup; treat them as data, not as a grammar.
type StatutePattern struct {
	DocType      types.DocumentType
	DisplayName  string
	Abbreviation string

	// Patterns locate the citation; the document number must be the second
	// capture group. Tried in order, first match wins.
	Patterns []*regexp.Regexp

	// TitlePrefixes mark where the long title starts after the citation.
	TitlePrefixes []string

	// DateFields names the semantic dates this type publishes.
	DateFields []string
}

var executivePrefixes = []string{
	"DECLARING", "PROCLAIMING", "PROVIDING", "DIRECTING", "CREATING",
	"ORDERING", "AMENDING", "PRESCRIBING", "ESTABLISHING", "INSTITUTING",
	"AUTHORIZING", "GRANTING", "FURTHER",
}

var statutePatterns = map[types.DocumentType]StatutePattern{
	types.DocRepublicAct: {
		DocType:      types.DocRepublicAct,
		DisplayName:  "Republic Act",
		Abbreviation: "RA",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(REPUBLIC\s+ACT)\s+(?:NO\.?\s*)?(\d+)`),
			regexp.MustCompile(`(?i)\b(R\.\s?A\.)\s+(?:NO\.?\s*)?(\d+)`),
		},
		TitlePrefixes: []string{"AN ACT"},
		DateFields:    []string{"approved", "effectivity"},
	},
	types.DocCommonwealthAct: {
		DocType:      types.DocCommonwealthAct,
		DisplayName:  "Commonwealth Act",
		Abbreviation: "CA",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(COMMONWEALTH\s+ACT)\s+(?:NO\.?\s*)?(\d+)`),
			regexp.MustCompile(`(?i)\b(C\.\s?A\.)\s+NO\.?\s*(\d+)`),
		},
		TitlePrefixes: []string{"AN ACT"},
		DateFields:    []string{"approved", "effectivity"},
	},
	types.DocAct: {
		DocType:      types.DocAct,
		DisplayName:  "Act",
		Abbreviation: "Act",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(ACT)\s+NO\.?\s*(\d+)`),
		},
		TitlePrefixes: []string{"AN ACT"},
		DateFields:    []string{"approved", "effectivity"},
	},
	types.DocBatasPambansa: {
		DocType:      types.DocBatasPambansa,
		DisplayName:  "Batas Pambansa",
		Abbreviation: "BP",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(BATAS\s+PAMBANSA)\s+(?:BLG\.?\s*|BILANG\s+|NO\.?\s*)?(\d+)`),
			regexp.MustCompile(`(?i)\b(B\.\s?P\.)\s+(?:BLG\.?\s*|NO\.?\s*)?(\d+)`),
		},
		TitlePrefixes: []string{"AN ACT"},
		DateFields:    []string{"approved", "effectivity"},
	},
	types.DocPresidentialDecree: {
		DocType:      types.DocPresidentialDecree,
		DisplayName:  "Presidential Decree",
		Abbreviation: "PD",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(PRESIDENTIAL\s+DECREE)\s+(?:NO\.?\s*)?(\d+)`),
			regexp.MustCompile(`(?i)\b(P\.\s?D\.)\s+NO\.?\s*(\d+)`),
		},
		TitlePrefixes: executivePrefixes,
		DateFields:    []string{"promulgated", "effectivity"},
	},
	types.DocExecutiveOrder: {
		DocType:      types.DocExecutiveOrder,
		DisplayName:  "Executive Order",
		Abbreviation: "EO",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(EXECUTIVE\s+ORDER)\s+(?:NO\.?\s*)?(\d+)`),
			regexp.MustCompile(`(?i)\b(E\.\s?O\.)\s+NO\.?\s*(\d+)`),
		},
		TitlePrefixes: executivePrefixes,
		DateFields:    []string{"promulgated", "effectivity"},
	},
	types.DocAdministrativeOrder: {
		DocType:      types.DocAdministrativeOrder,
		DisplayName:  "Administrative Order",
		Abbreviation: "AO",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(ADMINISTRATIVE\s+ORDER)\s+(?:NO\.?\s*)?(\d+)`),
		},
		TitlePrefixes: executivePrefixes,
		DateFields:    []string{"promulgated", "effectivity"},
	},
	types.DocMemorandumOrder: {
		DocType:      types.DocMemorandumOrder,
		DisplayName:  "Memorandum Order",
		Abbreviation: "MO",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(MEMORANDUM\s+ORDER)\s+(?:NO\.?\s*)?(\d+)`),
		},
		TitlePrefixes: executivePrefixes,
		DateFields:    []string{"promulgated", "effectivity"},
	},
	types.DocMemorandumCircular: {
		DocType:      types.DocMemorandumCircular,
		DisplayName:  "Memorandum Circular",
		Abbreviation: "MC",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(MEMORANDUM\s+CIRCULAR)\s+(?:NO\.?\s*)?(\d+)`),
		},
		TitlePrefixes: executivePrefixes,
		DateFields:    []string{"promulgated", "effectivity"},
	},
	types.DocProclamation: {
		DocType:      types.DocProclamation,
		DisplayName:  "Proclamation",
		Abbreviation: "Proc",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(PROCLAMATION)\s+(?:NO\.?\s*)?(\d+)`),
		},
		TitlePrefixes: executivePrefixes,
		DateFields:    []string{"promulgated", "effectivity"},
	},
	types.DocGeneralOrder: {
		DocType:      types.DocGeneralOrder,
		DisplayName:  "General Order",
		Abbreviation: "GO",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(GENERAL\s+ORDER)\s+(?:NO\.?\s*)?(\d+)`),
		},
		TitlePrefixes: executivePrefixes,
		DateFields:    []string{"promulgated", "effectivity"},
	},
}

// PatternFor returns the citation pattern table for a document type.
func PatternFor(docType types.DocumentType) (StatutePattern, bool) {
	p, ok := statutePatterns[docType]
	return p, ok
}
