package types

import (
	"time"

	"github.com/google/uuid"
)

// DocumentCategory is the coarse classification of a legal document.
type DocumentCategory string

const (
	CategoryConstitution  DocumentCategory = "Constitution"
	CategoryStatute       DocumentCategory = "Statute"
	CategoryExecutive     DocumentCategory = "Executive"
	CategoryJurisprudence DocumentCategory = "Jurisprudence"
)

// DocumentType is the fine-grained document subtype as published.
type DocumentType string

const (
	DocConstitution DocumentType = "Constitution"

	// Legislative acts, newest regime first.
	DocRepublicAct     DocumentType = "Republic Act"
	DocBatasPambansa   DocumentType = "Batas Pambansa"
	DocCommonwealthAct DocumentType = "Commonwealth Act"
	DocAct             DocumentType = "Act"

	// Executive issuances.
	DocPresidentialDecree  DocumentType = "Presidential Decree"
	DocExecutiveOrder      DocumentType = "Executive Order"
	DocAdministrativeOrder DocumentType = "Administrative Order"
	DocMemorandumOrder     DocumentType = "Memorandum Order"
	DocMemorandumCircular  DocumentType = "Memorandum Circular"
	DocProclamation        DocumentType = "Proclamation"
	DocGeneralOrder        DocumentType = "General Order"

	// Jurisprudence.
	DocDecision   DocumentType = "Decision"
	DocResolution DocumentType = "Resolution"
)

// Category maps a document type to its category. Unknown types default to
// Statute, matching the most common case.
func (d DocumentType) Category() DocumentCategory {
	switch d {
	case DocConstitution:
		return CategoryConstitution
	case DocRepublicAct, DocBatasPambansa, DocCommonwealthAct, DocAct, DocPresidentialDecree:
		return CategoryStatute
	case DocExecutiveOrder, DocAdministrativeOrder, DocMemorandumOrder,
		DocMemorandumCircular, DocProclamation, DocGeneralOrder:
		return CategoryExecutive
	case DocDecision, DocResolution:
		return CategoryJurisprudence
	default:
		return CategoryStatute
	}
}

// ParseDocumentType resolves the published name of a document type.
func ParseDocumentType(s string) (DocumentType, bool) {
	switch DocumentType(s) {
	case DocConstitution, DocRepublicAct, DocBatasPambansa, DocCommonwealthAct, DocAct,
		DocPresidentialDecree, DocExecutiveOrder, DocAdministrativeOrder, DocMemorandumOrder,
		DocMemorandumCircular, DocProclamation, DocGeneralOrder, DocDecision, DocResolution:
		return DocumentType(s), true
	default:
		return "", false
	}
}

// SourceName identifies a supported publisher.
type SourceName string

const (
	SourceLawphil    SourceName = "lawphil"
	SourceSCELibrary SourceName = "sc_elibrary"
)

// SectionType classifies one node of a document's structural tree.
type SectionType string

const (
	SectionPreamble       SectionType = "preamble"
	SectionEnactingClause SectionType = "enacting_clause"
	SectionTitle          SectionType = "title"

	SectionArticle    SectionType = "article"
	SectionSection    SectionType = "section"
	SectionSubsection SectionType = "subsection"
	SectionParagraph  SectionType = "paragraph"

	SectionSyllabus    SectionType = "syllabus"
	SectionFacts       SectionType = "facts"
	SectionIssues      SectionType = "issues"
	SectionRuling      SectionType = "ruling"
	SectionDispositive SectionType = "dispositive"
	SectionConcurring  SectionType = "concurring"
	SectionDissenting  SectionType = "dissenting"

	SectionBody     SectionType = "body"
	SectionTable    SectionType = "table"
	SectionFootnote SectionType = "footnote"
	SectionAnnex    SectionType = "annex"
)

// ScrapedPart is one node in a document's structural tree. SortOrder is
// assigned during parsing and is strictly increasing in pre-order document
// traversal; parts are never mutated after the parse completes.
type ScrapedPart struct {
	SectionType     SectionType
	Label           string
	ContentText     string
	ContentMarkdown string
	// ContentHTML holds the original markup, retained only for tables so the
	// lossy Markdown table rendering can be reversed.
	ContentHTML string
	SortOrder   int
	Children    []*ScrapedPart
}

// ScrapedDocument is one parsed source publication. Produced once per
// successful parse and immutable afterwards.
type ScrapedDocument struct {
	CanonicalCitation string
	Title             string
	ShortTitle        string
	Category          DocumentCategory
	DocType           DocumentType
	SourceURL         string

	DatePromulgated *time.Time
	DatePublished   *time.Time
	DateEffectivity *time.Time

	Metadata map[string]string
	Parts    []*ScrapedPart

	// ContentMarkdown is the full canonical Markdown rendering of the
	// document, attached by the parser via the tree transformer.
	ContentMarkdown string
}

// TextChunk is a bounded span of text prepared for embedding. Offsets refer
// to the whitespace-normalized source text.
type TextChunk struct {
	Content      string `json:"content"`
	Index        int    `json:"index"`
	StartChar    int    `json:"start_char"`
	EndChar      int    `json:"end_char"`
	SectionTitle string `json:"section_title,omitempty"`
}

// RankedChunk is one similarity-search result, similarity in [0,1].
type RankedChunk struct {
	ID           uuid.UUID `json:"id"`
	DocumentID   uuid.UUID `json:"document_id"`
	ChunkIndex   int       `json:"chunk_index"`
	Content      string    `json:"content"`
	SectionTitle string    `json:"section_title,omitempty"`
	Similarity   float64   `json:"similarity"`
}
