package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScrapeParamsValidation(t *testing.T) {
	params := &ScrapeParams{
		URL:          "https://lawphil.net/ra5.html",
		Source:       "lawphil",
		DocumentType: "Republic Act",
	}
	assert.Empty(t, params.Validate())

	bad := &ScrapeParams{URL: "not a url", Source: "lawphil"}
	errs := bad.Validate()
	assert.Contains(t, errs, "URL")
	assert.Contains(t, errs, "DocumentType")
}

func TestSearchParamsValidation(t *testing.T) {
	ok := &SearchParams{Query: "tax", Limit: 10, Threshold: 0.5}
	assert.Empty(t, ok.Validate())

	assert.Contains(t, (&SearchParams{Query: "tax", Limit: 101}).Validate(), "Limit")
	assert.Contains(t, (&SearchParams{Query: "tax", Threshold: 1.5}).Validate(), "Threshold")
	assert.Contains(t, (&SearchParams{Query: "tax", DocumentID: "nope"}).Validate(), "DocumentID")
	assert.Contains(t, (&SearchParams{}).Validate(), "Query")
}

func TestParseDocumentType(t *testing.T) {
	dt, ok := ParseDocumentType("Republic Act")
	assert.True(t, ok)
	assert.Equal(t, DocRepublicAct, dt)

	_, ok = ParseDocumentType("House Bill")
	assert.False(t, ok)
}

func TestDocumentTypeCategory(t *testing.T) {
	assert.Equal(t, CategoryStatute, DocRepublicAct.Category())
	assert.Equal(t, CategoryStatute, DocPresidentialDecree.Category())
	assert.Equal(t, CategoryExecutive, DocProclamation.Category())
	assert.Equal(t, CategoryJurisprudence, DocDecision.Category())
	assert.Equal(t, CategoryConstitution, DocConstitution.Category())
}
