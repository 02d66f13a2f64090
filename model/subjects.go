package model

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

const (
	maxSubjects        = 5
	subjectContentSize = 2000

	subjectSystem = `You are a legal classification assistant for Philippine law.
Respond with a JSON array of short subject strings and nothing else.`
)

// legalSubjectKeywords backs the fallback classifier: a keyword found in the
// document text maps to a subject area.
var legalSubjectKeywords = map[string]string{
	"tax":           "Taxation",
	"revenue":       "Taxation",
	"customs":       "Taxation",
	"labor":         "Labor Law",
	"employment":    "Labor Law",
	"wage":          "Labor Law",
	"criminal":      "Criminal Law",
	"penal":         "Criminal Law",
	"penalty":       "Criminal Law",
	"election":      "Election Law",
	"suffrage":      "Election Law",
	"land":          "Property Law",
	"property":      "Property Law",
	"agrarian":      "Agrarian Reform",
	"education":     "Education",
	"school":        "Education",
	"health":        "Public Health",
	"hospital":      "Public Health",
	"environment":   "Environmental Law",
	"forest":        "Environmental Law",
	"water":         "Environmental Law",
	"bank":          "Banking and Finance",
	"currency":      "Banking and Finance",
	"insurance":     "Banking and Finance",
	"corporation":   "Corporate Law",
	"partnership":   "Corporate Law",
	"franchise":     "Public Utilities",
	"telecommunica": "Public Utilities",
	"transport":     "Transportation",
	"highway":       "Transportation",
	"marriage":      "Family Law",
	"family":        "Family Law",
	"adoption":      "Family Law",
	"military":      "National Defense",
	"defense":       "National Defense",
	"appropriat":    "Appropriations",
	"budget":        "Appropriations",
	"local government": "Local Government",
	"barangay":         "Local Government",
	"municipality":     "Local Government",
}

// SubjectExtractor tags documents with subject areas, asking the generation
// model first and falling back to keyword matching when the model is
// unavailable or answers garbage.
type SubjectExtractor struct {
	gen    Generator
	logger *slog.Logger
}

func NewSubjectExtractor(gen Generator, logger *slog.Logger) *SubjectExtractor {
	return &SubjectExtractor{gen: gen, logger: logger}
}

// Extract returns up to five subject strings for a document.
func (s *SubjectExtractor) Extract(ctx context.Context, title, content string) []string {
	if s.gen != nil {
		if subjects := s.fromModel(ctx, title, content); len(subjects) > 0 {
			return subjects
		}
	}
	return keywordSubjects(title + " " + content)
}

func (s *SubjectExtractor) fromModel(ctx context.Context, title, content string) []string {
	if len(content) > subjectContentSize {
		content = content[:subjectContentSize]
	}
	prompt := "Title: " + title + "\n\nText:\n" + content +
		"\n\nList the main legal subject areas of this document as a JSON array of strings, at most five."

	if count, err := countTokens(subjectSystem + prompt); err == nil {
		s.logger.Debug("subject extraction prompt built", "tokens", count)
	}

	resp, err := s.gen.Generate(ctx, subjectSystem, prompt)
	if err != nil {
		s.logger.Warn("subject extraction model call failed", "error", err)
		return nil
	}

	subjects := parseJSONArray(resp)
	if len(subjects) > maxSubjects {
		subjects = subjects[:maxSubjects]
	}
	return subjects
}

// parseJSONArray pulls the first JSON string array out of model output,
// tolerating prose around it.
func parseJSONArray(resp string) []string {
	start := strings.IndexByte(resp, '[')
	end := strings.LastIndexByte(resp, ']')
	if start < 0 || end <= start {
		return nil
	}

	var raw []string
	if err := json.Unmarshal([]byte(resp[start:end+1]), &raw); err != nil {
		return nil
	}

	var out []string
	for _, subject := range raw {
		subject = strings.TrimSpace(subject)
		if subject != "" {
			out = append(out, subject)
		}
	}
	return out
}

func keywordSubjects(text string) []string {
	lower := strings.ToLower(text)
	seen := make(map[string]bool)
	var out []string
	for keyword, subject := range legalSubjectKeywords {
		if seen[subject] || !strings.Contains(lower, keyword) {
			continue
		}
		seen[subject] = true
		out = append(out, subject)
	}
	sort.Strings(out)
	if len(out) > maxSubjects {
		out = out[:maxSubjects]
	}
	return out
}

func countTokens(data string) (int, error) {
	enc, err := tiktoken.EncodingForModel("gpt-3.5-turbo")
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(data, nil, nil)), nil
}
