// This file implements the policy-document retriever behind the knowledge
// oracle. It scores document sections by keyword overlap with the query and
// returns the best few as grounding context for the answer generator.
package genai

import (
	"context"
	"log/slog"
	"os"
	"regexp"
	"sort"
	"strings"
)

// maxContextSections caps how many document sections feed one answer.
const maxContextSections = 3

var (
	sectionSplitRe = regexp.MustCompile(`\n\s*\n`)
	wordRe         = regexp.MustCompile(`[a-zA-Z]{3,}`)
)

// stopwords are excluded from overlap scoring.
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "with": true,
	"this": true, "that": true, "you": true, "your": true, "what": true,
	"how": true, "can": true, "will": true, "about": true, "have": true,
}

// Retriever serves policy context from a plain-text or markdown document
// loaded at startup.
type Retriever struct {
	sections []string
	index    []map[string]int // per-section term frequencies
}

// NewRetriever loads and indexes the policy document at path.
func NewRetriever(path string) (*Retriever, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Error("NewRetriever: failed to read policy document", "error", err, "path", path)
		return nil, err
	}
	r := NewRetrieverFromText(string(data))
	slog.Info("NewRetriever: policy document indexed", "path", path, "sections", len(r.sections))
	return r, nil
}

// NewRetrieverFromText indexes an in-memory policy document.
func NewRetrieverFromText(text string) *Retriever {
	var r Retriever
	for _, section := range sectionSplitRe.Split(text, -1) {
		section = strings.TrimSpace(section)
		if section == "" {
			continue
		}
		r.sections = append(r.sections, section)
		r.index = append(r.index, termFrequencies(section))
	}
	return &r
}

// RetrieveContext returns the sections most relevant to the query, joined
// into one grounding block. It never fails: with no document or no overlap
// it returns the unavailable sentinel.
func (r *Retriever) RetrieveContext(_ context.Context, query string) string {
	if r == nil || len(r.sections) == 0 {
		return UnavailableContext
	}

	queryTerms := termFrequencies(query)
	if len(queryTerms) == 0 {
		return UnavailableContext
	}

	type scored struct {
		idx   int
		score int
	}
	var hits []scored
	for i, freqs := range r.index {
		score := 0
		for term := range queryTerms {
			score += freqs[term]
		}
		if score > 0 {
			hits = append(hits, scored{idx: i, score: score})
		}
	}
	if len(hits) == 0 {
		return UnavailableContext
	}

	sort.SliceStable(hits, func(a, b int) bool { return hits[a].score > hits[b].score })
	if len(hits) > maxContextSections {
		hits = hits[:maxContextSections]
	}

	parts := make([]string, len(hits))
	for i, h := range hits {
		parts[i] = r.sections[h.idx]
	}
	slog.Debug("Retriever.RetrieveContext: sections selected", "count", len(parts))
	return strings.Join(parts, "\n\n")
}

// termFrequencies tokenizes text into lowercase terms and counts them.
func termFrequencies(text string) map[string]int {
	freqs := make(map[string]int)
	for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
		if stopwords[w] {
			continue
		}
		freqs[w]++
	}
	return freqs
}
