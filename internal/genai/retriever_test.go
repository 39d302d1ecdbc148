package genai

import (
	"context"
	"strings"
	"testing"
)

const samplePolicy = `Processing Fees
A processing fee of 0.5% of the loan amount applies to all fresh home loans.

Prepayment
Floating-rate home loans carry no prepayment penalty. Fixed-rate loans may
attract a charge of up to 2% of the outstanding principal.

Balance Transfer
Existing home loans from other lenders can be transferred. The remaining
tenure and outstanding principal carry over.`

func TestRetrieverSelectsRelevantSection(t *testing.T) {
	r := NewRetrieverFromText(samplePolicy)

	got := r.RetrieveContext(context.Background(), "what is the prepayment penalty?")
	if !strings.Contains(got, "prepayment penalty") {
		t.Errorf("expected prepayment section, got %q", got)
	}

	got = r.RetrieveContext(context.Background(), "tell me about processing fees")
	if !strings.Contains(got, "processing fee") {
		t.Errorf("expected fees section, got %q", got)
	}
}

func TestRetrieverFallsBackToSentinel(t *testing.T) {
	r := NewRetrieverFromText(samplePolicy)

	if got := r.RetrieveContext(context.Background(), "xyzzy quux"); got != UnavailableContext {
		t.Errorf("no-overlap query must return the sentinel, got %q", got)
	}
	if got := r.RetrieveContext(context.Background(), ""); got != UnavailableContext {
		t.Errorf("empty query must return the sentinel, got %q", got)
	}

	var empty *Retriever
	if got := empty.RetrieveContext(context.Background(), "fees"); got != UnavailableContext {
		t.Errorf("nil retriever must return the sentinel, got %q", got)
	}
}
