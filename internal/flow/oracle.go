package flow

import (
	"context"

	"github.com/credvita/loanassist/internal/models"
)

// IntentClassifier maps a user utterance plus conversation history to a
// coarse intent. Any error is handled by the controller failing open to
// models.IntentAskRAG.
type IntentClassifier interface {
	DetectIntent(ctx context.Context, text string, history []models.Turn) (models.Intent, error)
}

// FieldClassifier decides whether an utterance is the awaited field value or
// something else. On error the controller falls back to a deterministic
// heuristic.
type FieldClassifier interface {
	ClassifyField(ctx context.Context, text string, field models.Field) (models.Classification, error)
}

// KnowledgeOracle retrieves policy context for a query. Implementations must
// never fail to the core: on trouble they return a sentinel "unavailable"
// string instead.
type KnowledgeOracle interface {
	RetrieveContext(ctx context.Context, query string) string
}

// AnswerGenerator produces a grounded answer for a query and retrieved
// context. It must not append its own follow-up prompt; the controller owns
// the fixed follow-ups.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, query, contextText string) (string, error)
}
