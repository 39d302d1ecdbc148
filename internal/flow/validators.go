package flow

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/credvita/loanassist/internal/models"
)

// Deterministic validation patterns for collected identity fields.
var (
	dobRe   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	pinRe   = regexp.MustCompile(`^\d{6}$`)
	phoneRe = regexp.MustCompile(`^\d{10}$`)
	emailRe = regexp.MustCompile(`^[\w.\-]+@[\w.\-]+\.\w+$`)

	// bareValueRe matches an utterance that is nothing but a number with an
	// optional known unit word. Used when the classifier oracle is down.
	bareValueRe = regexp.MustCompile(`^\s*-?[\d.,]+\s*(lakh|lakhs|lac|lacs|cr|crore|k|years|yrs|%)?\s*$`)
)

// zeroExpensePhrases are accepted as a literal zero for the expense field.
var zeroExpensePhrases = map[string]bool{
	"0":           true,
	"none":        true,
	"no expenses": true,
}

// questionStarts are leading words that mark an utterance as a question even
// without a trailing question mark.
var questionStarts = []string{"how", "what", "why", "when", "where", "tell", "give", "explain"}

// isQuestion reports whether the utterance reads as a question rather than an
// answer to the pending field.
func isQuestion(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	if strings.HasSuffix(t, "?") {
		return true
	}
	for _, w := range questionStarts {
		if strings.HasPrefix(t, w) {
			return true
		}
	}
	return false
}

// classifyFallback is the deterministic value/other heuristic used when the
// oracle is unreachable. It is independent of the oracle and fully testable.
func classifyFallback(text string, field models.Field) models.Classification {
	t := strings.ToLower(text)
	if bareValueRe.MatchString(t) {
		return models.ClassificationValue
	}
	if field == models.FieldExpense && zeroExpensePhrases[strings.TrimSpace(t)] {
		return models.ClassificationValue
	}
	return models.ClassificationOther
}

// classifyFieldSafe asks the oracle for a value/other verdict and falls back
// to the deterministic heuristic on any oracle error.
func (c *Controller) classifyFieldSafe(ctx context.Context, text string, field models.Field) models.Classification {
	if c.fields != nil {
		verdict, err := c.fields.ClassifyField(ctx, text, field)
		if err == nil {
			return verdict
		}
		slog.Warn("Controller.classifyFieldSafe: oracle failed, using heuristic", "field", field, "error", err)
	}
	return classifyFallback(text, field)
}

// detectIntentSafe asks the intent classifier and fails open to ask_rag.
func (c *Controller) detectIntentSafe(ctx context.Context, text string, history []models.Turn) models.Intent {
	if c.intents == nil {
		return models.IntentAskRAG
	}
	intent, err := c.intents.DetectIntent(ctx, text, history)
	if err != nil {
		slog.Warn("Controller.detectIntentSafe: intent detection failed, defaulting to ask_rag", "error", err)
		return models.IntentAskRAG
	}
	return intent
}

// parseEmploymentType extracts the employment category from free text.
func parseEmploymentType(text string) (models.EmploymentType, bool) {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "salaried"):
		return models.EmploymentSalaried, true
	case strings.Contains(t, "self"):
		return models.EmploymentSelfEmployed, true
	default:
		return "", false
	}
}

// parseLoanType extracts the loan type from free text.
func parseLoanType(text string) (models.LoanType, bool) {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "fresh"):
		return models.LoanTypeFresh, true
	case strings.Contains(t, "balance"), strings.Contains(t, "transfer"):
		return models.LoanTypeBalanceTransfer, true
	default:
		return "", false
	}
}

// parseFullName accepts exactly two whitespace-separated tokens and returns
// them title-cased.
func parseFullName(text string) (string, bool) {
	parts := strings.Fields(text)
	if len(parts) != 2 {
		return "", false
	}
	for i, p := range parts {
		parts[i] = strings.ToUpper(p[:1]) + strings.ToLower(p[1:])
	}
	return strings.Join(parts, " "), true
}

// validDOB reports whether the text is a YYYY-MM-DD date string.
func validDOB(text string) bool { return dobRe.MatchString(strings.TrimSpace(text)) }

// validPinCode reports whether the text is exactly six digits.
func validPinCode(text string) bool { return pinRe.MatchString(strings.TrimSpace(text)) }

// validPhone reports whether the text is exactly ten digits.
func validPhone(text string) bool { return phoneRe.MatchString(strings.TrimSpace(text)) }

// validEmail reports whether the text looks like an email address.
func validEmail(text string) bool { return emailRe.MatchString(strings.TrimSpace(text)) }
