// Package genai provides the OpenAI-backed classifier and answer oracles
// consumed by the flow controller.
//
// Every operation here is fallible by contract; call sites fail open to
// deterministic fallbacks, so errors from this package never surface to the
// customer directly.
package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/credvita/loanassist/internal/models"
)

// UnavailableContext is the sentinel the knowledge oracle returns when the
// policy corpus cannot be reached. It is safe to feed to the answer generator.
const UnavailableContext = "No policy context is available right now."

const personaPrompt = `You are a professional, helpful, and polite home-loan assistant for a retail bank.
Your primary purpose is to assist users with home loan queries.

STRICT RULES:
- ONLY answer home loan questions. Reject credit card, savings, MF, insurance queries.
- No financial advice. Only factual answers.
- Regulator-compliant, no misleading statements.
- Respect user data privacy.`

// Opts holds configuration options for the GenAI client.
type Opts struct {
	APIKey string
	Model  string
}

// Option defines a configuration option for the GenAI client.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithModel overrides the chat model used for classification and answers.
func WithModel(model string) Option {
	return func(o *Opts) { o.Model = model }
}

// Client wraps the OpenAI chat completion API for intent detection, field
// classification and grounded answer generation.
type Client struct {
	client openai.Client
	model  string
}

// NewClient initializes a new GenAI client, falling back to the
// OPENAI_API_KEY environment variable when no key option is given.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	if cfg.Model == "" {
		cfg.Model = openai.ChatModelGPT4oMini
	}
	return &Client{
		client: openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:  cfg.Model,
	}, nil
}

// complete runs a single system+user chat completion and returns the text.
func (c *Client) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// parseIntentJSON extracts {"intent": "..."} from possibly dirty model output.
func parseIntentJSON(output string) (models.Intent, error) {
	match := jsonObjectRe.FindString(output)
	if match == "" {
		return "", fmt.Errorf("no JSON object found in classifier output")
	}
	var payload struct {
		Intent string `json:"intent"`
	}
	if err := json.Unmarshal([]byte(match), &payload); err != nil {
		return "", fmt.Errorf("failed to decode classifier output: %w", err)
	}
	if payload.Intent == "" {
		return "", fmt.Errorf("classifier output missing intent")
	}
	return models.Intent(payload.Intent), nil
}

// DetectIntent classifies the latest user query against the conversation
// history into one coarse intent.
func (c *Client) DetectIntent(ctx context.Context, text string, history []models.Turn) (models.Intent, error) {
	var sb strings.Builder
	for _, turn := range history {
		sb.WriteString(turn.Role)
		sb.WriteString(": ")
		sb.WriteString(turn.Content)
		sb.WriteString("\n")
	}

	system := personaPrompt + `

You are the Intent Classifier. Analyze the conversation history and the
user's latest query and classify it into ONE of these intents:
start_emi, start_eligibility, ask_rag, greeting, affirmative, negative.

Respond with ONLY a single JSON object, no explanation.
Example Response: {"intent": "start_emi"}`

	user := fmt.Sprintf("Conversation History:\n%s\nLatest Query:\n%q\n\nJSON Output:", sb.String(), text)

	raw, err := c.complete(ctx, system, user)
	if err != nil {
		slog.Warn("genai.DetectIntent: completion failed", "error", err)
		return "", err
	}
	intent, err := parseIntentJSON(raw)
	if err != nil {
		slog.Warn("genai.DetectIntent: unparseable output", "error", err, "raw", raw)
		return "", err
	}
	slog.Debug("genai.DetectIntent: classified", "intent", intent)
	return intent, nil
}

// ClassifyField decides whether the user message is the awaited field value
// or an unrelated utterance.
func (c *Client) ClassifyField(ctx context.Context, text string, field models.Field) (models.Classification, error) {
	system := fmt.Sprintf(`You are an input classifier for a home loan conversation.

The user is expected to provide: %s

Decide:
- If the user message is ONLY giving the required value (like "50 lakhs", "20", "8.5%%", "5000000"), respond ONLY with: value
- If the user message is asking any other question (even if it contains a number), respond ONLY with: other

Output ONLY one word: value or other`, field)

	raw, err := c.complete(ctx, system, fmt.Sprintf("User message: %q", text))
	if err != nil {
		slog.Warn("genai.ClassifyField: completion failed", "field", field, "error", err)
		return "", err
	}
	if strings.Contains(strings.ToLower(strings.TrimSpace(raw)), "value") {
		return models.ClassificationValue, nil
	}
	return models.ClassificationOther, nil
}

// GenerateAnswer produces a short grounded policy answer for the query using
// the retrieved context. It must not append its own follow-up prompt; the
// flow controller owns that.
func (c *Client) GenerateAnswer(ctx context.Context, query, contextText string) (string, error) {
	system := personaPrompt + `

You are the policy answer generator.

RULES:
- ALWAYS answer the user's question in a helpful, factual manner.
- Keep the answer short (5-6 lines max).
- Do NOT add "Would you like to calculate your EMI?" or any other follow-up; the agent handles that separately.`

	user := fmt.Sprintf("Context:\n---\n%s\n---\n\nUser Question:\n%q\n\nYour Answer:", contextText, query)
	answer, err := c.complete(ctx, system, user)
	if err != nil {
		slog.Warn("genai.GenerateAnswer: completion failed", "error", err)
		return "", err
	}
	return strings.TrimSpace(answer), nil
}
