// Package chat implements the conversational turn handler: condense
// an ambiguous follow-up into a standalone query, retrieve relevant
// knowledge fragments, and generate an answer conditioned on both the
// fragments and the session's memory.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"
)

// Sentinel errors for chat operations.
var (
	// ErrGenerationFailed indicates the model or retrieval call failed.
	// The user turn recorded before the failure is kept in memory: a
	// failed attempt still consumes conversational context.
	ErrGenerationFailed = errors.New("generation failed")
)

const (
	// DefaultAskTimeout bounds one full conversational turn.
	DefaultAskTimeout = 60 * time.Second

	// retrievalTimeout limits the knowledge search within a turn so a
	// slow similarity query cannot eat the whole ask budget.
	retrievalTimeout = 10 * time.Second

	// fallbackResponse is returned when the model produces an empty answer.
	fallbackResponse = "I apologize, but I couldn't generate a response. Please try rephrasing your question."
)

// condensePrompt rewrites a context-dependent follow-up into a
// standalone question before retrieval.
const condensePrompt = `Given the following conversation between a user and an assistant, and a follow up message from the user, rewrite the follow up message to be a standalone question that captures all relevant context from the conversation.

Conversation:
%s

Follow up message: %s

Standalone question:`

// answerSystem is the system prompt for answer generation.
const answerSystem = `You are Zolve, a personal financial guide. Answer the user's question using the provided context documents and the conversation so far. If the context does not contain the answer, say so honestly instead of inventing one.`

// generateFunc abstracts the model call so tests can stub it.
type generateFunc func(ctx context.Context, opts ...ai.GenerateOption) (*ai.ModelResponse, error)

// retrieveFunc abstracts the retriever call so tests can stub it.
type retrieveFunc func(ctx context.Context, req *ai.RetrieverRequest) (*ai.RetrieverResponse, error)

// Config contains all required parameters for the chat Engine.
type Config struct {
	Genkit    *genkit.Genkit
	Retriever ai.Retriever
	Logger    *slog.Logger

	ModelName string // Provider-qualified model name (e.g. "googleai/gemini-2.5-flash")
	TopK      int    // Number of knowledge fragments retrieved per turn

	AskTimeout  time.Duration // Bound on one full turn (zero-value uses DefaultAskTimeout)
	RetryConfig RetryConfig   // LLM retry settings (zero-value uses defaults)
	RateLimiter *rate.Limiter // Optional: proactive rate limiting (nil = use default)
}

func (cfg Config) validate() error {
	if cfg.Genkit == nil {
		return errors.New("genkit instance is required")
	}
	if cfg.Retriever == nil {
		return errors.New("retriever is required")
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.ModelName == "" {
		return errors.New("model name is required")
	}
	return nil
}

// Engine answers one user message in the context of a session's memory.
//
// Engine is stateless across sessions: per-session state lives in
// Memory, which the caller passes to Ask. All configuration is captured
// immutably at construction, so a single Engine serves concurrent
// sessions safely.
type Engine struct {
	modelName  string
	topK       int
	askTimeout time.Duration

	retryConfig RetryConfig
	rateLimiter *rate.Limiter

	logger   *slog.Logger
	generate generateFunc
	retrieve retrieveFunc
}

// New creates an Engine from the given configuration.
func New(cfg Config) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	topK := cfg.TopK
	if topK <= 0 {
		topK = 3
	}

	askTimeout := cfg.AskTimeout
	if askTimeout <= 0 {
		askTimeout = DefaultAskTimeout
	}

	retryConfig := cfg.RetryConfig
	if retryConfig.MaxRetries == 0 {
		retryConfig = DefaultRetryConfig()
	}

	// Default: 10 requests/sec sustained, burst of 30
	rl := cfg.RateLimiter
	if rl == nil {
		rl = rate.NewLimiter(10, 30)
	}

	g := cfg.Genkit
	e := &Engine{
		modelName:   cfg.ModelName,
		topK:        topK,
		askTimeout:  askTimeout,
		retryConfig: retryConfig,
		rateLimiter: rl,
		logger:      cfg.Logger,
		generate: func(ctx context.Context, opts ...ai.GenerateOption) (*ai.ModelResponse, error) {
			return genkit.Generate(ctx, g, opts...)
		},
		retrieve: cfg.Retriever.Retrieve,
	}

	e.logger.Info("chat engine initialized", "model", e.modelName, "top_k", e.topK)
	return e, nil
}

// Ask answers one user message in the context of mem.
//
// The user turn is appended to mem before the model is consulted and is
// NOT rolled back on failure. The assistant turn is appended only on
// success. Any model or retrieval failure is returned wrapped in
// ErrGenerationFailed. The whole turn is bounded by the configured ask
// timeout.
func (e *Engine) Ask(ctx context.Context, mem *Memory, input string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.askTimeout)
	defer cancel()

	// Condensation uses the memory as it stood before this turn.
	history := mem.Messages()
	mem.AddUser(input)

	condensed, err := e.condense(ctx, history, input)
	if err != nil {
		return "", fmt.Errorf("%w: condensing question: %w", ErrGenerationFailed, err)
	}

	docs, err := e.retrieveContext(ctx, condensed)
	if err != nil {
		return "", fmt.Errorf("%w: retrieving context: %w", ErrGenerationFailed, err)
	}

	answer, err := e.answer(ctx, history, input, docs)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	mem.AddAssistant(answer)
	return answer, nil
}

// condense rewrites input into a standalone question using the prior
// conversation. With no history the raw input already stands alone.
func (e *Engine) condense(ctx context.Context, history []*ai.Message, input string) (string, error) {
	if len(history) == 0 {
		return input, nil
	}

	resp, err := e.generateWithRetry(ctx, []ai.GenerateOption{
		ai.WithModelName(e.modelName),
		ai.WithPrompt(condensePrompt, renderTranscript(history), input),
	})
	if err != nil {
		return "", err
	}

	condensed := strings.TrimSpace(resp.Text())
	if condensed == "" {
		// An empty rewrite is not fatal; fall back to the raw input.
		e.logger.Warn("condense produced empty question, using raw input")
		return input, nil
	}

	e.logger.Debug("condensed question",
		"input_length", len(input),
		"condensed_length", len(condensed),
	)
	return condensed, nil
}

// retrieveContext fetches the topK most relevant knowledge fragments
// for the condensed query.
func (e *Engine) retrieveContext(ctx context.Context, query string) ([]*ai.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, retrievalTimeout)
	defer cancel()

	resp, err := e.retrieve(ctx, &ai.RetrieverRequest{
		Query:   ai.DocumentFromText(query, nil),
		Options: map[string]any{"k": e.topK},
	})
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	return resp.Documents, nil
}

// answer generates the assistant reply conditioned on the retrieved
// documents and the conversation so far.
func (e *Engine) answer(ctx context.Context, history []*ai.Message, input string, docs []*ai.Document) (string, error) {
	// Deep copy: Genkit mutates message content in-place during
	// rendering, so concurrent turns must not share message objects.
	messages := deepCopyMessages(history)
	messages = append(messages, ai.NewUserMessage(ai.NewTextPart(input)))

	opts := []ai.GenerateOption{
		ai.WithModelName(e.modelName),
		ai.WithSystem(answerSystem),
		ai.WithMessages(messages...),
	}
	if len(docs) > 0 {
		opts = append(opts, ai.WithDocs(docs...))
	}

	resp, err := e.generateWithRetry(ctx, opts)
	if err != nil {
		return "", err
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		e.logger.Warn("model returned empty answer")
		return fallbackResponse, nil
	}
	return text, nil
}

// renderTranscript flattens history into a plain-text conversation for
// the condense prompt.
func renderTranscript(history []*ai.Message) string {
	var b strings.Builder
	for _, msg := range history {
		switch msg.Role {
		case ai.RoleUser:
			b.WriteString("User: ")
		case ai.RoleModel:
			b.WriteString("Assistant: ")
		default:
			continue
		}
		for _, part := range msg.Content {
			b.WriteString(part.Text)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// deepCopyMessages copies messages and their content slices.
func deepCopyMessages(msgs []*ai.Message) []*ai.Message {
	cp := make([]*ai.Message, len(msgs))
	for i, msg := range msgs {
		content := make([]*ai.Part, len(msg.Content))
		for j, part := range msg.Content {
			p := *part
			content[j] = &p
		}
		m := *msg
		m.Content = content
		cp[i] = &m
	}
	return cp
}
