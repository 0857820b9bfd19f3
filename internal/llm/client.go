// Package llm asks an OpenAI-compatible chat model (Groq by default) for the
// characters, language and plot of a book.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jeancds29/gutenberg-back/internal/library"
)

const tracerName = "github.com/jeancds29/gutenberg-back/internal/llm"

// Config configures the chat completion endpoint.
type Config struct {
	APIKey            string
	BaseURL           string
	Model             string
	Timeout           time.Duration
	RequestsPerMinute int
}

// Generator is the slice of llms.Model the client needs.
type Generator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// Client implements library.Analyzer.
type Client struct {
	gen     Generator
	limiter *rate.Limiter
	logger  *zap.Logger
}

var _ library.Analyzer = (*Client)(nil)

// New builds a Client backed by langchaingo's OpenAI driver.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm api key is required (GROQ_API_KEY)")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}
	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
		openai.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create llm client: %w", err)
	}
	return NewWithGenerator(model, cfg.RequestsPerMinute, logger), nil
}

// NewWithGenerator wraps an existing generator. requestsPerMinute <= 0
// disables client-side throttling.
func NewWithGenerator(gen Generator, requestsPerMinute int, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{gen: gen, logger: logger.Named("llm")}
	if requestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), requestsPerMinute)
	}
	return c
}

// Analyze sends the book's text sample for kind and returns the extracted
// JSON document. The document is not validated here.
func (c *Client) Analyze(ctx context.Context, kind library.Kind, book library.Book) ([]byte, error) {
	t, ok := tasks[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", library.ErrInvalidKind, kind)
	}
	ctx, span := otel.Tracer(tracerName).Start(ctx, "llm.Analyze",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("analysis.kind", string(kind)),
			attribute.String("book.id", book.CatalogID),
		),
	)
	defer span.End()
	fail := func(err error) ([]byte, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fail(fmt.Errorf("%w: wait for llm quota: %w", library.ErrUpstream, err))
		}
	}

	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, t.system),
		llms.TextParts(schema.ChatMessageTypeHuman, t.prompt(book, sample(book.Content, t.sampleChars))),
	}
	c.logger.Info("sending analysis request",
		zap.String("kind", string(kind)),
		zap.String("book_id", book.CatalogID),
		zap.String("title", book.Title),
	)
	resp, err := c.gen.GenerateContent(ctx, messages,
		llms.WithTemperature(t.temperature),
		llms.WithMaxTokens(t.maxTokens),
	)
	if err != nil {
		return fail(fmt.Errorf("%w: chat completion: %w", library.ErrUpstream, err))
	}
	if resp == nil || len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Content) == "" {
		return fail(fmt.Errorf("%w: empty chat completion", library.ErrUpstream))
	}

	reply := resp.Choices[0].Content
	span.SetAttributes(attribute.Int("llm.response.length", len(reply)))
	c.logger.Debug("received analysis response",
		zap.String("kind", string(kind)),
		zap.Int("length", len(reply)),
	)
	return []byte(ExtractJSON(reply)), nil
}
