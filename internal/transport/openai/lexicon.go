package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	"github.com/kailas-cloud/talentmatch/internal/domain/geo"
	"github.com/kailas-cloud/talentmatch/internal/metrics"
)

const (
	defaultMaxTerms = 8
	systemPrompt    = "You expand professional skill names for a recruiting matcher. " +
		"Reply with a JSON array of strings only: strict synonyms, spelling variants and " +
		"abbreviations of the given skill. Never include broader or related skills. " +
		"Reply with [] when there are none."
)

// Lexicon resolves related skill terms through an OpenAI-compatible chat completion API.
type Lexicon struct {
	client   *openai.Client
	model    string
	maxTerms int
	logger   *zap.Logger
}

// Config holds the lexical-relations provider settings.
type Config struct {
	APIKey   string
	BaseURL  string
	Model    string
	MaxTerms int
	Timeout  time.Duration
	Logger   *zap.Logger
}

// NewLexicon creates an OpenAI-compatible lexical-relations provider.
func NewLexicon(cfg *Config) *Lexicon {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	maxTerms := cfg.MaxTerms
	if maxTerms <= 0 {
		maxTerms = defaultMaxTerms
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Lexicon{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    cfg.Model,
		maxTerms: maxTerms,
		logger:   logger,
	}
}

// Related returns folded, deduplicated synonyms of term. The term itself is never included.
func (l *Lexicon) Related(ctx context.Context, term string) ([]string, error) {
	folded := geo.Fold(term)
	if folded == "" {
		return nil, nil
	}

	req := openai.ChatCompletionRequest{
		Model: l.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: term},
		},
		Temperature: 0,
	}

	start := time.Now()
	resp, err := l.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		metrics.LexiconRequestsTotal.WithLabelValues(l.model, "error").Inc()
		return nil, parseAPIError(err)
	}
	if len(resp.Choices) == 0 {
		metrics.LexiconRequestsTotal.WithLabelValues(l.model, "error").Inc()
		return nil, fmt.Errorf("empty completion response: %w", domain.ErrLexiconUnavailable)
	}

	terms, err := parseTerms(resp.Choices[0].Message.Content)
	if err != nil {
		metrics.LexiconRequestsTotal.WithLabelValues(l.model, "malformed").Inc()
		l.logger.Warn("Lexicon returned malformed content",
			zap.String("term", term), zap.Error(err))
		return nil, fmt.Errorf("parse completion: %v: %w", err, domain.ErrLexiconUnavailable)
	}

	metrics.LexiconRequestsTotal.WithLabelValues(l.model, "success").Inc()
	metrics.LexiconRequestDuration.WithLabelValues(l.model).Observe(duration.Seconds())

	return normalizeTerms(folded, terms, l.maxTerms), nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (l *Lexicon) HealthCheck(ctx context.Context) error {
	if _, err := l.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// parseTerms accepts a bare JSON array, optionally wrapped in a markdown code fence.
func parseTerms(content string) ([]string, error) {
	s := strings.TrimSpace(content)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	start, end := strings.Index(s, "["), strings.LastIndex(s, "]")
	if start < 0 || end < start {
		return nil, errors.New("no JSON array in content")
	}
	var terms []string
	if err := json.Unmarshal([]byte(s[start:end+1]), &terms); err != nil {
		return nil, err
	}
	return terms, nil
}

func normalizeTerms(self string, terms []string, limit int) []string {
	seen := map[string]struct{}{self: {}}
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		f := geo.Fold(t)
		if f == "" {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
		if len(out) == limit {
			break
		}
	}
	return out
}

// parseAPIError extracts a human-readable error from the API response.
// All errors wrap domain.ErrLexiconUnavailable; 429 additionally wraps domain.ErrRateLimited.
func parseAPIError(err error) error {
	wrap := domain.ErrLexiconUnavailable

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		body := extractDetail(reqErr.Body)
		if body == "" {
			body = string(reqErr.Body)
		}
		if reqErr.HTTPStatusCode == 429 {
			return fmt.Errorf("lexicon API error %d: %s: %w: %w",
				reqErr.HTTPStatusCode, body, domain.ErrRateLimited, wrap)
		}
		return fmt.Errorf("lexicon API error %d: %s: %w", reqErr.HTTPStatusCode, body, wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == 429 {
			return fmt.Errorf("lexicon API error %d: %s: %w: %w",
				apiErr.HTTPStatusCode, apiErr.Message, domain.ErrRateLimited, wrap)
		}
		return fmt.Errorf("lexicon API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("lexicon request failed: %w", wrap)
}

// extractDetail extracts the "detail" field from a JSON error body (Nebius error format).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
