// Package llm wraps the OpenAI-compatible chat API into a single-attempt
// repo classifier. It builds the prompt from the repo descriptor and the
// category taxonomy, extracts the JSON object from the model response and
// normalizes the returned category against the taxonomy. Retries are the
// caller's business; failures carry a retryable/permanent flag.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/umputun/starscope/pkg/config"
	"github.com/umputun/starscope/pkg/domain"
	"github.com/umputun/starscope/pkg/taxonomy"
)

// Client classifies repos using an LLM, one call per repo
type Client struct {
	client *openai.Client
	config config.LLMConfig
}

// NewClient creates a classifier client for the configured endpoint and model
func NewClient(cfg config.LLMConfig) *Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientConfig.BaseURL = cfg.Endpoint
	}

	return &Client{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
	}
}

const systemPrompt = `You are an assistant that sorts GitHub repositories into a fixed set of categories.
Pick exactly one category from the provided list for each repository.
Respond with strict JSON only: {"category": string, "confidence": number, "reasoning": string}
where category is the category name verbatim, confidence is 0-100 and reasoning is one short sentence.`

// rawResult is the JSON shape the model is instructed to return
type rawResult struct {
	Category   string `json:"category"`
	Confidence int    `json:"confidence"`
	Reasoning  string `json:"reasoning"`
}

// Classify performs a single classification attempt for one repo. Returns
// the normalized classification, the number of auxiliary lookups (tool
// calls) the model made, and total token usage. No internal retry; errors
// are flagged retryable or permanent for the caller to act on.
func (c *Client) Classify(ctx context.Context, repo domain.Repo) (*domain.Classification, int, int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       c.config.Model,
		Temperature: float32(c.config.Temperature),
		MaxTokens:   c.config.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: c.buildPrompt(repo)},
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, 0, 0, &callError{err: fmt.Errorf("llm request for %s: %w", repo.FullName, err), retryable: isTransientAPIErr(err)}
	}

	if len(resp.Choices) == 0 {
		return nil, 0, 0, &callError{err: fmt.Errorf("no response from llm for %s", repo.FullName), retryable: true}
	}

	msg := resp.Choices[0].Message
	webSearches := len(msg.ToolCalls)
	tokens := resp.Usage.TotalTokens

	classification, err := c.parseResponse(msg.Content)
	if err != nil {
		return nil, webSearches, tokens, err
	}

	return classification, webSearches, tokens, nil
}

// buildPrompt embeds the repo descriptor and the full taxonomy menu
func (c *Client) buildPrompt(repo domain.Repo) string {
	var sb strings.Builder

	sb.WriteString("Categorize this repository:\n\n")
	sb.WriteString(fmt.Sprintf("Repository: %s\n", repo.FullName))

	desc := repo.Description
	if desc == "" {
		desc = "No description provided"
	}
	sb.WriteString(fmt.Sprintf("Description: %s\n", desc))

	lang := repo.Language
	if lang == "" {
		lang = "Unknown"
	}
	sb.WriteString(fmt.Sprintf("Primary language: %s\n", lang))

	topics := "None"
	if len(repo.Topics) > 0 {
		topics = strings.Join(repo.Topics, ", ")
	}
	sb.WriteString(fmt.Sprintf("Topics: %s\n\n", topics))

	sb.WriteString("Available categories:\n")
	for _, cat := range taxonomy.All() {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", cat.Name, cat.Description))
	}

	sb.WriteString("\nRespond with strict JSON: {\"category\": string, \"confidence\": number, \"reasoning\": string}")
	return sb.String()
}

// parseResponse extracts and validates the JSON object from the raw model
// output, then normalizes the category against the taxonomy. An unmatched
// category is silently corrected to the fallback with the original string
// recorded in the reasoning.
func (c *Client) parseResponse(content string) (*domain.Classification, error) {
	jsonStr, found := extractJSON(content)
	if !found {
		return nil, &callError{err: fmt.Errorf("no json object in llm response"), retryable: true}
	}

	var raw rawResult
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, &callError{err: fmt.Errorf("parse llm response: %w", err), retryable: true}
	}

	if strings.TrimSpace(raw.Category) == "" {
		return nil, &callError{err: fmt.Errorf("llm response missing category"), retryable: true}
	}

	reasoning := raw.Reasoning
	if reasoning == "" {
		reasoning = "no reasoning provided"
	}

	cat, ok := taxonomy.Normalize(raw.Category)
	if !ok {
		reasoning = fmt.Sprintf("%s (original category %q not in taxonomy)", reasoning, raw.Category)
	}

	return &domain.Classification{
		Category:   cat.Name,
		Confidence: raw.Confidence,
		Reasoning:  reasoning,
	}, nil
}

// Close is a no-op for the plain client, present to satisfy the
// classifier contract used by the telemetry decorator.
func (c *Client) Close() error { return nil }

// extractJSON returns the first balanced {...} substring of s. Brace
// matching skips braces inside JSON strings.
func extractJSON(s string) (string, bool) {
	start := strings.Index(s, "{")
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch ch {
		case '\\':
			escaped = inString
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}
	return "", false
}
