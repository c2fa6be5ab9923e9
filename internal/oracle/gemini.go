package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"stockagent_go/internal/domain"
	"stockagent_go/internal/infra"
)

const (
	geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// Transport-level retries before the call is surrendered as "no decision".
	maxTransportRetries = 2
)

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role"` // "user" or "model"
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GeminiClient implements domain.Oracle over the Gemini REST API. It keeps a
// per-agent chat history so retry prompts land in the same conversation; the
// orchestrator resets each agent's history at the start of every day.
type GeminiClient struct {
	client *resty.Client
	model  string
	apiKey string

	mu        sync.Mutex
	histories map[int][]content
}

// NewGeminiClient creates a Gemini oracle client. An empty API key yields a
// client whose every call fails fast with ErrOracleNotConfigured, which the
// agents treat as "no decision".
func NewGeminiClient(model, apiKey string) *GeminiClient {
	client := resty.New().
		SetBaseURL(geminiBaseURL).
		SetTimeout(60 * time.Second)

	return &GeminiClient{
		client:    client,
		model:     model,
		apiKey:    apiKey,
		histories: make(map[int][]content),
	}
}

// Decide sends one decision request and returns the model's free text.
func (g *GeminiClient) Decide(ctx context.Context, agentID int, kind domain.DecisionKind, fields map[string]any) (string, error) {
	if g.apiKey == "" {
		return "", domain.ErrOracleNotConfigured
	}

	prompt := renderPrompt(kind, fields)

	g.mu.Lock()
	history := append([]content(nil), g.histories[agentID]...)
	g.mu.Unlock()

	contents := append(history, content{Role: "user", Parts: []part{{Text: prompt}}})

	var lastErr error
	for retry := 0; retry <= maxTransportRetries; retry++ {
		if retry > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(infra.CalculateBackoff(retry - 1)):
			}
		}

		var out generateResponse
		resp, err := g.client.R().
			SetContext(ctx).
			SetQueryParam("key", g.apiKey).
			SetBody(generateRequest{Contents: contents}).
			SetResult(&out).
			Post("/models/" + g.model + ":generateContent")

		switch {
		case err != nil:
			lastErr = domain.NewOracleError("generate", err)
		case resp.IsError():
			lastErr = domain.NewOracleError("generate",
				fmt.Errorf("status %s: %s", resp.Status(), resp.String()))
		case len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0:
			// A well-formed but empty answer will not improve on retry.
			lastErr = &domain.OracleError{Op: "decode", Err: errors.New("no candidates in response")}
		default:
			text := out.Candidates[0].Content.Parts[0].Text
			g.mu.Lock()
			g.histories[agentID] = append(g.histories[agentID],
				content{Role: "user", Parts: []part{{Text: prompt}}},
				content{Role: "model", Parts: []part{{Text: text}}})
			g.mu.Unlock()
			return text, nil
		}

		slog.Warn("oracle call failed", slog.Int("agent", agentID),
			slog.Int("retry", retry), slog.Any("error", lastErr))
		if !domain.IsRetriable(lastErr) {
			break
		}
	}

	slog.Error("oracle failed after retries, skipping interaction",
		slog.Int("agent", agentID), slog.String("kind", string(kind)))
	return "", lastErr
}

// ResetContext drops the agent's chat history.
func (g *GeminiClient) ResetContext(agentID int) {
	g.mu.Lock()
	delete(g.histories, agentID)
	g.mu.Unlock()
}
