package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storia/apperr"
)

// GeminiClient fala com a API generateContent do Google Gemini. Tem o mesmo
// formato do OpenAIClient de propósito: os dois satisfazem IAClient.
type GeminiClient struct {
	cfg        IAConfig
	httpClient *http.Client
}

func NewGeminiClient(cfg IAConfig) *GeminiClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &GeminiClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (g *GeminiClient) GerarResposta(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", apperr.New(apperr.KIND_VALIDATION, "O prompt (pergunta) é obrigatório.")
	}

	reqBody := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": prompt}}},
		},
		"generationConfig": map[string]any{
			"temperature":     g.cfg.Temperature,
			"maxOutputTokens": g.cfg.MaxTokens,
		},
	}
	b, _ := json.Marshal(reqBody)

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		g.cfg.BaseURL, g.cfg.Model, g.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return "", apperr.Wrap(apperr.KIND_UPSTREAM, "Erro no provedor Gemini.", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", apperr.Wrap(apperr.KIND_UPSTREAM, "Erro no provedor Gemini.", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", apperr.Wrap(apperr.KIND_UPSTREAM, "Erro no provedor Gemini.",
			fmt.Errorf("gemini error %d: %s", resp.StatusCode, string(body)))
	}

	var parsed struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", apperr.Wrap(apperr.KIND_UPSTREAM, "Erro no provedor Gemini.", err)
	}

	var sb strings.Builder
	for _, cand := range parsed.Candidates {
		for _, part := range cand.Content.Parts {
			sb.WriteString(part.Text)
		}
	}
	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", apperr.Wrap(apperr.KIND_UPSTREAM, "Erro no provedor Gemini.",
			fmt.Errorf("resposta sem candidates"))
	}
	return out, nil
}
