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

// OpenAIClient fala com a API de chat completions da OpenAI.
type OpenAIClient struct {
	cfg        IAConfig
	httpClient *http.Client
}

func NewOpenAIClient(cfg IAConfig) *OpenAIClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &OpenAIClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (o *OpenAIClient) GerarResposta(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", apperr.New(apperr.KIND_VALIDATION, "O prompt (pergunta) é obrigatório.")
	}

	reqBody := map[string]any{
		"model": o.cfg.Model,
		"messages": []map[string]string{
			{"role": "system", "content": o.cfg.SystemPrompt},
			{"role": "user", "content": prompt},
		},
		"temperature": o.cfg.Temperature,
		"max_tokens":  o.cfg.MaxTokens,
	}
	b, _ := json.Marshal(reqBody)

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		o.cfg.BaseURL+"/v1/chat/completions",
		bytes.NewReader(b),
	)
	if err != nil {
		return "", apperr.Wrap(apperr.KIND_UPSTREAM, "Erro no serviço de IA.", err)
	}
	req.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", apperr.Wrap(apperr.KIND_UPSTREAM, "Erro no serviço de IA.", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", apperr.Wrap(apperr.KIND_UPSTREAM, "Erro no serviço de IA.",
			fmt.Errorf("openai error %d: %s", resp.StatusCode, string(body)))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", apperr.Wrap(apperr.KIND_UPSTREAM, "Erro no serviço de IA.", err)
	}
	if len(parsed.Choices) == 0 {
		return "", apperr.Wrap(apperr.KIND_UPSTREAM, "Erro no serviço de IA.",
			fmt.Errorf("resposta sem choices"))
	}

	return parsed.Choices[0].Message.Content, nil
}
