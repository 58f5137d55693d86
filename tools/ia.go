package tools

import (
	"context"
	"fmt"
)

// IAConfig é a configuração explícita dos provedores de IA. Nada aqui é lido
// de variável de ambiente pelos clientes: quem monta o processo resolve as
// chaves uma vez e injeta.
type IAConfig struct {
	Provider     string // "openai" ou "gemini"
	APIKey       string
	Model        string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int

	// BaseURL sobrescreve o endpoint do provedor (útil em testes).
	BaseURL string
}

// IAClient é o contrato único que o resto da aplicação usa para falar com a
// IA, independente do provedor ativo.
type IAClient interface {
	GerarResposta(ctx context.Context, prompt string) (string, error)
}

// NewIAClient escolhe o provedor uma única vez, na subida do processo.
func NewIAClient(cfg IAConfig) (IAClient, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIClient(cfg), nil
	case "gemini":
		return NewGeminiClient(cfg), nil
	}
	return nil, fmt.Errorf("provedor de IA desconhecido: %q", cfg.Provider)
}
