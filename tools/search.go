package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type SearchConfig struct {
	APIKey   string
	EngineID string

	// BaseURL sobrescreve o endpoint (útil em testes).
	BaseURL string
}

// SearchClient pesquisa tendências de mercado via Google Custom Search.
// A pesquisa é sempre opcional: em qualquer falha o cliente devolve um texto
// de fallback legível em vez de erro, e o pipeline segue sem contexto.
type SearchClient struct {
	cfg        SearchConfig
	httpClient *http.Client
}

func NewSearchClient(cfg SearchConfig) *SearchClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.googleapis.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &SearchClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *SearchClient) PesquisarTendencias(ctx context.Context, termoDeBusca string) string {
	if s.cfg.APIKey == "" || s.cfg.EngineID == "" {
		log.Printf("[SEARCH] chaves da API do Google não configuradas, pesquisa pulada")
		return "Pesquisa em tempo real não pôde ser realizada."
	}

	params := url.Values{}
	params.Set("key", s.cfg.APIKey)
	params.Set("cx", s.cfg.EngineID)
	params.Set("q", termoDeBusca)
	params.Set("num", "3") // contexto focado e rápido
	params.Set("sort", "date")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.cfg.BaseURL+"/customsearch/v1?"+params.Encode(), nil)
	if err != nil {
		log.Printf("[SEARCH] erro ao montar requisição: %v", err)
		return "Houve um erro ao realizar a pesquisa em tempo real."
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.Printf("[SEARCH] erro ao chamar a API de pesquisa: %v", err)
		return "Houve um erro ao realizar a pesquisa em tempo real."
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Printf("[SEARCH] API de pesquisa respondeu %d", resp.StatusCode)
		return "Houve um erro ao realizar a pesquisa em tempo real."
	}

	var parsed struct {
		Items []struct {
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		log.Printf("[SEARCH] resposta inválida da API de pesquisa: %v", err)
		return "Houve um erro ao realizar a pesquisa em tempo real."
	}

	if len(parsed.Items) == 0 {
		return "Nenhum resultado relevante encontrado na pesquisa em tempo real."
	}

	blocos := make([]string, 0, len(parsed.Items))
	for i, item := range parsed.Items {
		blocos = append(blocos, fmt.Sprintf("Fonte %d: %q\nResumo: %s", i+1, item.Title, item.Snippet))
	}
	return strings.Join(blocos, "\n\n")
}
