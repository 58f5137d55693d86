package config

import (
	"encoding/json"
	"log"
	"os"
)

type Configuration struct {
	ApiPort string `json:"api_port"`
	LogPath string `json:"log_path"`

	Database string `json:"database"` // "sqlite3" ou "postgres"
	DbHost   string `json:"db_host"`
	DbPort   string `json:"db_port"`
	DbUser   string `json:"db_user"`
	DbName   string `json:"db_name"`
	DbPass   string `json:"db_pass"`

	FrontendURL string `json:"frontend_url"`

	Security struct {
		JwtSecret       string `json:"jwt_secret"`
		TokenValidHours int    `json:"token_valid_hours"`
	} `json:"security"`

	// IA concentra o que não é segredo: o provedor ativo e os parâmetros de
	// geração. As chaves (OPENAI_API_KEY etc.) ficam no ambiente.
	IA struct {
		Provider     string  `json:"provider"` // "openai" ou "gemini"
		Model        string  `json:"model"`
		GeminiModel  string  `json:"gemini_model"`
		SystemPrompt string  `json:"system_prompt"`
		Temperature  float64 `json:"temperature"`
		MaxTokens    int     `json:"max_tokens"`
	} `json:"ia"`
}

func Get(path string) Configuration {
	b, err := os.ReadFile(path)
	if err != nil {
		log.Fatal(err)
	}
	var c Configuration
	if err := json.Unmarshal(b, &c); err != nil {
		log.Fatal(err)
	}

	// defaults (pra evitar nil/zero chato)
	if c.ApiPort == "" {
		c.ApiPort = "8080"
	}
	if c.LogPath == "" {
		c.LogPath = "logs/server.log"
	}
	if c.Database == "" {
		c.Database = "sqlite3"
	}
	if c.FrontendURL == "" {
		c.FrontendURL = "http://localhost:5173"
	}
	if c.Security.JwtSecret == "" {
		c.Security.JwtSecret = "CHANGE_ME"
	}
	if c.Security.TokenValidHours <= 0 {
		c.Security.TokenValidHours = 2
	}
	if c.IA.Provider == "" {
		c.IA.Provider = "openai"
	}
	if c.IA.Model == "" {
		c.IA.Model = "gpt-4o"
	}
	if c.IA.GeminiModel == "" {
		c.IA.GeminiModel = "gemini-1.5-flash"
	}
	if c.IA.SystemPrompt == "" {
		c.IA.SystemPrompt = "Você é um assistente de IA. Siga estritamente as instruções fornecidas no prompt do usuário."
	}
	if c.IA.Temperature <= 0 {
		c.IA.Temperature = 0.7
	}
	if c.IA.MaxTokens <= 0 {
		c.IA.MaxTokens = 8000
	}

	return c
}
