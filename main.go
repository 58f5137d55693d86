package main

import (
	"log"
	"os"
	"strings"

	"storia/config"
	"storia/db"
	"storia/router"
	"storia/services"
	"storia/tools"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// =====================
// ENV esperadas
// =====================
//
// Segredos (nunca vão para o config.json):
// - OPENAI_API_KEY            (quando ia.provider = "openai")
// - GEMINI_API_KEY            (quando ia.provider = "gemini")
// - GOOGLE_SEARCH_API_KEY     (Custom Search, opcional)
// - GOOGLE_SEARCH_ENGINE_ID   (Custom Search, opcional)
// - STRIPE_SECRET_KEY
// - STRIPE_WEBHOOK_SECRET
// - ABACATE_PAY_API_KEY
// - ABACATE_PAY_WEBHOOK_SECRET
//
// O restante (porta, banco, provedor de IA, front) vem do config.json,
// apontado por CONFIG_PATH (default "config.json").
//
// =====================

func main() {
	// .env é conveniência de dev; em produção as variáveis já estão no ambiente.
	if err := godotenv.Load(); err != nil {
		log.Printf("Arquivo .env não encontrado, usando variáveis do ambiente")
	}

	configPath := getenv("CONFIG_PATH", "config.json")
	cfg := config.Get(configPath)
	db.SetConfigurations(cfg)

	database, err := db.Connect()
	if err != nil {
		log.Fatalf("Falha ao conectar no banco: %v", err)
	}
	defer database.Close()

	ia, err := tools.NewIAClient(buildIAConfig(cfg))
	if err != nil {
		log.Fatalf("Falha ao configurar o provedor de IA: %v", err)
	}

	search := tools.NewSearchClient(tools.SearchConfig{
		APIKey:   os.Getenv("GOOGLE_SEARCH_API_KEY"),
		EngineID: os.Getenv("GOOGLE_SEARCH_ENGINE_ID"),
	})

	stripe := tools.NewStripeClient(mustGetenv("STRIPE_SECRET_KEY"))
	abacate := tools.NewAbacatePayClient(mustGetenv("ABACATE_PAY_API_KEY"))

	conteudo := services.NewConteudoService(database, ia, search)
	pagamento := services.NewPagamentoService(database, stripe, abacate, cfg.FrontendURL)
	webhook := services.NewWebhookService(
		database,
		stripe,
		abacate,
		conteudo,
		mustGetenv("STRIPE_WEBHOOK_SECRET"),
		mustGetenv("ABACATE_PAY_WEBHOOK_SECRET"),
	)

	r := gin.New()
	r.Use(db.SetDBtoContext(database))
	router.Initialize(r, cfg, router.Services{
		Conteudo:  conteudo,
		Pagamento: pagamento,
		Webhook:   webhook,
		IA:        ia,
	})

	log.Printf("Storia listening on :%s", cfg.ApiPort)
	log.Fatal(r.Run(":" + cfg.ApiPort))
}

func buildIAConfig(cfg config.Configuration) tools.IAConfig {
	ia := tools.IAConfig{
		Provider:     cfg.IA.Provider,
		Model:        cfg.IA.Model,
		SystemPrompt: cfg.IA.SystemPrompt,
		Temperature:  cfg.IA.Temperature,
		MaxTokens:    cfg.IA.MaxTokens,
	}
	switch strings.ToLower(cfg.IA.Provider) {
	case "gemini":
		ia.APIKey = mustGetenv("GEMINI_API_KEY")
		ia.Model = cfg.IA.GeminiModel
	default:
		ia.APIKey = mustGetenv("OPENAI_API_KEY")
	}
	return ia
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func mustGetenv(key string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		log.Fatalf("Variável de ambiente obrigatória não definida: %s", key)
	}
	return v
}
