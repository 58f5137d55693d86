package router

import (
	"log"
	"net/http"

	"storia/config"
	"storia/controllers"
	"storia/middleware"
	"storia/services"
	"storia/tools"

	"github.com/gin-gonic/gin"
)

// Services agrupa as dependências que as rotas precisam.
type Services struct {
	Conteudo  *services.ConteudoService
	Pagamento *services.PagamentoService
	Webhook   *services.WebhookService
	IA        tools.IAClient
}

// Initialize wires all routes and middlewares.
func Initialize(r *gin.Engine, cfg config.Configuration, svcs Services) {
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware(cfg.FrontendURL))

	// Webhooks ficam fora do /api autenticado: os provedores assinam o corpo
	// cru, então nada aqui pode consumir o body antes do handler.
	webhooks := r.Group("/webhooks")
	webhooks.POST("/stripe", Logger(), controllers.HandleStripeWebhook(svcs.Webhook))
	webhooks.POST("/abacatepay", Logger(), controllers.HandleAbacatePayWebhook(svcs.Webhook))

	api := r.Group("/api")

	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public (no auth)
	api.POST("/usuarios", Logger(), controllers.CreateUser)
	api.POST("/login", Logger(), controllers.Login(cfg.Security.JwtSecret, cfg.Security.TokenValidHours))
	api.GET("/produtos", Logger(), controllers.ListarProdutos(svcs.Pagamento))

	// Authenticated routes (token required)
	auth := api.Group("")
	auth.Use(controllers.AuthRequired(cfg.Security.JwtSecret))

	auth.GET("/conteudo", Logger(), controllers.GetConteudosDoUsuario(svcs.Conteudo))
	auth.GET("/conteudo/gratis/status", Logger(), controllers.GetStatusGratuito(svcs.Conteudo))
	auth.POST("/conteudo/gratis", Logger(), controllers.GerarGratis(svcs.Conteudo))

	auth.POST("/pagamentos/checkout", Logger(), controllers.CriarCheckoutStripe(svcs.Pagamento))
	auth.POST("/pagamentos/pix", Logger(), controllers.CriarCobrancaPix(svcs.Pagamento))

	auth.POST("/ia/perguntar", Logger(), controllers.PerguntarAoAssistente(svcs.IA))

	log.Printf("Routes initialized")
}
