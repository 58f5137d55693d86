package controllers

import (
	"net/http"

	"storia/services"

	"github.com/gin-gonic/gin"
)

// POST /webhooks/stripe
//
// O corpo precisa chegar cru para a verificação de assinatura, então a rota
// fica fora de qualquer middleware que consuma o body.
func HandleStripeWebhook(svc *services.WebhookService) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.GetRawData()
		if err != nil {
			RespondError(c, "Falha ao ler o corpo da requisição.", http.StatusBadRequest)
			return
		}

		signature := c.GetHeader("stripe-signature")
		if err := svc.ProcessarWebhookStripe(c.Request.Context(), raw, signature); err != nil {
			RespondAppError(c, err)
			return
		}

		RespondSuccess(c, gin.H{"received": true})
	}
}

// POST /webhooks/abacatepay
func HandleAbacatePayWebhook(svc *services.WebhookService) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.GetRawData()
		if err != nil {
			RespondError(c, "Falha ao ler o corpo da requisição.", http.StatusBadRequest)
			return
		}

		signature := c.GetHeader("abacate-signature")
		if err := svc.ProcessarWebhookAbacatePay(c.Request.Context(), raw, signature); err != nil {
			RespondAppError(c, err)
			return
		}

		RespondSuccess(c, gin.H{"received": true})
	}
}
