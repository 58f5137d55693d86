package controllers

import (
	"net/http"

	"storia/services"

	"github.com/gin-gonic/gin"
)

type checkoutInput struct {
	PriceID string                  `json:"priceId"`
	Dados   services.ContentRequest `json:"dadosRequisicao"`
}

// POST /api/pagamentos/checkout
func CriarCheckoutStripe(svc *services.PagamentoService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := GetUserLogged(c)
		if !ok {
			RespondError(c, "Usuário não autenticado.", http.StatusUnauthorized)
			return
		}

		var input checkoutInput
		if err := c.ShouldBindJSON(&input); err != nil {
			RespondError(c, "Corpo da requisição inválido.", http.StatusBadRequest)
			return
		}

		clientSecret, err := svc.CriarSessaoCheckout(c.Request.Context(), input.PriceID, input.Dados, user.ID)
		if err != nil {
			RespondAppError(c, err)
			return
		}

		RespondSuccess(c, gin.H{"clientSecret": clientSecret})
	}
}

type pixInput struct {
	PriceID string                  `json:"priceId"`
	TaxID   string                  `json:"taxId"`
	Dados   services.ContentRequest `json:"dadosRequisicao"`
}

// POST /api/pagamentos/pix
func CriarCobrancaPix(svc *services.PagamentoService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := GetUserLogged(c)
		if !ok {
			RespondError(c, "Usuário não autenticado.", http.StatusUnauthorized)
			return
		}

		var input pixInput
		if err := c.ShouldBindJSON(&input); err != nil {
			RespondError(c, "Corpo da requisição inválido.", http.StatusBadRequest)
			return
		}

		url, err := svc.CriarCobrancaPix(c.Request.Context(), input.PriceID, input.Dados, user.ID, input.TaxID)
		if err != nil {
			RespondAppError(c, err)
			return
		}

		RespondSuccess(c, gin.H{"url": url})
	}
}

// GET /api/produtos
func ListarProdutos(svc *services.PagamentoService) gin.HandlerFunc {
	return func(c *gin.Context) {
		RespondSuccess(c, svc.ListarProdutos())
	}
}
