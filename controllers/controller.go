package controllers

import (
	"github.com/gin-gonic/gin"

	"storia/apperr"
)

func RespondError(c *gin.Context, msg string, code int) {
	c.JSON(code, gin.H{"error": msg})
}

func RespondSuccess(c *gin.Context, payload any) {
	c.JSON(200, payload)
}

// RespondAppError traduz um erro da aplicação em resposta HTTP, expondo só a
// mensagem pública.
func RespondAppError(c *gin.Context, err error) {
	RespondError(c, apperr.PublicMessage(err), apperr.HTTPStatus(err))
}
