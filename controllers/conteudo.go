package controllers

import (
	"net/http"

	"storia/services"

	"github.com/gin-gonic/gin"
)

// GET /api/conteudo/gratis/status
func GetStatusGratuito(svc *services.ConteudoService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := GetUserLogged(c)
		if !ok {
			RespondError(c, "Usuário não autenticado.", http.StatusUnauthorized)
			return
		}

		jaGerado, err := svc.VerificarStatusGratuito(user.ID)
		if err != nil {
			RespondAppError(c, err)
			return
		}

		RespondSuccess(c, gin.H{"jaGerado": jaGerado})
	}
}

// POST /api/conteudo/gratis
func GerarGratis(svc *services.ConteudoService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := GetUserLogged(c)
		if !ok {
			RespondError(c, "Usuário não autenticado.", http.StatusUnauthorized)
			return
		}

		var dados services.ContentRequest
		if err := c.ShouldBindJSON(&dados); err != nil {
			RespondError(c, "Corpo da requisição inválido.", http.StatusBadRequest)
			return
		}
		if missing := dados.MissingFields(); missing != "" {
			RespondError(c, "Faltando campo "+missing+" na requisição.", http.StatusBadRequest)
			return
		}

		if err := svc.GerarConteudoGratis(c.Request.Context(), user.ID, dados); err != nil {
			RespondAppError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"message": "Seu conteúdo gratuito foi gerado com sucesso!",
		})
	}
}

// GET /api/conteudo
func GetConteudosDoUsuario(svc *services.ConteudoService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := GetUserLogged(c)
		if !ok {
			RespondError(c, "Usuário não autenticado.", http.StatusUnauthorized)
			return
		}

		itens, err := svc.ObterConteudosDoUsuario(user.ID)
		if err != nil {
			RespondAppError(c, err)
			return
		}

		RespondSuccess(c, itens)
	}
}
