package controllers

import (
	"net/http"

	"storia/tools"

	"github.com/gin-gonic/gin"
)

type perguntaInput struct {
	Prompt string `json:"prompt"`
}

// POST /api/ia/perguntar
//
// Canal direto com o assistente, sem orquestração: a pergunta vai no corpo e
// a resposta volta como texto. A validação de prompt vazio é do próprio
// cliente de IA.
func PerguntarAoAssistente(ia tools.IAClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input perguntaInput
		if err := c.ShouldBindJSON(&input); err != nil {
			RespondError(c, "Corpo da requisição inválido.", http.StatusBadRequest)
			return
		}

		resposta, err := ia.GerarResposta(c.Request.Context(), input.Prompt)
		if err != nil {
			RespondAppError(c, err)
			return
		}

		RespondSuccess(c, gin.H{"resposta": resposta})
	}
}
