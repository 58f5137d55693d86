package tools

import (
	"strings"

	"storia/apperr"
)

// ExtractJSON recorta o objeto JSON de um texto que pode conter prosa ou
// cercas de markdown ('```json'). O recorte vai do primeiro '{' ao último '}'
// e é propositalmente leniente: quem chama ainda precisa fazer o parse e
// tratar JSON inválido.
func ExtractJSON(texto string) (string, error) {
	if strings.TrimSpace(texto) == "" {
		return "", apperr.New(apperr.KIND_MALFORMED_OUTPUT, "A resposta da IA está vazia.")
	}

	inicio := strings.Index(texto, "{")
	fim := strings.LastIndex(texto, "}")

	if inicio == -1 || fim == -1 || fim < inicio {
		return "", apperr.New(apperr.KIND_MALFORMED_OUTPUT, "A resposta da IA não continha um formato JSON válido.")
	}

	return texto[inicio : fim+1], nil
}
