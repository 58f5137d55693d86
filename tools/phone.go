package tools

import (
	"strings"
	"unicode"
)

// NormalizeCellphone normaliza um telefone para o formato aceito pela
// AbacatePay (apenas dígitos). Quando o cadastro não tem telefone, devolve um
// placeholder de onze zeros, igual ao comportamento histórico do checkout.
func NormalizeCellphone(raw string) string {
	raw = strings.TrimSpace(raw)

	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	phone := b.String()

	if phone == "" {
		return "00000000000"
	}
	return phone
}
