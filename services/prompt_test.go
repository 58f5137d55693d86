package services

import (
	"strings"
	"testing"
)

func TestBuildRefinementPromptCarregaOsTermos(t *testing.T) {
	prompt := BuildRefinementPrompt(dadosDeTeste())

	for _, termo := range []string{"comida", "restaurante", "vender mais marmitas"} {
		if !strings.Contains(prompt, termo) {
			t.Errorf("termo %q ausente do prompt", termo)
		}
	}
	if !strings.Contains(prompt, "APENAS com um objeto JSON") {
		t.Error("instrução de saída JSON ausente")
	}
}

func TestBuildSchedulePromptDelimitaOLote(t *testing.T) {
	prompt := BuildSchedulePrompt(dadosDeTeste(), 30, 8, 14, "Fonte 1: \"X\"\nResumo: Y")

	if !strings.Contains(prompt, "Duração Total do Plano: 30 dias.") {
		t.Error("duração total ausente")
	}
	if !strings.Contains(prompt, "dias de 8 a 14") {
		t.Error("faixa do lote ausente")
	}
	if !strings.Contains(prompt, "Fonte 1: \"X\"") {
		t.Error("contexto da pesquisa ausente")
	}
	if !strings.Contains(prompt, "'AWARE', 'APPEAL', 'ASK', 'ACT', 'ADVOCATE'") {
		t.Error("etapas do funil ausentes")
	}
	// os percentuais da filosofia 80/20 precisam sobreviver ao Sprintf
	if !strings.Contains(prompt, "80%") || !strings.Contains(prompt, "20%") {
		t.Error("filosofia 80/20 corrompida pelo formato")
	}
}

func TestContentRequestMissingFields(t *testing.T) {
	casos := []struct {
		dados ContentRequest
		want  string
	}{
		{ContentRequest{}, "setor"},
		{ContentRequest{Setor: "x"}, "tipoNegocio"},
		{ContentRequest{Setor: "x", TipoNegocio: "y"}, "objetivoPrincipal"},
		{dadosDeTeste(), ""},
	}
	for _, caso := range casos {
		if got := caso.dados.MissingFields(); got != caso.want {
			t.Errorf("MissingFields(%+v) = %q, esperava %q", caso.dados, got, caso.want)
		}
	}
}
