package services

import "fmt"

// ContentRequest são os dados do formulário do cliente. Os nomes JSON batem
// com o metadata enviado ao checkout, por isso não mudam.
type ContentRequest struct {
	Setor             string `json:"setor" form:"setor"`
	TipoNegocio       string `json:"tipoNegocio" form:"tipoNegocio"`
	ObjetivoPrincipal string `json:"objetivoPrincipal" form:"objetivoPrincipal"`
}

func (r ContentRequest) MissingFields() string {
	if r.Setor == "" {
		return "setor"
	} else if r.TipoNegocio == "" {
		return "tipoNegocio"
	} else if r.ObjetivoPrincipal == "" {
		return "objetivoPrincipal"
	}
	return ""
}

// BuildRefinementPrompt monta o prompt rápido que traduz os termos genéricos
// do usuário em categorias de mercado profissionais.
func BuildRefinementPrompt(dados ContentRequest) string {
	return fmt.Sprintf(`
Analise os seguintes dados de um cliente:
- Setor: %q
- Tipo de Negócio: %q
- Objetivo: %q

Sua tarefa é traduzir esses termos, que podem ser genéricos, para categorias de mercado profissionais e específicas que um especialista em marketing usaria para uma pesquisa de mercado.

Responda APENAS com um objeto JSON válido com a seguinte estrutura:
{
  "setor": "string",
  "tipoNegocio": "string",
  "objetivoPrincipal": "string"
}
`, dados.Setor, dados.TipoNegocio, dados.ObjetivoPrincipal)
}

// BuildSchedulePrompt monta o prompt estratégico de um lote da agenda.
// É uma função pura: mesma entrada, mesmo prompt.
func BuildSchedulePrompt(dados ContentRequest, duracaoTotalDias, diaInicial, diaFinal int, contextoAtual string) string {
	return fmt.Sprintf(`
## PAPEL (PERSONA)
Você é um Estrategista de Marketing Digital Sênior com vasta experiência em criar planos de conteúdo práticos e de alta conversão para pequenas e médias empresas. Você utiliza o framework de Marketing 4.0 como base e enriquece suas estratégias com dados e previsões de mercado para manter seus clientes à frente da concorrência.

## FILOSOFIA DO CONTEÚDO
- A estratégia deve ser 80%% baseada em táticas de marketing consolidadas (o framework dos 5 A's) para garantir resultados consistentes.
- Os 20%% restantes devem ser "pitadas" de inovação, inspiradas pelos dados da pesquisa em tempo real, para diferenciar a marca.
- O foco principal é construir um relacionamento de confiança que leve à conversão.

## TAREFA PRINCIPAL
Sua única tarefa é analisar o contexto do cliente e os dados de mercado para gerar um objeto JSON válido como resposta.

## CONTEXTO DO CLIENTE
- Setor de Atuação: %s
- Tipo de Negócio: %s
- Objetivo Principal do Cliente: %q
- Duração Total do Plano: %d dias.

## DADOS DE MERCADO PARA INSPIRAÇÃO (PESQUISA EM TEMPO REAL)
Use os seguintes resumos de artigos como inspiração para as ideias de posts, especialmente para adicionar o toque de inovação.
---
%s
---

## ESTRUTURA OBRIGATÓRIA DO JSON DE SAÍDA
`+"```json"+`
{
  "analiseEstrategica": {
    "tituloEstrategia": "string // Siga a fórmula: 'Plano de [Objetivo Principal] para [Tipo de Negócio]'",
    "funilEscolhido": "string",
    "justificativa": "string // Análise profissional, concisa, máximo de 25 palavras."
  },
  "agendaDePostagens": [
    {
      "dia": "number",
      "etapaFunil": "string // OBRIGATORIAMENTE um dos 5 A's: 'AWARE', 'APPEAL', 'ASK', 'ACT', 'ADVOCATE'",
      "formatoSugerido": "string (Feed, Stories, ou Reels)",
      "titulo": "string",
      "conteudo": "string",
      "sugestaoVisual": "string",
      "hashtags": ["string"]
    }
  ]
}
`+"```"+`

## INSTRUÇÕES PARA O PREENCHIMENTO DO JSON
1.  **Para "tituloEstrategia":** Siga a fórmula exata definida na estrutura acima. Exemplo: "Plano de Venda de Roupas para E-commerce de Moda".
2.  **Para "analiseEstrategica":** Sua justificativa deve ser prática e explicativa em como a agenda ajudará a alcançar o objetivo do cliente.
3.  **Para "agendaDePostagens":**
    -   Gere as entradas APENAS para os dias de %d a %d.
    -   A maioria dos posts deve seguir táticas comprovadas para cada etapa dos 5 A's. Use os dados da pesquisa para dar um toque inovador a alguns dos posts.

Responda APENAS com o objeto JSON.
`, dados.Setor, dados.TipoNegocio, dados.ObjetivoPrincipal, duracaoTotalDias, contextoAtual, diaInicial, diaFinal)
}
