package config

import "sort"

// Plan é um item do catálogo comercial. O catálogo é estático e indexado pelo
// ID de preço da Stripe, que também é usado como externalId nas cobranças PIX.
type Plan struct {
	PriceID    string `json:"price_id"`
	Nome       string `json:"nome"`
	Dias       int    `json:"dias"`
	PriceCents int64  `json:"preco_em_centavos"`
	IsFree     bool   `json:"is_free"`
}

// ProductPlans é a "tabela de preços" do sistema.
var ProductPlans = map[string]Plan{
	"price_1RlVyGPphAIQfHkyDqPFVhCz": {
		PriceID:    "price_1RlVyGPphAIQfHkyDqPFVhCz",
		Nome:       "Agenda Estratégica de 5 Dias",
		Dias:       5,
		PriceCents: 0,
		IsFree:     true,
	},
	"price_1RkvTvPphAIQfHkyLv2HNYci": {
		PriceID:    "price_1RkvTvPphAIQfHkyLv2HNYci",
		Nome:       "Agenda Estratégica de 30 Dias",
		Dias:       30,
		PriceCents: 4990,
	},
	"price_1RlVzHPphAIQfHkypaLBoAxR": {
		PriceID:    "price_1RlVzHPphAIQfHkypaLBoAxR",
		Nome:       "Agenda Estratégica de 60 Dias",
		Dias:       60,
		PriceCents: 8990,
	},
	"price_1RlW0CPphAIQfHkyzHVlqqyx": {
		PriceID:    "price_1RlW0CPphAIQfHkyzHVlqqyx",
		Nome:       "Agenda Estratégica de 90 Dias",
		Dias:       90,
		PriceCents: 12990,
	},
}

func PlanByPriceID(priceID string) (Plan, bool) {
	p, ok := ProductPlans[priceID]
	return p, ok
}

// ListPlans devolve o catálogo em ordem crescente de duração.
func ListPlans() []Plan {
	out := make([]Plan, 0, len(ProductPlans))
	for _, p := range ProductPlans {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Dias < out[j].Dias })
	return out
}
