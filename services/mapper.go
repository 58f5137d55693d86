package services

import (
	"fmt"
	"sort"
	"time"

	"storia/config"
	"storia/models"
)

// PlanInfo é o resumo do plano exibido junto de cada item da lista.
type PlanInfo struct {
	Nome string `json:"nome"`
	Dias int    `json:"dias"`
}

// ContentListItem é um item da lista unificada do dashboard. Compras ainda em
// geração viram "cards fantasmas" com um conteúdo placeholder.
type ContentListItem struct {
	ID             string     `json:"id"`
	CreatedAt      *time.Time `json:"created_at"`
	Content        string     `json:"conteudo_gerado"`
	PurchaseID     *int64     `json:"compra_id"`
	DeliveryStatus string     `json:"status_entrega"`
	Plano          PlanInfo   `json:"plano"`
}

const placeholderContent = `{"analiseEstrategica":{"funilEscolhido":"Gerando Estratégia..."},"agendaDePostagens":[]}`

// MergeContentList junta conteúdos prontos e compras pendentes em uma lista
// única, enriquecida com os dados do plano e ordenada da mais recente para a
// mais antiga. precoPorCompra resolve o price id de cada compra do usuário.
func MergeContentList(prontos []models.GeneratedContent, pendentes []models.Purchase, precoPorCompra map[int64]string) []ContentListItem {
	itens := make([]ContentListItem, 0, len(prontos)+len(pendentes))

	for _, conteudo := range prontos {
		plano := PlanInfo{Nome: "Plano Desconhecido"}
		if conteudo.PurchaseID == nil {
			plano = PlanInfo{Nome: "Plano Gratuito", Dias: 5}
		} else if priceID, ok := precoPorCompra[*conteudo.PurchaseID]; ok {
			if p, ok := config.PlanByPriceID(priceID); ok {
				plano = PlanInfo{Nome: p.Nome, Dias: p.Dias}
			}
		}

		itens = append(itens, ContentListItem{
			ID:             fmt.Sprintf("%d", conteudo.ID),
			CreatedAt:      conteudo.CreatedAt,
			Content:        conteudo.Content,
			PurchaseID:     conteudo.PurchaseID,
			DeliveryStatus: models.DELIVERY_STATUS_DELIVERED,
			Plano:          plano,
		})
	}

	for _, compra := range pendentes {
		plano := PlanInfo{Nome: "Plano"}
		if p, ok := config.PlanByPriceID(compra.PriceID); ok {
			plano = PlanInfo{Nome: p.Nome, Dias: p.Dias}
		}

		compraID := compra.ID
		itens = append(itens, ContentListItem{
			ID:             fmt.Sprintf("pendente-%d", compra.ID),
			CreatedAt:      compra.CreatedAt,
			Content:        placeholderContent,
			PurchaseID:     &compraID,
			DeliveryStatus: models.DELIVERY_STATUS_PENDING,
			Plano:          plano,
		})
	}

	sort.SliceStable(itens, func(i, j int) bool {
		ti, tj := itens[i].CreatedAt, itens[j].CreatedAt
		if ti == nil || tj == nil {
			return tj == nil && ti != nil
		}
		return ti.After(*tj)
	})

	return itens
}
