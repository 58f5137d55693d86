package services

import (
	"context"
	"log"
	"strconv"

	"github.com/jinzhu/gorm"

	"storia/apperr"
	"storia/config"
	"storia/models"
	"storia/tools"
)

// StripeAPI é o que os serviços usam da Stripe. tools.StripeClient satisfaz.
type StripeAPI interface {
	CreateCheckoutSession(ctx context.Context, params tools.CheckoutSessionParams) (*tools.StripeCheckoutSession, error)
	ListLineItems(ctx context.Context, sessionID string) ([]tools.StripeLineItem, error)
}

// AbacateAPI é o que os serviços usam da AbacatePay. tools.AbacatePayClient satisfaz.
type AbacateAPI interface {
	CreateBilling(ctx context.Context, billing tools.AbacateBillingRequest) (*tools.AbacateBilling, error)
	GetBilling(ctx context.Context, billingID string) (*tools.AbacateBilling, error)
}

// PagamentoService cria sessões de pagamento e expõe o catálogo de planos.
type PagamentoService struct {
	DB          *gorm.DB
	Stripe      StripeAPI
	Abacate     AbacateAPI
	FrontendURL string
}

func NewPagamentoService(db *gorm.DB, stripe StripeAPI, abacate AbacateAPI, frontendURL string) *PagamentoService {
	return &PagamentoService{DB: db, Stripe: stripe, Abacate: abacate, FrontendURL: frontendURL}
}

// CriarSessaoCheckout abre uma sessão de checkout embutido na Stripe com os
// parâmetros do pedido no metadata. A compra em si só é registrada quando o
// webhook confirma o pagamento.
func (s *PagamentoService) CriarSessaoCheckout(ctx context.Context, priceID string, dados ContentRequest, usuarioID int64) (string, error) {
	if priceID == "" || usuarioID <= 0 {
		return "", apperr.New(apperr.KIND_VALIDATION, "priceId e usuarioId são obrigatórios.")
	}

	var usuario models.User
	if err := s.DB.First(&usuario, usuarioID).Error; err != nil {
		return "", apperr.Wrap(apperr.KIND_NOT_FOUND, "Usuário não encontrado.", err)
	}

	session, err := s.Stripe.CreateCheckoutSession(ctx, tools.CheckoutSessionParams{
		CustomerEmail:     usuario.Email,
		PriceID:           priceID,
		ClientReferenceID: strconv.FormatInt(usuarioID, 10),
		ReturnURL:         s.FrontendURL + "/dashboard",
		Metadata: map[string]string{
			"setor":             dados.Setor,
			"tipoNegocio":       dados.TipoNegocio,
			"objetivoPrincipal": dados.ObjetivoPrincipal,
		},
	})
	if err != nil {
		log.Printf("[PAGAMENTO] erro ao criar sessão de checkout na Stripe: %v", err)
		return "", err
	}
	return session.ClientSecret, nil
}

// CriarCobrancaPix cria a cobrança na AbacatePay e registra imediatamente a
// compra como PENDING, com os parâmetros do pedido capturados na linha. É essa
// linha que o webhook de pagamento vai localizar e entregar depois, sem
// depender do metadata do evento.
func (s *PagamentoService) CriarCobrancaPix(ctx context.Context, priceID string, dados ContentRequest, usuarioID int64, taxID string) (string, error) {
	if priceID == "" || usuarioID <= 0 {
		return "", apperr.New(apperr.KIND_VALIDATION, "priceId e usuarioId são obrigatórios.")
	}

	var usuario models.User
	if err := s.DB.First(&usuario, usuarioID).Error; err != nil {
		return "", apperr.Wrap(apperr.KIND_NOT_FOUND, "Usuário não encontrado.", err)
	}

	plano, ok := config.PlanByPriceID(priceID)
	if !ok {
		return "", apperr.New(apperr.KIND_NOT_FOUND, "Plano ou preço não encontrado na configuração.")
	}

	log.Printf("[PAGAMENTO] criando cobrança PIX de %d centavos para %s", plano.PriceCents, usuario.Email)

	cobranca, err := s.Abacate.CreateBilling(ctx, tools.AbacateBillingRequest{
		Customer: tools.AbacateCustomer{
			Name:      usuario.Name,
			Email:     usuario.Email,
			Cellphone: tools.NormalizeCellphone(usuario.Phone),
			TaxID:     taxID,
		},
		Amount:      plano.PriceCents,
		Description: "Pagamento para: " + plano.Nome,
		Frequency:   "ONE_TIME",
		Methods:     []string{"PIX"},
		Products: []tools.AbacateProduct{
			{ExternalID: priceID, Name: plano.Nome, Quantity: 1, Price: plano.PriceCents},
		},
		ReturnURL:     s.FrontendURL + "/dashboard",
		CompletionURL: s.FrontendURL + "/dashboard",
		Metadata: map[string]string{
			"usuarioId":         strconv.FormatInt(usuarioID, 10),
			"priceId":           priceID,
			"setor":             dados.Setor,
			"tipoNegocio":       dados.TipoNegocio,
			"objetivoPrincipal": dados.ObjetivoPrincipal,
		},
	})
	if err != nil {
		log.Printf("[PAGAMENTO] erro ao criar cobrança PIX na AbacatePay: %v", err)
		return "", err
	}
	if cobranca.URL == "" {
		return "", apperr.New(apperr.KIND_UPSTREAM, "Falha ao obter os dados de pagamento da AbacatePay.")
	}

	compra := models.Purchase{
		UserID:           usuarioID,
		PaymentSessionID: cobranca.ID,
		PriceID:          priceID,
		AmountCents:      plano.PriceCents,
		PaymentStatus:    models.PAYMENT_STATUS_PENDING,
		Sector:           dados.Setor,
		BusinessType:     dados.TipoNegocio,
		MainObjective:    dados.ObjetivoPrincipal,
	}
	if err := s.DB.Create(&compra).Error; err != nil {
		log.Printf("[PAGAMENTO] erro CRÍTICO ao registrar a compra PIX %s: %v", cobranca.ID, err)
		return "", apperr.Wrap(apperr.KIND_PERSISTENCE, "Erro ao registrar a compra.", err)
	}

	log.Printf("[PAGAMENTO] compra PIX %d registrada (cobrança %s)", compra.ID, cobranca.ID)
	return cobranca.URL, nil
}

// ListarProdutos devolve o catálogo de planos.
func (s *PagamentoService) ListarProdutos() []config.Plan {
	return config.ListPlans()
}
