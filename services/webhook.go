package services

import (
	"context"
	"encoding/json"
	"log"
	"strconv"

	"github.com/jinzhu/gorm"

	"storia/apperr"
	"storia/models"
	"storia/tools"
)

// EntregadorDeConteudo é o que o webhook precisa da entrega de conteúdo.
// ConteudoService satisfaz.
type EntregadorDeConteudo interface {
	GerarConteudoPago(ctx context.Context, compra *models.Purchase) error
}

// WebhookService reconcilia eventos de pagamento da Stripe e da AbacatePay.
//
// Regra comum aos dois provedores: falha de assinatura ou de parse rejeita o
// evento na hora, sem persistir nada. Depois da verificação, qualquer erro é
// apenas logado e o provedor recebe o ack normal — devolver erro faria o
// provedor reenviar o evento e multiplicar o estrago.
type WebhookService struct {
	DB       *gorm.DB
	Stripe   StripeAPI
	Abacate  AbacateAPI
	Conteudo EntregadorDeConteudo

	StripeWebhookSecret  string
	AbacateWebhookSecret string
}

func NewWebhookService(db *gorm.DB, stripe StripeAPI, abacate AbacateAPI, conteudo EntregadorDeConteudo, stripeSecret, abacateSecret string) *WebhookService {
	return &WebhookService{
		DB:                   db,
		Stripe:               stripe,
		Abacate:              abacate,
		Conteudo:             conteudo,
		StripeWebhookSecret:  stripeSecret,
		AbacateWebhookSecret: abacateSecret,
	}
}

type stripeCheckoutSession struct {
	ID                string            `json:"id"`
	ClientReferenceID string            `json:"client_reference_id"`
	AmountTotal       int64             `json:"amount_total"`
	PaymentStatus     string            `json:"payment_status"`
	Metadata          map[string]string `json:"metadata"`
}

// ProcessarWebhookStripe trata o evento checkout.session.completed: registra a
// compra já paga (com os parâmetros vindos do metadata da sessão) e dispara a
// entrega. O session id deduplica reentregas do mesmo evento.
func (s *WebhookService) ProcessarWebhookStripe(ctx context.Context, payload []byte, sigHeader string) error {
	if err := tools.VerifyStripeSignature(payload, sigHeader, s.StripeWebhookSecret); err != nil {
		log.Printf("[WEBHOOK][STRIPE] assinatura inválida: %v", err)
		return err
	}

	var event struct {
		Type string `json:"type"`
		Data struct {
			Object stripeCheckoutSession `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return apperr.Wrap(apperr.KIND_VALIDATION, "Webhook Error: corpo inválido.", err)
	}

	if event.Type != "checkout.session.completed" {
		log.Printf("[WEBHOOK][STRIPE] evento %q ignorado", event.Type)
		return nil
	}
	session := event.Data.Object

	var existente models.Purchase
	err := s.DB.Where("payment_session_id = ?", session.ID).First(&existente).Error
	if err == nil {
		log.Printf("[WEBHOOK][STRIPE] sessão %s já foi processada, ignorando", session.ID)
		return nil
	}
	if !gorm.IsRecordNotFoundError(err) {
		log.Printf("[WEBHOOK][STRIPE] erro ao checar duplicidade da sessão %s: %v", session.ID, err)
		return nil
	}

	// a partir daqui qualquer falha é absorvida: o evento era válido e o
	// provedor precisa do ack
	lineItems, err := s.Stripe.ListLineItems(ctx, session.ID)
	if err != nil {
		log.Printf("[WEBHOOK][STRIPE] erro ao buscar line items da sessão %s: %v", session.ID, err)
		return nil
	}
	if len(lineItems) == 0 {
		log.Printf("[WEBHOOK][STRIPE] sessão %s sem produtos, ignorando", session.ID)
		return nil
	}

	usuarioID, err := strconv.ParseInt(session.ClientReferenceID, 10, 64)
	if err != nil || usuarioID <= 0 {
		log.Printf("[WEBHOOK][STRIPE] client_reference_id inválido na sessão %s: %q", session.ID, session.ClientReferenceID)
		return nil
	}

	compra := models.Purchase{
		UserID:           usuarioID,
		PaymentSessionID: session.ID,
		ProductID:        lineItems[0].ProductID,
		PriceID:          lineItems[0].PriceID,
		AmountCents:      session.AmountTotal,
		PaymentStatus:    models.PAYMENT_STATUS_PAID,
		DeliveryStatus:   models.DELIVERY_STATUS_PENDING,
		Sector:           session.Metadata["setor"],
		BusinessType:     session.Metadata["tipoNegocio"],
		MainObjective:    session.Metadata["objetivoPrincipal"],
	}
	if err := s.DB.Create(&compra).Error; err != nil {
		// inclui corrida entre entregas duplicadas: o índice único em
		// payment_session_id segura a segunda inserção
		log.Printf("[WEBHOOK][STRIPE] erro ao salvar a compra da sessão %s: %v", session.ID, err)
		return nil
	}
	log.Printf("[WEBHOOK][STRIPE] compra %d registrada para a sessão %s", compra.ID, session.ID)

	if err := s.Conteudo.GerarConteudoPago(ctx, &compra); err != nil {
		log.Printf("[WEBHOOK][STRIPE] entrega da compra %d falhou: %v", compra.ID, err)
	}
	return nil
}

// ProcessarWebhookAbacatePay trata o evento billing.paid: localiza a compra
// PENDING registrada na criação da cobrança, marca como paga e dispara a
// entrega usando os parâmetros capturados na própria compra — o metadata do
// webhook pode vir ausente ou truncado pelo provedor, então não é fonte de
// verdade.
func (s *WebhookService) ProcessarWebhookAbacatePay(ctx context.Context, payload []byte, sigHeader string) error {
	if err := tools.VerifyAbacateSignature(payload, sigHeader, s.AbacateWebhookSecret); err != nil {
		log.Printf("[WEBHOOK][ABACATE] assinatura inválida: %v", err)
		return err
	}

	var event struct {
		Event string `json:"event"`
		Data  struct {
			Billing struct {
				ID     string `json:"id"`
				Status string `json:"status"`
				Amount int64  `json:"amount"`
			} `json:"billing"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return apperr.Wrap(apperr.KIND_VALIDATION, "Webhook Error: corpo inválido.", err)
	}

	billing := event.Data.Billing
	if event.Event != "billing.paid" || billing.Status != "PAID" {
		log.Printf("[WEBHOOK][ABACATE] evento %q com status %q ignorado", event.Event, billing.Status)
		return nil
	}
	log.Printf("[WEBHOOK][ABACATE] pagamento PIX confirmado para a cobrança %s", billing.ID)

	var compra models.Purchase
	err := s.DB.Where("payment_session_id = ?", billing.ID).First(&compra).Error
	if err != nil {
		// sem compra registrada na criação da cobrança não há o que entregar;
		// fica para reconciliação manual
		log.Printf("[WEBHOOK][ABACATE] nenhuma compra encontrada para a cobrança %s: %v", billing.ID, err)
		return nil
	}
	if compra.PaymentStatus != models.PAYMENT_STATUS_PENDING {
		log.Printf("[WEBHOOK][ABACATE] cobrança %s já foi processada, ignorando", billing.ID)
		return nil
	}

	// contraprova com o provedor antes de marcar como paga: o evento diz PAID,
	// a API precisa confirmar. Se a consulta falhar a confirmação fica a cargo
	// do próprio evento assinado.
	if cobranca, err := s.Abacate.GetBilling(ctx, billing.ID); err != nil {
		log.Printf("[WEBHOOK][ABACATE] não foi possível confirmar a cobrança %s no provedor: %v", billing.ID, err)
	} else {
		if cobranca.Status != "PAID" {
			log.Printf("[WEBHOOK][ABACATE] provedor reporta a cobrança %s como %q, ignorando o evento", billing.ID, cobranca.Status)
			return nil
		}
		if cobranca.Amount != 0 && compra.AmountCents != 0 && cobranca.Amount != compra.AmountCents {
			log.Printf("[WEBHOOK][ABACATE] valor divergente na cobrança %s: provedor=%d compra=%d, ignorando",
				billing.ID, cobranca.Amount, compra.AmountCents)
			return nil
		}
	}

	// flip otimista: se outra entrega do mesmo evento chegou antes, nenhuma
	// linha é afetada e este processamento vira no-op
	res := s.DB.Model(&models.Purchase{}).
		Where("id = ? AND payment_status = ?", compra.ID, models.PAYMENT_STATUS_PENDING).
		Updates(map[string]any{
			"payment_status":  models.PAYMENT_STATUS_PAID,
			"delivery_status": models.DELIVERY_STATUS_PENDING,
		})
	if res.Error != nil {
		log.Printf("[WEBHOOK][ABACATE] erro ao marcar a compra %d como paga: %v", compra.ID, res.Error)
		return nil
	}
	if res.RowsAffected == 0 {
		log.Printf("[WEBHOOK][ABACATE] compra %d já estava paga, ignorando", compra.ID)
		return nil
	}
	compra.PaymentStatus = models.PAYMENT_STATUS_PAID
	compra.DeliveryStatus = models.DELIVERY_STATUS_PENDING

	log.Printf("[WEBHOOK][ABACATE] chamando a geração de conteúdo para a compra %d", compra.ID)
	if err := s.Conteudo.GerarConteudoPago(ctx, &compra); err != nil {
		log.Printf("[WEBHOOK][ABACATE] entrega da compra %d falhou: %v", compra.ID, err)
	}
	return nil
}
