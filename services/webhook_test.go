package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"storia/apperr"
	"storia/models"
	"storia/tools"
)

const (
	stripeSecret  = "whsec_teste"
	abacateSecret = "abacate_segredo"
)

func assinaturaStripe(payload []byte) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(stripeSecret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func assinaturaAbacate(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(abacateSecret))
	mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// abacateConfirmando devolve um fake cuja consulta de cobrança confirma o
// pagamento, espelhando o caminho feliz do provedor.
func abacateConfirmando(amount int64) *fakeAbacateAPI {
	return &fakeAbacateAPI{billing: &tools.AbacateBilling{Status: "PAID", Amount: amount}}
}

func novoWebhookService(t *testing.T, stripe StripeAPI, abacate AbacateAPI, entregador EntregadorDeConteudo) *WebhookService {
	t.Helper()
	return NewWebhookService(testDB(t), stripe, abacate, entregador, stripeSecret, abacateSecret)
}

func eventoStripeCompleto(sessionID string) []byte {
	return []byte(fmt.Sprintf(`{
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": %q,
			"client_reference_id": "1",
			"amount_total": 4990,
			"payment_status": "paid",
			"metadata": {"setor": "moda", "tipoNegocio": "e-commerce", "objetivoPrincipal": "vender roupas"}
		}}
	}`, sessionID))
}

func TestWebhookStripeRegistraCompraEDispara(t *testing.T) {
	stripe := &fakeStripeAPI{
		lineItems: []tools.StripeLineItem{{PriceID: price30Dias, ProductID: "prod_30"}},
	}
	entregador := &fakeEntregador{}
	svc := novoWebhookService(t, stripe, abacateConfirmando(4990), entregador)

	payload := eventoStripeCompleto("cs_hook_1")
	if err := svc.ProcessarWebhookStripe(context.Background(), payload, assinaturaStripe(payload)); err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}

	var compra models.Purchase
	if err := svc.DB.Where("payment_session_id = ?", "cs_hook_1").First(&compra).Error; err != nil {
		t.Fatalf("compra não registrada: %v", err)
	}
	if compra.PaymentStatus != models.PAYMENT_STATUS_PAID {
		t.Fatalf("compra deveria nascer paga, está %q", compra.PaymentStatus)
	}
	if compra.DeliveryStatus != models.DELIVERY_STATUS_PENDING {
		t.Fatalf("entrega deveria nascer PENDENTE, está %q", compra.DeliveryStatus)
	}
	if compra.PriceID != price30Dias || compra.AmountCents != 4990 {
		t.Fatalf("dados da compra errados: %+v", compra)
	}
	if compra.Sector != "moda" || compra.BusinessType != "e-commerce" || compra.MainObjective != "vender roupas" {
		t.Fatalf("metadata não foi capturado: %+v", compra)
	}

	if len(entregador.compras) != 1 {
		t.Fatalf("esperava 1 entrega disparada, teve %d", len(entregador.compras))
	}
	if entregador.compras[0].ID != compra.ID {
		t.Fatal("entrega disparada para a compra errada")
	}
}

func TestWebhookStripeReplayNaoDuplicaEntrega(t *testing.T) {
	stripe := &fakeStripeAPI{
		lineItems: []tools.StripeLineItem{{PriceID: price30Dias, ProductID: "prod_30"}},
	}
	entregador := &fakeEntregador{}
	svc := novoWebhookService(t, stripe, abacateConfirmando(4990), entregador)

	payload := eventoStripeCompleto("cs_hook_2")
	sig := assinaturaStripe(payload)

	if err := svc.ProcessarWebhookStripe(context.Background(), payload, sig); err != nil {
		t.Fatalf("primeira entrega falhou: %v", err)
	}
	if err := svc.ProcessarWebhookStripe(context.Background(), payload, sig); err != nil {
		t.Fatalf("replay deveria ser ack silencioso: %v", err)
	}

	var total int
	svc.DB.Model(&models.Purchase{}).Count(&total)
	if total != 1 {
		t.Fatalf("esperava 1 compra, teve %d", total)
	}
	if len(entregador.compras) != 1 {
		t.Fatalf("replay não pode disparar nova entrega, teve %d", len(entregador.compras))
	}
}

func TestWebhookStripeAssinaturaInvalida(t *testing.T) {
	entregador := &fakeEntregador{}
	svc := novoWebhookService(t, &fakeStripeAPI{}, abacateConfirmando(4990), entregador)

	payload := eventoStripeCompleto("cs_hook_3")
	err := svc.ProcessarWebhookStripe(context.Background(), payload, "t=1,v1=00")
	if !apperr.IsKind(err, apperr.KIND_INVALID_SIGNATURE) {
		t.Fatalf("esperava invalid_signature, teve: %v", err)
	}

	var total int
	svc.DB.Model(&models.Purchase{}).Count(&total)
	if total != 0 {
		t.Fatal("evento rejeitado não pode persistir nada")
	}
	if len(entregador.compras) != 0 {
		t.Fatal("evento rejeitado não pode disparar entrega")
	}
}

func TestWebhookStripeIgnoraOutrosEventos(t *testing.T) {
	entregador := &fakeEntregador{}
	svc := novoWebhookService(t, &fakeStripeAPI{}, abacateConfirmando(4990), entregador)

	payload := []byte(`{"type": "payment_intent.created", "data": {"object": {"id": "pi_1"}}}`)
	if err := svc.ProcessarWebhookStripe(context.Background(), payload, assinaturaStripe(payload)); err != nil {
		t.Fatalf("evento irrelevante deveria ser ack: %v", err)
	}
	if len(entregador.compras) != 0 {
		t.Fatal("evento irrelevante não pode disparar entrega")
	}
}

func TestWebhookStripeFalhaPosVerificacaoVira200(t *testing.T) {
	stripe := &fakeStripeAPI{lineItemsErr: apperr.New(apperr.KIND_UPSTREAM, "Erro no serviço da Stripe.")}
	svc := novoWebhookService(t, stripe, abacateConfirmando(4990), &fakeEntregador{})

	payload := eventoStripeCompleto("cs_hook_4")
	if err := svc.ProcessarWebhookStripe(context.Background(), payload, assinaturaStripe(payload)); err != nil {
		t.Fatalf("falha pós-verificação deveria ser absorvida: %v", err)
	}
}

func eventoAbacatePago(billingID, status string) []byte {
	return []byte(fmt.Sprintf(`{
		"event": "billing.paid",
		"data": {"billing": {"id": %q, "status": %q, "amount": 4990}}
	}`, billingID, status))
}

func criaCompraPendente(t *testing.T, svc *WebhookService, billingID string) models.Purchase {
	t.Helper()
	compra := models.Purchase{
		UserID:           1,
		PaymentSessionID: billingID,
		PriceID:          price30Dias,
		AmountCents:      4990,
		PaymentStatus:    models.PAYMENT_STATUS_PENDING,
		Sector:           "moda",
		BusinessType:     "e-commerce",
		MainObjective:    "vender roupas",
	}
	if err := svc.DB.Create(&compra).Error; err != nil {
		t.Fatalf("falha ao criar compra pendente: %v", err)
	}
	return compra
}

func TestWebhookAbacateConfirmaPagamentoEDispara(t *testing.T) {
	entregador := &fakeEntregador{}
	svc := novoWebhookService(t, &fakeStripeAPI{}, abacateConfirmando(4990), entregador)
	compra := criaCompraPendente(t, svc, "bill_hook_1")

	payload := eventoAbacatePago("bill_hook_1", "PAID")
	if err := svc.ProcessarWebhookAbacatePay(context.Background(), payload, assinaturaAbacate(payload)); err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}

	var atualizada models.Purchase
	svc.DB.First(&atualizada, compra.ID)
	if atualizada.PaymentStatus != models.PAYMENT_STATUS_PAID {
		t.Fatalf("compra deveria estar paga, está %q", atualizada.PaymentStatus)
	}
	if atualizada.DeliveryStatus != models.DELIVERY_STATUS_PENDING {
		t.Fatalf("entrega deveria estar PENDENTE, está %q", atualizada.DeliveryStatus)
	}

	if len(entregador.compras) != 1 {
		t.Fatalf("esperava 1 entrega disparada, teve %d", len(entregador.compras))
	}
	// a entrega usa os parâmetros capturados na criação da cobrança
	if entregador.compras[0].MainObjective != "vender roupas" {
		t.Fatalf("parâmetros errados na entrega: %+v", entregador.compras[0])
	}
}

func TestWebhookAbacateReplayViraNoOp(t *testing.T) {
	entregador := &fakeEntregador{}
	svc := novoWebhookService(t, &fakeStripeAPI{}, abacateConfirmando(4990), entregador)
	criaCompraPendente(t, svc, "bill_hook_2")

	payload := eventoAbacatePago("bill_hook_2", "PAID")
	sig := assinaturaAbacate(payload)

	if err := svc.ProcessarWebhookAbacatePay(context.Background(), payload, sig); err != nil {
		t.Fatalf("primeira entrega falhou: %v", err)
	}
	if err := svc.ProcessarWebhookAbacatePay(context.Background(), payload, sig); err != nil {
		t.Fatalf("replay deveria ser ack silencioso: %v", err)
	}

	if len(entregador.compras) != 1 {
		t.Fatalf("replay não pode disparar nova entrega, teve %d", len(entregador.compras))
	}
}

func TestWebhookAbacateSemCompraRegistrada(t *testing.T) {
	entregador := &fakeEntregador{}
	svc := novoWebhookService(t, &fakeStripeAPI{}, abacateConfirmando(4990), entregador)

	payload := eventoAbacatePago("bill_fantasma", "PAID")
	if err := svc.ProcessarWebhookAbacatePay(context.Background(), payload, assinaturaAbacate(payload)); err != nil {
		t.Fatalf("cobrança desconhecida deveria ser ack: %v", err)
	}
	if len(entregador.compras) != 0 {
		t.Fatal("cobrança desconhecida não pode disparar entrega")
	}
}

func TestWebhookAbacateAssinaturaInvalida(t *testing.T) {
	svc := novoWebhookService(t, &fakeStripeAPI{}, abacateConfirmando(4990), &fakeEntregador{})
	criaCompraPendente(t, svc, "bill_hook_3")

	payload := eventoAbacatePago("bill_hook_3", "PAID")
	err := svc.ProcessarWebhookAbacatePay(context.Background(), payload, "YXNzaW5hdHVyYSBlcnJhZGE=")
	if !apperr.IsKind(err, apperr.KIND_INVALID_SIGNATURE) {
		t.Fatalf("esperava invalid_signature, teve: %v", err)
	}

	var compra models.Purchase
	svc.DB.Where("payment_session_id = ?", "bill_hook_3").First(&compra)
	if compra.PaymentStatus != models.PAYMENT_STATUS_PENDING {
		t.Fatal("evento rejeitado não pode mudar o status da compra")
	}
}

func TestWebhookAbacateContraprovaRejeitaStatusDivergente(t *testing.T) {
	entregador := &fakeEntregador{}
	abacate := &fakeAbacateAPI{billing: &tools.AbacateBilling{Status: "PENDING", Amount: 4990}}
	svc := novoWebhookService(t, &fakeStripeAPI{}, abacate, entregador)
	compra := criaCompraPendente(t, svc, "bill_contraprova_1")

	payload := eventoAbacatePago("bill_contraprova_1", "PAID")
	if err := svc.ProcessarWebhookAbacatePay(context.Background(), payload, assinaturaAbacate(payload)); err != nil {
		t.Fatalf("divergência deveria ser ack silencioso: %v", err)
	}

	var atualizada models.Purchase
	svc.DB.First(&atualizada, compra.ID)
	if atualizada.PaymentStatus != models.PAYMENT_STATUS_PENDING {
		t.Fatalf("compra não confirmada pelo provedor não pode ser marcada como paga: %q", atualizada.PaymentStatus)
	}
	if len(entregador.compras) != 0 {
		t.Fatal("divergência de status não pode disparar entrega")
	}
}

func TestWebhookAbacateContraprovaRejeitaValorDivergente(t *testing.T) {
	entregador := &fakeEntregador{}
	svc := novoWebhookService(t, &fakeStripeAPI{}, abacateConfirmando(100), entregador)
	compra := criaCompraPendente(t, svc, "bill_contraprova_2")

	payload := eventoAbacatePago("bill_contraprova_2", "PAID")
	if err := svc.ProcessarWebhookAbacatePay(context.Background(), payload, assinaturaAbacate(payload)); err != nil {
		t.Fatalf("divergência deveria ser ack silencioso: %v", err)
	}

	var atualizada models.Purchase
	svc.DB.First(&atualizada, compra.ID)
	if atualizada.PaymentStatus != models.PAYMENT_STATUS_PENDING {
		t.Fatalf("valor divergente não pode marcar a compra como paga: %q", atualizada.PaymentStatus)
	}
	if len(entregador.compras) != 0 {
		t.Fatal("valor divergente não pode disparar entrega")
	}
}

func TestWebhookAbacateContraprovaIndisponivelSegueComOEvento(t *testing.T) {
	entregador := &fakeEntregador{}
	abacate := &fakeAbacateAPI{billingErr: apperr.New(apperr.KIND_UPSTREAM, "Erro no serviço da AbacatePay.")}
	svc := novoWebhookService(t, &fakeStripeAPI{}, abacate, entregador)
	compra := criaCompraPendente(t, svc, "bill_contraprova_3")

	payload := eventoAbacatePago("bill_contraprova_3", "PAID")
	if err := svc.ProcessarWebhookAbacatePay(context.Background(), payload, assinaturaAbacate(payload)); err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}

	// a consulta é contraprova, não pré-condição: o evento assinado basta
	var atualizada models.Purchase
	svc.DB.First(&atualizada, compra.ID)
	if atualizada.PaymentStatus != models.PAYMENT_STATUS_PAID {
		t.Fatalf("evento assinado deveria bastar quando a consulta falha: %q", atualizada.PaymentStatus)
	}
	if len(entregador.compras) != 1 {
		t.Fatalf("esperava 1 entrega, teve %d", len(entregador.compras))
	}
}

func TestWebhookAbacateIgnoraStatusNaoPago(t *testing.T) {
	entregador := &fakeEntregador{}
	svc := novoWebhookService(t, &fakeStripeAPI{}, abacateConfirmando(4990), entregador)
	criaCompraPendente(t, svc, "bill_hook_4")

	payload := eventoAbacatePago("bill_hook_4", "PENDING")
	if err := svc.ProcessarWebhookAbacatePay(context.Background(), payload, assinaturaAbacate(payload)); err != nil {
		t.Fatalf("status não pago deveria ser ack: %v", err)
	}
	if len(entregador.compras) != 0 {
		t.Fatal("status não pago não pode disparar entrega")
	}
}

// Fluxo PIX de ponta a ponta: cobrança criada, webhook confirma, conteúdo
// gerado e entrega marcada como ENTREGUE.
func TestFluxoPixDePontaAPonta(t *testing.T) {
	ia := &fakeIA{
		refinamentoResposta: "{}",
		agendaRespostas: []string{
			respostaDeLote("Plano Completo", 1, 7),
			respostaDeLote("", 8, 14),
			respostaDeLote("", 15, 21),
			respostaDeLote("", 22, 28),
			respostaDeLote("", 29, 30),
		},
	}
	db := testDB(t)
	conteudo := NewConteudoService(db, ia, &fakeSearch{})
	conteudo.DelayEntreLotes = 0
	svc := NewWebhookService(db, &fakeStripeAPI{}, abacateConfirmando(4990), conteudo, stripeSecret, abacateSecret)

	user := criaUsuario(t, db)
	compra := models.Purchase{
		UserID:           user.ID,
		PaymentSessionID: "bill_e2e",
		PriceID:          price30Dias,
		AmountCents:      4990,
		PaymentStatus:    models.PAYMENT_STATUS_PENDING,
		Sector:           "comida",
		BusinessType:     "restaurante",
		MainObjective:    "vender mais marmitas",
	}
	if err := db.Create(&compra).Error; err != nil {
		t.Fatalf("falha ao criar compra: %v", err)
	}

	payload := eventoAbacatePago("bill_e2e", "PAID")
	if err := svc.ProcessarWebhookAbacatePay(context.Background(), payload, assinaturaAbacate(payload)); err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}

	if len(ia.promptsAgenda) != 5 {
		t.Fatalf("plano de 30 dias deveria gerar 5 lotes, teve %d", len(ia.promptsAgenda))
	}

	var final models.Purchase
	db.First(&final, compra.ID)
	if final.PaymentStatus != models.PAYMENT_STATUS_PAID || final.DeliveryStatus != models.DELIVERY_STATUS_DELIVERED {
		t.Fatalf("estado final errado: payment=%q delivery=%q", final.PaymentStatus, final.DeliveryStatus)
	}

	var registro models.GeneratedContent
	if err := db.Where("compra_id = ?", compra.ID).First(&registro).Error; err != nil {
		t.Fatalf("conteúdo não foi salvo: %v", err)
	}
}

// Se a geração falhar no meio, a compra fica paga com entrega em erro e nada
// parcial é salvo.
func TestFluxoPixFalhaNoSegundoLote(t *testing.T) {
	ia := &fakeIA{
		refinamentoResposta: "{}",
		agendaRespostas:     []string{respostaDeLote("t", 1, 7)},
		agendaErros:         []error{nil, apperr.New(apperr.KIND_UPSTREAM, "Erro no serviço de IA.")},
	}
	db := testDB(t)
	conteudo := NewConteudoService(db, ia, &fakeSearch{})
	conteudo.DelayEntreLotes = 0
	svc := NewWebhookService(db, &fakeStripeAPI{}, abacateConfirmando(4990), conteudo, stripeSecret, abacateSecret)

	user := criaUsuario(t, db)
	compra := models.Purchase{
		UserID:           user.ID,
		PaymentSessionID: "bill_e2e_falha",
		PriceID:          price30Dias,
		PaymentStatus:    models.PAYMENT_STATUS_PENDING,
	}
	if err := db.Create(&compra).Error; err != nil {
		t.Fatalf("falha ao criar compra: %v", err)
	}

	payload := eventoAbacatePago("bill_e2e_falha", "PAID")
	if err := svc.ProcessarWebhookAbacatePay(context.Background(), payload, assinaturaAbacate(payload)); err != nil {
		t.Fatalf("falha de entrega deveria ser absorvida no webhook: %v", err)
	}

	var final models.Purchase
	db.First(&final, compra.ID)
	if final.PaymentStatus != models.PAYMENT_STATUS_PAID {
		t.Fatalf("pagamento confirmado não pode regredir: %q", final.PaymentStatus)
	}
	if final.DeliveryStatus != models.DELIVERY_STATUS_ERROR {
		t.Fatalf("entrega deveria estar ERRO_NA_GERACAO, está %q", final.DeliveryStatus)
	}

	var total int
	db.Model(&models.GeneratedContent{}).Where("compra_id = ?", compra.ID).Count(&total)
	if total != 0 {
		t.Fatalf("lote parcial não pode ser salvo, teve %d registros", total)
	}
}
