package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"

	"storia/models"
	"storia/tools"
)

// testDB abre um sqlite em memória por teste. Uma conexão só: o sqlite em
// memória morre quando o pool abre uma segunda.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("falha ao abrir sqlite em memória: %v", err)
	}
	db.DB().SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.User{}, &models.Purchase{}, &models.GeneratedContent{}).Error; err != nil {
		t.Fatalf("falha no automigrate: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// fakeIA responde prompts de refinamento e de agenda separadamente, gravando
// tudo o que recebeu.
type fakeIA struct {
	refinamentoResposta string
	refinamentoErr      error

	agendaRespostas []string
	agendaErros     []error

	promptsRefinamento []string
	promptsAgenda      []string
}

func (f *fakeIA) GerarResposta(ctx context.Context, prompt string) (string, error) {
	if strings.Contains(prompt, "## PAPEL") {
		i := len(f.promptsAgenda)
		f.promptsAgenda = append(f.promptsAgenda, prompt)
		if i < len(f.agendaErros) && f.agendaErros[i] != nil {
			return "", f.agendaErros[i]
		}
		if i < len(f.agendaRespostas) {
			return f.agendaRespostas[i], nil
		}
		return respostaDeLote("", 1, 1), nil
	}

	f.promptsRefinamento = append(f.promptsRefinamento, prompt)
	return f.refinamentoResposta, f.refinamentoErr
}

// respostaDeLote monta a resposta da IA para um lote de dias, com ou sem
// análise estratégica.
func respostaDeLote(tituloAnalise string, diaInicial, diaFinal int) string {
	agenda := make([]ScheduleEntry, 0, diaFinal-diaInicial+1)
	for dia := diaInicial; dia <= diaFinal; dia++ {
		agenda = append(agenda, ScheduleEntry{
			Dia:             dia,
			EtapaFunil:      "AWARE",
			FormatoSugerido: "Feed",
			Titulo:          fmt.Sprintf("Post do dia %d", dia),
			Conteudo:        "Texto do post.",
			SugestaoVisual:  "Foto do produto.",
			Hashtags:        []string{"#teste"},
		})
	}

	body := map[string]any{"agendaDePostagens": agenda}
	if tituloAnalise != "" {
		body["analiseEstrategica"] = StrategicAnalysis{
			TituloEstrategia: tituloAnalise,
			FunilEscolhido:   "5 A's",
			Justificativa:    "Justificativa de teste.",
		}
	}
	b, _ := json.Marshal(body)
	return "```json\n" + string(b) + "\n```"
}

type fakeSearch struct {
	contexto string
	termos   []string
}

func (f *fakeSearch) PesquisarTendencias(ctx context.Context, termoDeBusca string) string {
	f.termos = append(f.termos, termoDeBusca)
	if f.contexto == "" {
		return "Nenhum resultado relevante encontrado na pesquisa em tempo real."
	}
	return f.contexto
}

type fakeStripeAPI struct {
	sessao       *tools.StripeCheckoutSession
	sessaoErr    error
	params       []tools.CheckoutSessionParams
	lineItems    []tools.StripeLineItem
	lineItemsErr error
}

func (f *fakeStripeAPI) CreateCheckoutSession(ctx context.Context, params tools.CheckoutSessionParams) (*tools.StripeCheckoutSession, error) {
	f.params = append(f.params, params)
	return f.sessao, f.sessaoErr
}

func (f *fakeStripeAPI) ListLineItems(ctx context.Context, sessionID string) ([]tools.StripeLineItem, error) {
	return f.lineItems, f.lineItemsErr
}

type fakeAbacateAPI struct {
	billing    *tools.AbacateBilling
	billingErr error
	requests   []tools.AbacateBillingRequest
}

func (f *fakeAbacateAPI) CreateBilling(ctx context.Context, billing tools.AbacateBillingRequest) (*tools.AbacateBilling, error) {
	f.requests = append(f.requests, billing)
	return f.billing, f.billingErr
}

func (f *fakeAbacateAPI) GetBilling(ctx context.Context, billingID string) (*tools.AbacateBilling, error) {
	return f.billing, f.billingErr
}

type fakeEntregador struct {
	compras []models.Purchase
	err     error
}

func (f *fakeEntregador) GerarConteudoPago(ctx context.Context, compra *models.Purchase) error {
	f.compras = append(f.compras, *compra)
	return f.err
}

func criaUsuario(t *testing.T, db *gorm.DB) models.User {
	t.Helper()
	user := models.User{
		Name:     "Maria Teste",
		Email:    "maria@teste.com",
		Password: "hash",
		Phone:    "(11) 99999-0000",
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("falha ao criar usuário: %v", err)
	}
	return user
}
