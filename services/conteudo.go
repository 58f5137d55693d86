package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/jinzhu/gorm"
	"golang.org/x/sync/singleflight"

	"storia/apperr"
	"storia/config"
	"storia/models"
	"storia/tools"
)

const msgErroGeracao = "Ocorreu um erro ao gerar seu conteúdo. Por favor, tente novamente mais tarde."

// BuscadorDeTendencias é o que o orquestrador precisa da pesquisa de mercado.
// tools.SearchClient satisfaz.
type BuscadorDeTendencias interface {
	PesquisarTendencias(ctx context.Context, termoDeBusca string) string
}

// StrategicAnalysis é a análise estratégica do plano, produzida uma única vez
// a partir do primeiro lote.
type StrategicAnalysis struct {
	TituloEstrategia string `json:"tituloEstrategia"`
	FunilEscolhido   string `json:"funilEscolhido"`
	Justificativa    string `json:"justificativa"`
}

// ScheduleEntry é um dia da agenda de postagens.
type ScheduleEntry struct {
	Dia             int      `json:"dia"`
	EtapaFunil      string   `json:"etapaFunil"`
	FormatoSugerido string   `json:"formatoSugerido"`
	Titulo          string   `json:"titulo"`
	Conteudo        string   `json:"conteudo"`
	SugestaoVisual  string   `json:"sugestaoVisual"`
	Hashtags        []string `json:"hashtags"`
}

// GeneratedPlan é o resultado completo serializado em GeneratedContent.Content.
type GeneratedPlan struct {
	AnaliseEstrategica StrategicAnalysis `json:"analiseEstrategica"`
	AgendaDePostagens  []ScheduleEntry   `json:"agendaDePostagens"`
}

// ConteudoService é a linha de montagem de conteúdo: orquestra refinamento,
// pesquisa e geração em lotes, e cuida da entrega (gratuita e paga).
type ConteudoService struct {
	DB     *gorm.DB
	IA     tools.IAClient
	Search BuscadorDeTendencias

	// DiasPorLote limita o tamanho de cada chamada à IA; DelayEntreLotes é um
	// freio fixo contra rate limit do provedor. DiasGratis é a duração do
	// plano de boas-vindas.
	DiasPorLote     int
	DelayEntreLotes time.Duration
	DiasGratis      int

	// freeGrant serializa pedidos concorrentes de conteúdo gratuito do mesmo
	// usuário, fechando a janela de corrida do checa-e-insere.
	freeGrant singleflight.Group
}

func NewConteudoService(db *gorm.DB, ia tools.IAClient, search BuscadorDeTendencias) *ConteudoService {
	return &ConteudoService{
		DB:              db,
		IA:              ia,
		Search:          search,
		DiasPorLote:     7,
		DelayEntreLotes: 1 * time.Second,
		DiasGratis:      5,
	}
}

// refinarTermos usa uma chamada rápida à IA para traduzir os termos genéricos
// do usuário em palavras-chave profissionais de pesquisa de mercado.
// É melhor-esforço: qualquer falha devolve os termos originais e o fluxo segue.
func (s *ConteudoService) refinarTermos(ctx context.Context, dados ContentRequest) ContentRequest {
	resposta, err := s.IA.GerarResposta(ctx, BuildRefinementPrompt(dados))
	if err != nil {
		log.Printf("[CONTEUDO] falha ao refinar termos de busca, usando os originais: %v", err)
		return dados
	}

	jsonLimpo, err := tools.ExtractJSON(resposta)
	if err != nil {
		log.Printf("[CONTEUDO] falha ao refinar termos de busca, usando os originais: %v", err)
		return dados
	}

	var refinados ContentRequest
	if err := json.Unmarshal([]byte(jsonLimpo), &refinados); err != nil {
		log.Printf("[CONTEUDO] falha ao refinar termos de busca, usando os originais: %v", err)
		return dados
	}

	// devolve os dados originais com os valores refinados por cima
	out := dados
	if refinados.Setor != "" {
		out.Setor = refinados.Setor
	}
	if refinados.TipoNegocio != "" {
		out.TipoNegocio = refinados.TipoNegocio
	}
	if refinados.ObjetivoPrincipal != "" {
		out.ObjetivoPrincipal = refinados.ObjetivoPrincipal
	}
	return out
}

// OrquestrarGeracao produz o plano completo para a duração pedida e devolve o
// resultado serializado.
//
// O refinamento e a pesquisa são recuperáveis; a geração de lotes não é: se
// qualquer lote falhar, a orquestração inteira falha e nada é persistido.
// Os lotes rodam em ordem estrita para preservar a sequência de dias.
func (s *ConteudoService) OrquestrarGeracao(ctx context.Context, dados ContentRequest, duracaoTotalDias int) (string, error) {
	if duracaoTotalDias < 1 {
		return "", apperr.New(apperr.KIND_VALIDATION, "A duração do plano deve ser de pelo menos 1 dia.")
	}

	refinados := s.refinarTermos(ctx, dados)
	log.Printf("[CONTEUDO] termos refinados para pesquisa: %+v", refinados)

	termoDeBusca := fmt.Sprintf("estratégias de marketing de conteúdo para %s com foco em %s",
		refinados.TipoNegocio, refinados.ObjetivoPrincipal)
	contextoAtual := s.Search.PesquisarTendencias(ctx, termoDeBusca)

	var analiseFinal StrategicAnalysis
	var agendaFinal []ScheduleEntry

	log.Printf("[CONTEUDO] iniciando linha de montagem para %d dias", duracaoTotalDias)

	for diaInicial := 1; diaInicial <= duracaoTotalDias; diaInicial += s.DiasPorLote {
		diaFinal := diaInicial + s.DiasPorLote - 1
		if diaFinal > duracaoTotalDias {
			diaFinal = duracaoTotalDias
		}
		log.Printf("[CONTEUDO] gerando lote: dias %d a %d", diaInicial, diaFinal)

		// o prompt do lote usa os dados originais, não os refinados
		prompt := BuildSchedulePrompt(dados, duracaoTotalDias, diaInicial, diaFinal, contextoAtual)

		resposta, err := s.IA.GerarResposta(ctx, prompt)
		if err != nil {
			return "", err
		}
		jsonLimpo, err := tools.ExtractJSON(resposta)
		if err != nil {
			return "", err
		}

		var lote struct {
			AnaliseEstrategica *StrategicAnalysis `json:"analiseEstrategica"`
			AgendaDePostagens  []ScheduleEntry    `json:"agendaDePostagens"`
		}
		if err := json.Unmarshal([]byte(jsonLimpo), &lote); err != nil {
			return "", apperr.Wrap(apperr.KIND_MALFORMED_OUTPUT, "A IA retornou um JSON malformado.", err)
		}

		// a análise vale apenas no lote que contém o dia 1
		if diaInicial == 1 && lote.AnaliseEstrategica != nil {
			analiseFinal = *lote.AnaliseEstrategica
		}
		agendaFinal = append(agendaFinal, lote.AgendaDePostagens...)

		if diaFinal < duracaoTotalDias {
			time.Sleep(s.DelayEntreLotes)
		}
	}

	resultado, err := json.Marshal(GeneratedPlan{
		AnaliseEstrategica: analiseFinal,
		AgendaDePostagens:  agendaFinal,
	})
	if err != nil {
		return "", apperr.Wrap(apperr.KIND_MALFORMED_OUTPUT, "A IA retornou um JSON malformado.", err)
	}

	log.Printf("[CONTEUDO] linha de montagem concluída, %d dias gerados", len(agendaFinal))
	return string(resultado), nil
}

// VerificarStatusGratuito informa se o usuário já gerou seu conteúdo gratuito
// (conteúdo sem compra vinculada).
func (s *ConteudoService) VerificarStatusGratuito(usuarioID int64) (bool, error) {
	if usuarioID <= 0 {
		return false, apperr.New(apperr.KIND_VALIDATION, "ID do usuário é necessário para a verificação.")
	}

	var total int
	err := s.DB.Model(&models.GeneratedContent{}).
		Where("user_id = ? AND compra_id IS NULL", usuarioID).
		Count(&total).Error
	if err != nil {
		return false, apperr.Wrap(apperr.KIND_PERSISTENCE, "Erro ao verificar status gratuito.", err)
	}
	return total > 0, nil
}

// GerarConteudoGratis gera e persiste o plano gratuito de boas-vindas.
// No máximo um por usuário; pedidos concorrentes do mesmo usuário passam pelo
// singleflight e só o primeiro executa.
func (s *ConteudoService) GerarConteudoGratis(ctx context.Context, usuarioID int64, dados ContentRequest) error {
	_, err, _ := s.freeGrant.Do(strconv.FormatInt(usuarioID, 10), func() (any, error) {
		return nil, s.gerarConteudoGratis(ctx, usuarioID, dados)
	})
	return err
}

func (s *ConteudoService) gerarConteudoGratis(ctx context.Context, usuarioID int64, dados ContentRequest) error {
	jaGerou, err := s.VerificarStatusGratuito(usuarioID)
	if err != nil {
		return err
	}
	if jaGerou {
		return apperr.New(apperr.KIND_CONFLICT, "O conteúdo de 5 dias já foi gerado.")
	}

	conteudoFinal, err := s.OrquestrarGeracao(ctx, dados, s.DiasGratis)
	if err != nil {
		log.Printf("[CONTEUDO] FALHA na geração de conteúdo gratuito para o usuário %d: %v", usuarioID, err)
		// erro genérico e seguro para o front-end
		return apperr.Wrap(apperr.KIND_UPSTREAM, msgErroGeracao, err)
	}

	registro := models.GeneratedContent{
		UserID:     usuarioID,
		PurchaseID: nil,
		PromptUsed: "Prompt de boas-vindas (omitido)",
		Content:    conteudoFinal,
	}
	if err := s.DB.Create(&registro).Error; err != nil {
		log.Printf("[CONTEUDO] FALHA ao salvar conteúdo gratuito para o usuário %d: %v", usuarioID, err)
		return apperr.Wrap(apperr.KIND_PERSISTENCE, msgErroGeracao, err)
	}
	return nil
}

// GerarConteudoPago entrega o plano de uma compra paga, usando os parâmetros
// capturados na própria compra. Sucesso marca a entrega como ENTREGUE;
// qualquer falha marca ERRO_NA_GERACAO e para por aí — não há retry
// automático, a recuperação é manual ou via reenvio do webhook.
func (s *ConteudoService) GerarConteudoPago(ctx context.Context, compra *models.Purchase) error {
	dados := ContentRequest{
		Setor:             compra.Sector,
		TipoNegocio:       compra.BusinessType,
		ObjetivoPrincipal: compra.MainObjective,
	}

	plano, ok := config.PlanByPriceID(compra.PriceID)
	if !ok {
		s.marcarEntregaComErro(compra.ID)
		return apperr.New(apperr.KIND_NOT_FOUND, "Plano não encontrado.")
	}

	conteudoFinal, err := s.OrquestrarGeracao(ctx, dados, plano.Dias)
	if err != nil {
		log.Printf("[CONTEUDO] FALHA na geração de conteúdo pago para a compra %d: %v", compra.ID, err)
		s.marcarEntregaComErro(compra.ID)
		return err
	}

	registro := models.GeneratedContent{
		UserID:     compra.UserID,
		PurchaseID: &compra.ID,
		PromptUsed: "Prompt de plano pago (omitido)",
		Content:    conteudoFinal,
	}
	if err := s.DB.Create(&registro).Error; err != nil {
		log.Printf("[CONTEUDO] FALHA ao salvar conteúdo pago para a compra %d: %v", compra.ID, err)
		s.marcarEntregaComErro(compra.ID)
		return apperr.Wrap(apperr.KIND_PERSISTENCE, "Erro ao salvar o conteúdo gerado.", err)
	}

	err = s.DB.Model(&models.Purchase{}).
		Where("id = ?", compra.ID).
		Update("delivery_status", models.DELIVERY_STATUS_DELIVERED).Error
	if err != nil {
		log.Printf("[CONTEUDO] FALHA ao marcar compra %d como entregue: %v", compra.ID, err)
		return apperr.Wrap(apperr.KIND_PERSISTENCE, "Erro ao atualizar a entrega.", err)
	}

	log.Printf("[CONTEUDO] conteúdo pago gerado para a compra %d", compra.ID)
	return nil
}

func (s *ConteudoService) marcarEntregaComErro(compraID int64) {
	err := s.DB.Model(&models.Purchase{}).
		Where("id = ?", compraID).
		Update("delivery_status", models.DELIVERY_STATUS_ERROR).Error
	if err != nil {
		log.Printf("[CONTEUDO] FALHA ao marcar erro de entrega da compra %d: %v", compraID, err)
	}
}

// ObterConteudosDoUsuario devolve a lista unificada do dashboard: conteúdos
// prontos mais compras pagas ainda em geração, da mais recente para a mais
// antiga.
func (s *ConteudoService) ObterConteudosDoUsuario(usuarioID int64) ([]ContentListItem, error) {
	var prontos []models.GeneratedContent
	if err := s.DB.Where("user_id = ?", usuarioID).Find(&prontos).Error; err != nil {
		return nil, apperr.Wrap(apperr.KIND_PERSISTENCE, "Erro ao buscar seus conteúdos.", err)
	}

	var pendentes []models.Purchase
	err := s.DB.Where("user_id = ? AND delivery_status = ?", usuarioID, models.DELIVERY_STATUS_PENDING).
		Find(&pendentes).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.KIND_PERSISTENCE, "Erro ao buscar seus conteúdos.", err)
	}

	var compras []models.Purchase
	if err := s.DB.Where("user_id = ?", usuarioID).Find(&compras).Error; err != nil {
		return nil, apperr.Wrap(apperr.KIND_PERSISTENCE, "Erro ao buscar seus conteúdos.", err)
	}
	precoPorCompra := make(map[int64]string, len(compras))
	for _, c := range compras {
		precoPorCompra[c.ID] = c.PriceID
	}

	return MergeContentList(prontos, pendentes, precoPorCompra), nil
}
