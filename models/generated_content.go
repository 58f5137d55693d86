package models

import "time"

// GeneratedContent é um plano de conteúdo entregue (tabela "conteudos_gerados").
// PurchaseID nulo marca o conteúdo gratuito: no máximo um por usuário.
// O campo Content guarda o JSON serializado
// {analiseEstrategica, agendaDePostagens} exatamente como foi gerado.
// Registros são imutáveis depois de criados.
type GeneratedContent struct {
	ID         int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	UserID     int64      `gorm:"not null;index" json:"user_id"`
	PurchaseID *int64     `gorm:"column:compra_id;index" json:"compra_id"`
	PromptUsed string     `gorm:"column:prompt_utilizado;type:text" json:"prompt_utilizado"`
	Content    string     `gorm:"column:conteudo_gerado;type:text" json:"conteudo_gerado"`
	CreatedAt  *time.Time `json:"created_at"`
}

func (GeneratedContent) TableName() string {
	return "conteudos_gerados"
}
