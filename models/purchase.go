package models

import "time"

/************************************************
/**** MARK: PAYMENT STATUS ****/
/************************************************/
const PAYMENT_STATUS_PENDING = "PENDING"
const PAYMENT_STATUS_PAID = "paid"

/************************************************
/**** MARK: DELIVERY STATUS ****/
/************************************************/
const DELIVERY_STATUS_PENDING = "PENDENTE"
const DELIVERY_STATUS_DELIVERED = "ENTREGUE"
const DELIVERY_STATUS_ERROR = "ERRO_NA_GERACAO"

// Purchase representa uma compra de plano (tabela "compras").
//
// PaymentSessionID é a chave de correlação com o provedor (session id da
// Stripe ou billing id da AbacatePay) e é único: é ele que garante a
// idempotência do processamento de webhooks, inclusive no banco.
//
// Os parâmetros do pedido de conteúdo (setor, tipo de negócio, objetivo) são
// capturados no momento da compra, para que a entrega aconteça depois sem
// depender do metadata do webhook.
//
// Compras nunca são deletadas.
type Purchase struct {
	ID               int64  `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	UserID           int64  `gorm:"not null;index" json:"user_id"`
	PaymentSessionID string `gorm:"not null;unique_index" json:"payment_session_id"`
	ProductID        string `gorm:"default:''" json:"produto_id"`
	PriceID          string `gorm:"not null" json:"preco_id"`
	AmountCents      int64  `gorm:"not null;default:0" json:"valor_total_centavos"`
	PaymentStatus    string `gorm:"not null;default:'PENDING';index" json:"status_pagamento"`
	DeliveryStatus   string `gorm:"default:'';index" json:"status_entrega"`

	Sector        string `gorm:"column:setor;default:''" json:"setor"`
	BusinessType  string `gorm:"column:tipo_negocio;default:''" json:"tipo_negocio"`
	MainObjective string `gorm:"column:objetivo_principal;default:''" json:"objetivo_principal"`

	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

func (Purchase) TableName() string {
	return "compras"
}
