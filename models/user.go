package models

import (
	"time"

	"storia/tools"
)

// User representa um usuario no sistema
type User struct {
	ID         int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	Name       string     `gorm:"not null" json:"nome" form:"nome"`
	Email      string     `gorm:"not null;unique" json:"email" form:"email"`
	Password   string     `gorm:"not null" json:"-" form:"senha"`
	Phone      string     `gorm:"column:telefone;default:''" json:"telefone" form:"telefone"`
	LastAccess *time.Time `gorm:"column:ultimo_acesso" json:"ultimo_acesso"`
	CreatedAt  *time.Time `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "usuarios"
}

func (user User) MissingFields() string {
	if user.Name == "" {
		return "nome"
	} else if user.Email == "" {
		return "email"
	} else if user.Password == "" {
		return "senha"
	} else if tools.CheckPassword(user.Password) != "" {
		return tools.CheckPassword(user.Password)
	} else if user.Phone == "" {
		return "telefone"
	}
	return ""
}
