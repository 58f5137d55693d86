package controllers

import (
	"net/http"
	"strings"
	"time"

	dbpkg "storia/db"
	"storia/models"
	"storia/tools"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type userInput struct {
	Name     string `json:"nome"`
	Email    string `json:"email"`
	Password string `json:"senha"`
	Phone    string `json:"telefone"`
}

// POST /api/usuarios
func CreateUser(c *gin.Context) {
	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
		return
	}

	var input userInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, "Corpo da requisição inválido.", http.StatusBadRequest)
		return
	}

	user := models.User{
		Name:     strings.TrimSpace(input.Name),
		Email:    strings.ToLower(strings.TrimSpace(input.Email)),
		Password: input.Password,
		Phone:    strings.TrimSpace(input.Phone),
	}

	if missing := user.MissingFields(); missing != "" {
		RespondError(c, "Faltando campo "+missing+" no usuário.", http.StatusBadRequest)
		return
	}
	if !tools.ValidateEmail(user.Email) {
		RespondError(c, "Email inválido.", http.StatusBadRequest)
		return
	}

	var existing models.User
	if err := db.Where("email = ?", user.Email).First(&existing).Error; err == nil {
		RespondError(c, "Este email já está em uso.", http.StatusConflict)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		RespondError(c, "Falha ao processar a senha.", http.StatusInternalServerError)
		return
	}
	user.Password = string(hash)

	if err := db.Create(&user).Error; err != nil {
		RespondError(c, "Falha ao criar o usuário.", http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusCreated, user)
}

type loginInput struct {
	Email    string `json:"email"`
	Password string `json:"senha"`
}

// Login emite um JWT para o usuário. Fábrica para injetar o segredo e a
// validade vindos da configuração.
func Login(secret string, validHours int) gin.HandlerFunc {
	return func(c *gin.Context) {
		db := dbpkg.DBInstance(c)
		if db == nil {
			RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
			return
		}

		var input loginInput
		if err := c.ShouldBindJSON(&input); err != nil {
			RespondError(c, "Corpo da requisição inválido.", http.StatusBadRequest)
			return
		}

		email := strings.ToLower(strings.TrimSpace(input.Email))

		var user models.User
		if err := db.Where("email = ?", email).First(&user).Error; err != nil {
			RespondError(c, "Email ou senha inválidos.", http.StatusUnauthorized)
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
			RespondError(c, "Email ou senha inválidos.", http.StatusUnauthorized)
			return
		}

		token, err := GenerateToken(user, secret, validHours)
		if err != nil {
			RespondError(c, "Falha ao gerar o token.", http.StatusInternalServerError)
			return
		}

		now := time.Now()
		db.Model(&user).Update("ultimo_acesso", &now)

		RespondSuccess(c, gin.H{
			"token":   token,
			"usuario": user,
		})
	}
}
