package apperr

import (
	"errors"
	"net/http"
)

/************************************************
/**** MARK: ERROR KINDS ****/
/************************************************/
const KIND_VALIDATION = "validation"
const KIND_NOT_FOUND = "not_found"
const KIND_CONFLICT = "conflict"
const KIND_UPSTREAM = "upstream_provider"
const KIND_MALFORMED_OUTPUT = "malformed_output"
const KIND_INVALID_SIGNATURE = "invalid_signature"
const KIND_PERSISTENCE = "persistence"

// Error é o erro padrão da aplicação: um tipo (kind) estável para decisão
// de fluxo/HTTP status, uma mensagem segura para o cliente e a causa original.
type Error struct {
	Kind    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf devolve o kind do erro, ou "" se não for um *Error.
func KindOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

func IsKind(err error, kind string) bool {
	return KindOf(err) == kind
}

// PublicMessage devolve a mensagem segura para o cliente (sem a causa interna).
func PublicMessage(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "Ocorreu um problema inesperado."
}

// HTTPStatus mapeia o kind para o status HTTP equivalente.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KIND_VALIDATION, KIND_INVALID_SIGNATURE:
		return http.StatusBadRequest
	case KIND_NOT_FOUND:
		return http.StatusNotFound
	case KIND_CONFLICT:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
