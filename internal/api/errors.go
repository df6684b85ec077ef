package api

import (
	"errors"
	"net/http"

	"github.com/closedwallet/closedwallet/internal/domain"
)

// statusForKind maps the closed sum of domain.Kind to an HTTP status code.
// Every handler uses it for domain errors, except that
// GetTransactionByIdHandler answers a missing transaction with 404.
func statusForKind(k domain.Kind) int {
	switch k {
	case domain.KindValidation, domain.KindNotFound, domain.KindInsufficientFunds:
		return http.StatusBadRequest
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindContention, domain.KindCorruption, domain.KindInfrastructure:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func messageForError(err error) string {
	var derr *domain.Error
	if errors.As(err, &derr) {
		return derr.Message
	}
	return "internal error"
}
