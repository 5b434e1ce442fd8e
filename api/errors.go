package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcdexio/yield-battle-vault/chain"
	"github.com/mcdexio/yield-battle-vault/leaderboard"
	"github.com/mcdexio/yield-battle-vault/ledger"
	"github.com/mcdexio/yield-battle-vault/profile"
	"github.com/mcdexio/yield-battle-vault/vault"
)

var statusOfCategory = map[vault.Category]int{
	vault.CategoryValidation:     http.StatusBadRequest,
	vault.CategoryStateConflict:  http.StatusConflict,
	vault.CategoryUnauthorized:   http.StatusForbidden,
	vault.CategoryTransferFailed: http.StatusPaymentRequired,
	vault.CategoryNotFound:       http.StatusNotFound,
}

// errBadRequest marks undecodable input.
var errBadRequest = errors.New("invalid request")

type errorResp struct {
	Error    string `json:"error"`
	Code     string `json:"code"`
	Category string `json:"category"`
}

// classify maps err to a status and the wire error.
func classify(err error) (int, errorResp) {
	if e, ok := vault.AsError(err); ok {
		return statusOfCategory[e.Category], errorResp{err.Error(), e.Code, string(e.Category)}
	}
	validation := func(code string) (int, errorResp) {
		return http.StatusBadRequest, errorResp{err.Error(), code, string(vault.CategoryValidation)}
	}
	conflict := func(code string) (int, errorResp) {
		return http.StatusConflict, errorResp{err.Error(), code, string(vault.CategoryStateConflict)}
	}
	notFound := func(code string) (int, errorResp) {
		return http.StatusNotFound, errorResp{err.Error(), code, string(vault.CategoryNotFound)}
	}
	switch {
	case errors.Is(err, errBadRequest):
		return validation("BAD_REQUEST")
	case errors.Is(err, chain.ErrInvalidAddress), errors.Is(err, ledger.ErrInvalidAccount):
		return validation(vault.ErrInvalidAddress.Code)
	case errors.Is(err, ledger.ErrInvalidAmount):
		return validation("INVALID_AMOUNT")
	case errors.Is(err, profile.ErrUsernameTooShort), errors.Is(err, profile.ErrUsernameTooLong):
		return validation("INVALID_USERNAME")
	case errors.Is(err, profile.ErrUsernameTaken):
		return conflict("USERNAME_TAKEN")
	case errors.Is(err, profile.ErrAlreadyRegistered):
		return conflict("ALREADY_REGISTERED")
	case errors.Is(err, profile.ErrNotRegistered):
		return notFound("NOT_REGISTERED")
	case errors.Is(err, leaderboard.ErrUnknownUser):
		return notFound("UNKNOWN_USER")
	case errors.Is(err, ledger.ErrInsufficientFunds), errors.Is(err, ledger.ErrInsufficientAllowance):
		return http.StatusPaymentRequired, errorResp{err.Error(), vault.ErrTransferFailed.Code, string(vault.CategoryTransferFailed)}
	}
	return http.StatusInternalServerError, errorResp{"internal error", "INTERNAL", "internal"}
}

func (s *Server) jsonError(w http.ResponseWriter, r *http.Request, err error) {
	code, resp := classify(err)
	if code == http.StatusInternalServerError {
		s.logger.Error("%s %s failed: %s", r.Method, r.URL.Path, err)
	} else {
		s.logger.Debug("%s %s rejected: %s", r.Method, r.URL.Path, err)
	}
	writeJSON(w, code, resp)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
