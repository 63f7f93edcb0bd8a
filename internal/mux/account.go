package mux

import (
	"errors"
	"net/http"

	"holdem-server/internal/jwt"
	"holdem-server/pkg/account"
	"holdem-server/pkg/holdem"
)

type accountPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Token    string `json:"token"`
}

func (m *Mux) postAccount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ap accountPayload
		if !decodeRequest(w, r, &ap) {
			return
		}

		if err := m.recaptcha.Verify(ap.Token); err != nil {
			writeJSONError(w, http.StatusBadRequest, err)
			return
		}

		acct, err := account.Create(r.Context(), ap.Username, ap.Email, ap.Password, holdem.StartingChips)
		if err != nil {
			if err == account.ErrDuplicateKey {
				writeJSONError(w, http.StatusBadRequest, errors.New("username or email address is already taken"))
				return
			}

			writeJSONError(w, http.StatusBadRequest, err)
			return
		}

		writeJSON(w, http.StatusCreated, acct)
	}
}

type authResponse struct {
	JWT     string           `json:"jwt"`
	Account *account.Account `json:"account"`
}

func (m *Mux) postAccountAuth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ap accountPayload
		if !decodeRequest(w, r, &ap) {
			return
		}

		acct, err := account.GetByUsernameAndPassword(r.Context(), ap.Username, ap.Password)
		if err != nil {
			if err == account.ErrInvalidUsernameOrPassword {
				writeJSONError(w, http.StatusUnauthorized, err)
				return
			}

			writeJSONError(w, http.StatusInternalServerError, err)
			return
		}

		signedJWT, err := jwt.Sign(acct.Username)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err)
			return
		}

		writeJSON(w, http.StatusOK, authResponse{
			JWT:     signedJWT,
			Account: acct,
		})
	}
}

func (m *Mux) getAccount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := r.Context().Value(ctxUsernameKey).(string)

		acct, err := account.GetByUsername(r.Context(), username)
		if err != nil {
			writeMaybeNotFoundError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, acct)
	}
}
