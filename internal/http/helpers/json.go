package helpers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	httperrors "github.com/luiz-custodio/email-send/internal/http/errors"
)

// MaxBodyBytes limita el body de los requests JSON (1MB).
const MaxBodyBytes = 1 << 20

// ReadJSON decodifica el body en v de forma tolerante (no falla por campos desconocidos).
// Un body vacío o malformado retorna ErrInvalidJSON; uno demasiado grande, ErrBodyTooLarge.
func ReadJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return httperrors.ErrBodyTooLarge.WithCause(err)
		}
		if errors.Is(err, io.EOF) {
			return httperrors.ErrInvalidJSON.WithDetail("body vacío").WithCause(err)
		}
		return httperrors.ErrInvalidJSON.WithDetail(err.Error()).WithCause(err)
	}
	return nil
}

// WriteJSON escribe una respuesta JSON estándar.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
