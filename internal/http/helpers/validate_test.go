package helpers

import (
	"errors"
	"net/http"
	"testing"

	httperrors "github.com/luiz-custodio/email-send/internal/http/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Recipients []string `json:"recipients" validate:"required,min=1,dive,email"`
	Subject    *string  `json:"subject" validate:"required"`
}

func TestValidateStruct(t *testing.T) {
	empty := ""

	assert.NoError(t, ValidateStruct(sample{Recipients: []string{"a@x.com"}, Subject: &empty}))

	err := ValidateStruct(sample{Recipients: []string{"a@x.com", "bad"}})
	require.Error(t, err)

	var appErr *httperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.HTTPStatus)
	assert.Contains(t, appErr.Detail, "recipients[1]")
	assert.Contains(t, appErr.Detail, "subject: campo requerido")
}
