package validation

import (
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,pwd"`
	Name     string  `json:"name" validate:"required,notblank"`
	Origin   *string `json:"origin" validate:"omitempty,notblank"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	Register(v)
	return v
}

func TestToDetails_ValidationErrors(t *testing.T) {
	blank := "  "
	err := newValidator().Struct(signup{Email: "nope", Name: " ", Origin: &blank})
	require.Error(t, err)

	d := ToDetails(err)
	assert.Equal(t, "must be a valid email", d["email"])
	assert.Equal(t, "is required", d["password"])
	assert.Equal(t, "must not be blank", d["name"])
	assert.Equal(t, "must not be blank", d["origin"])
}

func TestPasswordAlias(t *testing.T) {
	v := newValidator()
	long := make([]byte, 73)
	for i := range long {
		long[i] = 'a'
	}
	err := v.Struct(signup{Email: "a@b.com", Password: string(long), Name: "A"})
	require.Error(t, err)
	assert.Equal(t, "must be between 1 and 72 characters long", ToDetails(err)["password"])

	assert.NoError(t, v.Struct(signup{Email: "a@b.com", Password: "pw1", Name: "A"}))
}

func TestToDetails_DecodeErrors(t *testing.T) {
	assert.Nil(t, ToDetails(nil))
	assert.Equal(t, "request body is empty", ToDetails(io.EOF)["payload"])

	var dst struct {
		N int `json:"n"`
	}
	err := json.Unmarshal([]byte(`{"n":`), &dst)
	assert.Equal(t, "invalid json", ToDetails(err)["payload"])

	err = json.Unmarshal([]byte(`{"n":"x"}`), &dst)
	assert.Equal(t, "must be a int", ToDetails(err)["n"])

	_, err = time.Parse(time.RFC3339, "yesterday")
	assert.Contains(t, ToDetails(err)["payload"], "RFC 3339")

	assert.Equal(t, "invalid payload", ToDetails(errors.New("boom"))["payload"])
}
