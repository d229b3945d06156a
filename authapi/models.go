package authapi

import (
	"errors"
	"strings"

	"github.com/jrsteele09/farma-console/users"
)

// LoginRequest is the body of POST /empleados/login
type LoginRequest struct {
	Identifier string `json:"usuario"`
	Secret     string `json:"contrasena"`
	RememberMe bool   `json:"rememberMe,omitempty"`
}

// LoginResponse is returned by the login and refresh endpoints.
type LoginResponse struct {
	// Token is the access token used as "Authorization: Bearer <token>".
	Token string `json:"token"`

	// RefreshToken is only sent by backends that rotate refresh tokens.
	RefreshToken *string `json:"refreshToken,omitempty"`

	// User is the authenticated employee.
	User users.User `json:"user"`

	// ExpiresIn is the lifetime of Token in seconds.
	ExpiresIn int `json:"expiresIn"`
}

// A session can't exist without a token
func (r *LoginResponse) validate() error {
	if r.Token == "" {
		return errors.New("response carried no token")
	}
	return nil
}

// RegisterRequest is the body of POST /empleados/register.
// Secret and ConfirmSecret are compared by the caller, the server is authoritative.
type RegisterRequest struct {
	DisplayName   string `json:"nombre"`
	Identifier    string `json:"usuario"`
	Secret        string `json:"contrasena"`
	ConfirmSecret string `json:"confirmPassword"`
}

// Validate performs the checks a form does before submitting: every field is
// required and the confirmation must match. The server still decides.
func (r RegisterRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.DisplayName) == "":
		return NewInvalidInputError("name is required")
	case strings.TrimSpace(r.Identifier) == "":
		return NewInvalidInputError("identifier is required")
	case r.Secret == "":
		return NewInvalidInputError("password is required")
	case r.Secret != r.ConfirmSecret:
		return NewInvalidInputError("passwords do not match")
	}
	return nil
}

type RegisterResponse struct {
	Message string     `json:"message"`
	User    users.User `json:"user"`
}

// errorBody is the optional JSON error payload of a non-2xx response
type errorBody struct {
	Message string `json:"message"`
}
