package auth

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

// LoginRequest is the login form or JSON payload accepted by the HTTP
// adapters
type LoginRequest struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
	Remember bool   `form:"remember" json:"remember"`
}

// Validate only checks the username; an empty password is reported by
// Session.Login so it never reaches the throttle.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(1, 255)),
	)
}

// LogoutRequest carries the Logout flags
type LogoutRequest struct {
	Destroy bool `form:"destroy" json:"destroy"`
	All     bool `form:"all" json:"all"`
}
