package models

// AdminSessionRequest stores the backend bearer token for an admin browser.
type AdminSessionRequest struct {
	Token string `json:"token" validate:"required,min=8"`
}
