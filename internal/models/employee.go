package models

import (
	"strings"
	"time"
)

// Employee is a person who can log in and accrue pay for tracked work sessions.
// The JSON field names match the on-disk collection format.
type Employee struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password,omitempty"`
	HourlyRate   float64   `json:"hourlySalaryCZK"`
	CreatedAt    time.Time `json:"createdAt"`
	IsAdmin      bool      `json:"isAdmin"`

	// AccessToken is the identity provider token used for document metadata calls.
	AccessToken string `json:"accessToken,omitempty"`
}

// PublicEmployee is the credential-free view of an Employee returned to API callers.
type PublicEmployee struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	HourlyRate float64   `json:"hourlySalaryCZK"`
	CreatedAt  time.Time `json:"createdAt"`
	IsAdmin    bool      `json:"isAdmin"`
}

// Public strips the password hash and access token.
func (e *Employee) Public() PublicEmployee {
	return PublicEmployee{
		ID:         e.ID,
		Name:       e.Name,
		Email:      e.Email,
		HourlyRate: e.HourlyRate,
		CreatedAt:  e.CreatedAt,
		IsAdmin:    e.IsAdmin,
	}
}

// NormalizeEmail lower-cases and trims an email address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
