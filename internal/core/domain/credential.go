package domain

import (
	"strings"
	"time"
)

type Credential struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Provider     string    `json:"provider"`
	APIKey       string    `json:"api_key,omitempty"`
	BaseURL      string    `json:"base_url,omitempty"`
	DefaultModel string    `json:"default_model,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Masked returns a listing-safe copy with the key reduced to its last four
// characters. The raw key leaves the server only once, at creation time.
func (c Credential) Masked() Credential {
	out := c
	if n := len(c.APIKey); n > 4 {
		out.APIKey = "****" + c.APIKey[n-4:]
	} else if n > 0 {
		out.APIKey = strings.Repeat("*", n)
	}
	return out
}

type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	PasswordDigest string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}
