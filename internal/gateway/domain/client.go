package domain

import "time"

// Client is an OAuth2 client registered for the client-credentials grant.
// It is immutable once created.
type Client struct {
	ID          string
	Name        string
	SecretHash  string // argon2id PHC string
	RedirectURI string
	Scopes      []string
	CreatedAt   time.Time
}

// DefaultClientScopes are granted to every registered client.
var DefaultClientScopes = []string{"compute", "register"}
