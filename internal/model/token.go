package model

import "time"

// AccessToken is a bearer credential issued to a user.
type AccessToken struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	TokenHash   string     `json:"-"` // Never serialize
	TokenPrefix string     `json:"tokenPrefix"`
	Name        string     `json:"name,omitempty"`
	RevokedAt   *time.Time `json:"revokedAt,omitempty"`
	LastUsedAt  *time.Time `json:"lastUsedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// IsRevoked returns true if the token has been revoked.
func (t *AccessToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

// Principal is the authenticated caller of a request.
// Auth middleware injects it into the request context.
type Principal struct {
	UserID      string
	TokenID     string
	TokenPrefix string
}
