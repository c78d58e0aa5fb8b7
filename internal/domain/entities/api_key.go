package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// ApiKeyPermission scopes what an API key may do
type ApiKeyPermission string

const (
	PermissionRead  ApiKeyPermission = "read"
	PermissionWrite ApiKeyPermission = "write"
	PermissionAdmin ApiKeyPermission = "admin"
)

// ApiKey is a capability-scoped credential owned by a merchant. Only the
// bcrypt hash of the secret part is stored; Prefix is the lookup handle.
type ApiKey struct {
	ID          uuid.UUID          `json:"id"`
	MerchantID  uuid.UUID          `json:"merchantId"`
	Name        string             `json:"name"`
	Prefix      string             `json:"prefix"`
	KeyHash     string             `json:"-"`
	Permissions []ApiKeyPermission `json:"permissions"`
	Active      bool               `json:"active"`
	ExpiresAt   null.Time          `json:"expiresAt,omitempty"`
	LastUsedAt  null.Time          `json:"lastUsedAt,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
}

// Expired reports whether the key is past its expiry.
func (k *ApiKey) Expired(now time.Time) bool {
	return k.ExpiresAt.Valid && now.After(k.ExpiresAt.Time)
}

// HasPermission reports whether the key grants the permission. Admin keys
// grant everything.
func (k *ApiKey) HasPermission(p ApiKeyPermission) bool {
	for _, have := range k.Permissions {
		if have == p || have == PermissionAdmin {
			return true
		}
	}
	return false
}
