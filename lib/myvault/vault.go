package myvault

import (
	"context"
	"time"

	"github.com/MarcGrol/shopcheckout/lib/mystore"
)

const (
	CurrentToken = "currentToken"
)

// Token holds provider credentials obtained out of band, for instance through an OAuth consent flow.
type Token struct {
	ProviderName string
	ClientID     string
	SessionUID   string
	Scopes       string
	CreatedAt    time.Time
	LastModified *time.Time
	AccessToken  string
	RefreshToken string
	ExpiresIn    *time.Time
}

//go:generate mockgen -source=vault.go -package myvault -destination vault_mock.go VaultReader,VaultReadWriter
type VaultReader[T any] interface {
	Get(c context.Context, uid string) (T, bool, error)
}

type VaultReadWriter[T any] interface {
	VaultReader[T]
	Put(c context.Context, uid string, value T) error
}

func New[T any](c context.Context) (VaultReadWriter[T], func(), error) {
	return mystore.New[T](c)
}
