package keys

import (
	"context"
	"errors"
	"time"
)

// ErrUnknownKID indica un kid que no corresponde a la clave del proceso.
var ErrUnknownKID = errors.New("unknown kid")

// StoredKey es la forma persistida del par de claves.
type StoredKey struct {
	KID       string    `json:"kid"`
	Alg       string    `json:"alg"`
	Seed      []byte    `json:"-"`
	PublicKey []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// KeyStore persiste el par de claves entre arranques del proceso.
// Load retorna repository.ErrNotFound cuando todavía no hay clave guardada.
type KeyStore interface {
	Load(ctx context.Context) (*StoredKey, error)
	Save(ctx context.Context, key *StoredKey) error
}
