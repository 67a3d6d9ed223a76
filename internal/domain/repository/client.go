package repository

import "context"

const (
	ClientTypePublic       = "public"
	ClientTypeConfidential = "confidential"
)

// Client representa un cliente OAuth registrado.
type Client struct {
	ClientID   string // identificador público, único
	Name       string
	Type       string // "public" | "confidential"
	SecretHash string // PHC argon2id; vacío para clients públicos
	Scopes     []string
}

// HasSecret reporta si el client registró un secret no vacío.
// Un client sin secret no puede probar su identidad y nunca califica
// para auto-approval.
func (c *Client) HasSecret() bool {
	return c != nil && c.SecretHash != ""
}

// ClientInput contiene los datos para registrar un client.
type ClientInput struct {
	ClientID string
	Name     string
	Type     string
	Secret   string // plain, se hashea al persistir
	Scopes   []string
}

// ClientRepository define el registry de clients que el core consume.
type ClientRepository interface {
	// Get obtiene un client por su client_id público.
	// Retorna ErrNotFound si no existe; nunca un placeholder vacío.
	Get(ctx context.Context, clientID string) (*Client, error)

	// Put registra o reemplaza un client.
	// Retorna ErrInvalidInput si falta el client_id.
	Put(ctx context.Context, in ClientInput) (*Client, error)
}
