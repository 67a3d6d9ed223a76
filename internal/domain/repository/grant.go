package repository

import (
	"context"
	"time"
)

// Grant representa un acto histórico de consentimiento: un usuario otorgó a
// un client un conjunto de scopes en un momento dado.
//
// Los grants son append-only: una revocación se modela como la *ausencia* de
// un registro vigente posterior que cubra el acceso revocado, nunca como la
// edición de un registro viejo. La política de borrado pertenece al storage,
// no al core.
type Grant struct {
	ID        string
	ClientID  string
	Subject   string // username del usuario que otorgó
	Scopes    []string
	GrantedAt time.Time  // UTC
	ExpiresAt *time.Time // UTC; nil = nunca expira
}

// Expired reporta si el grant está vencido respecto de now.
// Un grant sin expiración nunca vence.
func (g *Grant) Expired(now time.Time) bool {
	return g.ExpiresAt != nil && !g.ExpiresAt.After(now)
}

// GrantInput contiene los datos para registrar un grant nuevo.
type GrantInput struct {
	ClientID  string
	Subject   string
	Scopes    []string
	ExpiresAt *time.Time
}

// GrantRepository es el contrato del Grant History Store.
type GrantRepository interface {
	// ListActiveAsOf retorna los grants del par (clientID, subject) que
	// califican para un token emitido en asOf:
	//   - GrantedAt <= asOf
	//   - sin expiración, o con expiración posterior a now (no a asOf)
	//   - match exacto de clientID y subject
	// Es una query read-only y sin efectos; el core la trata como autoritativa.
	ListActiveAsOf(ctx context.Context, clientID, subject string, asOf, now time.Time) ([]Grant, error)

	// Record registra un grant nuevo (lo invoca el consent flow, externo al
	// core de decisión). Retorna ErrInvalidInput si falta client o subject.
	Record(ctx context.Context, in GrantInput) (*Grant, error)

	// RevokeAll elimina todos los grants del par (clientID, subject).
	// Tokens emitidos antes de la revocación quedan inválidos aunque el
	// usuario vuelva a otorgar después.
	RevokeAll(ctx context.Context, clientID, subject string) error
}
