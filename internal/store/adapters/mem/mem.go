// Package mem implementa los repositorios de dominio en memoria.
// Pensado para desarrollo y tests; mismo contrato que el adapter pg.
package mem

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/authzcore/internal/domain/repository"
	"github.com/dropDatabas3/authzcore/internal/security/secret"
)

// Store agrupa los repositorios en memoria. Thread-safe.
type Store struct {
	mu      sync.RWMutex
	grants  []repository.Grant
	clients map[string]repository.Client
}

// New crea un Store vacío.
func New() *Store {
	return &Store{clients: map[string]repository.Client{}}
}

// Grants retorna el GrantRepository.
func (s *Store) Grants() repository.GrantRepository { return (*grantRepo)(s) }

// Clients retorna el ClientRepository.
func (s *Store) Clients() repository.ClientRepository { return (*clientRepo)(s) }

// ─── GrantRepository ───

type grantRepo Store

func (r *grantRepo) ListActiveAsOf(_ context.Context, clientID, subject string, asOf, now time.Time) ([]repository.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []repository.Grant
	for _, g := range r.grants {
		// Match exacto de identidades; la política configurable aplica solo
		// a scope tokens, nunca a client o subject.
		if g.ClientID != clientID || g.Subject != subject {
			continue
		}
		if g.GrantedAt.After(asOf) {
			continue
		}
		// La expiración se evalúa contra now, no contra asOf.
		if g.Expired(now) {
			continue
		}
		out = append(out, cloneGrant(g))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GrantedAt.Before(out[j].GrantedAt) })
	return out, nil
}

func (r *grantRepo) Record(_ context.Context, in repository.GrantInput) (*repository.Grant, error) {
	if strings.TrimSpace(in.ClientID) == "" || strings.TrimSpace(in.Subject) == "" {
		return nil, repository.ErrInvalidInput
	}
	g := repository.Grant{
		ID:        uuid.NewString(),
		ClientID:  in.ClientID,
		Subject:   in.Subject,
		Scopes:    append([]string(nil), in.Scopes...),
		GrantedAt: time.Now().UTC(),
		ExpiresAt: in.ExpiresAt,
	}
	r.mu.Lock()
	r.grants = append(r.grants, g)
	r.mu.Unlock()
	out := cloneGrant(g)
	return &out, nil
}

// RecordAt registra un grant con timestamp explícito. Solo para seeds y tests
// que necesitan construir historia.
func (r *grantRepo) RecordAt(in repository.GrantInput, grantedAt time.Time) *repository.Grant {
	g := repository.Grant{
		ID:        uuid.NewString(),
		ClientID:  in.ClientID,
		Subject:   in.Subject,
		Scopes:    append([]string(nil), in.Scopes...),
		GrantedAt: grantedAt.UTC(),
		ExpiresAt: in.ExpiresAt,
	}
	r.mu.Lock()
	r.grants = append(r.grants, g)
	r.mu.Unlock()
	out := cloneGrant(g)
	return &out
}

func (r *grantRepo) RevokeAll(_ context.Context, clientID, subject string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.grants[:0]
	for _, g := range r.grants {
		if g.ClientID == clientID && g.Subject == subject {
			continue
		}
		kept = append(kept, g)
	}
	r.grants = kept
	return nil
}

func cloneGrant(g repository.Grant) repository.Grant {
	out := g
	out.Scopes = append([]string(nil), g.Scopes...)
	if g.ExpiresAt != nil {
		t := *g.ExpiresAt
		out.ExpiresAt = &t
	}
	return out
}

// ─── ClientRepository ───

type clientRepo Store

func (r *clientRepo) Get(_ context.Context, clientID string) (*repository.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[clientID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := c
	out.Scopes = append([]string(nil), c.Scopes...)
	return &out, nil
}

func (r *clientRepo) Put(_ context.Context, in repository.ClientInput) (*repository.Client, error) {
	if strings.TrimSpace(in.ClientID) == "" {
		return nil, repository.ErrInvalidInput
	}
	c := repository.Client{
		ClientID: in.ClientID,
		Name:     in.Name,
		Type:     in.Type,
		Scopes:   append([]string(nil), in.Scopes...),
	}
	if in.Secret != "" {
		hash, err := secret.Hash(secret.Default, in.Secret)
		if err != nil {
			return nil, err
		}
		c.SecretHash = hash
		if c.Type == "" {
			c.Type = repository.ClientTypeConfidential
		}
	} else if c.Type == "" {
		c.Type = repository.ClientTypePublic
	}

	r.mu.Lock()
	r.clients[c.ClientID] = c
	r.mu.Unlock()
	out := c
	return &out, nil
}
