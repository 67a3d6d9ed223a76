// Package pg implementa los repositorios de dominio sobre PostgreSQL (pgx).
package pg

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/authzcore/internal/domain/repository"
	"github.com/dropDatabas3/authzcore/internal/security/secret"
)

// Store agrupa los repositorios pg sobre un pool compartido.
type Store struct {
	pool *pgxpool.Pool
}

// New crea un Store sobre un pool existente. El pool es del caller; acá no
// se abre ni se cierra.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Connect abre un pool con el DSN dado y lo verifica con Ping.
func Connect(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close cierra el pool (solo si el Store lo abrió via Connect).
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Grants retorna el GrantRepository.
func (s *Store) Grants() repository.GrantRepository { return &grantRepo{pool: s.pool} }

// Clients retorna el ClientRepository.
func (s *Store) Clients() repository.ClientRepository { return &clientRepo{pool: s.pool} }

// ─── GrantRepository ───

type grantRepo struct{ pool *pgxpool.Pool }

func (r *grantRepo) ListActiveAsOf(ctx context.Context, clientID, subject string, asOf, now time.Time) ([]repository.Grant, error) {
	// Expiración contra now, no contra asOf. Match exacto (=) de identidades.
	const query = `
		SELECT id, client_id, subject, scopes, granted_at, expires_at
		FROM authorization_grant
		WHERE client_id = $1
		  AND subject = $2
		  AND granted_at <= $3
		  AND (expires_at IS NULL OR expires_at > $4)
		ORDER BY granted_at ASC
	`
	rows, err := r.pool.Query(ctx, query, clientID, subject, asOf, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.Grant
	for rows.Next() {
		var g repository.Grant
		if err := rows.Scan(&g.ID, &g.ClientID, &g.Subject, &g.Scopes, &g.GrantedAt, &g.ExpiresAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *grantRepo) Record(ctx context.Context, in repository.GrantInput) (*repository.Grant, error) {
	if strings.TrimSpace(in.ClientID) == "" || strings.TrimSpace(in.Subject) == "" {
		return nil, repository.ErrInvalidInput
	}
	const query = `
		INSERT INTO authorization_grant (id, client_id, subject, scopes, granted_at, expires_at)
		VALUES ($1, $2, $3, $4, NOW(), $5)
		RETURNING granted_at
	`
	g := &repository.Grant{
		ID:        uuid.NewString(),
		ClientID:  in.ClientID,
		Subject:   in.Subject,
		Scopes:    in.Scopes,
		ExpiresAt: in.ExpiresAt,
	}
	err := r.pool.QueryRow(ctx, query, g.ID, g.ClientID, g.Subject, g.Scopes, g.ExpiresAt).Scan(&g.GrantedAt)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (r *grantRepo) RevokeAll(ctx context.Context, clientID, subject string) error {
	const query = `DELETE FROM authorization_grant WHERE client_id = $1 AND subject = $2`
	_, err := r.pool.Exec(ctx, query, clientID, subject)
	return err
}

// ─── ClientRepository ───

type clientRepo struct{ pool *pgxpool.Pool }

func (r *clientRepo) Get(ctx context.Context, clientID string) (*repository.Client, error) {
	const query = `
		SELECT client_id, name, type, secret_hash, scopes
		FROM oauth_client WHERE client_id = $1
	`
	var c repository.Client
	err := r.pool.QueryRow(ctx, query, clientID).Scan(&c.ClientID, &c.Name, &c.Type, &c.SecretHash, &c.Scopes)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *clientRepo) Put(ctx context.Context, in repository.ClientInput) (*repository.Client, error) {
	if strings.TrimSpace(in.ClientID) == "" {
		return nil, repository.ErrInvalidInput
	}
	c := repository.Client{
		ClientID: in.ClientID,
		Name:     in.Name,
		Type:     in.Type,
		Scopes:   in.Scopes,
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

	const query = `
		INSERT INTO oauth_client (client_id, name, type, secret_hash, scopes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (client_id) DO UPDATE
		SET name = $2, type = $3, secret_hash = $4, scopes = $5, updated_at = NOW()
	`
	if _, err := r.pool.Exec(ctx, query, c.ClientID, c.Name, c.Type, c.SecretHash, c.Scopes); err != nil {
		return nil, err
	}
	return &c, nil
}
