// Package authzcore is the authorization-decision core of an OAuth2
// authorization server: it decides whether an issued grant of access is
// still honored when a token is used or refreshed, whether a fresh
// authorization request may skip interactive consent, and it owns the
// signing key material used to mint access tokens.
//
// The core is a library boundary: HTTP binding, session management and
// persistence schema belong to the surrounding server. Collaborators (grant
// history store, client registry, current-time source, ambient subject
// source) are injected; their failures propagate and are never treated as
// implicit approval.
package authzcore

import (
	"context"
	"time"

	"github.com/dropDatabas3/authzcore/internal/authz"
	"github.com/dropDatabas3/authzcore/internal/domain/repository"
	"github.com/dropDatabas3/authzcore/internal/keys"
	"github.com/dropDatabas3/authzcore/internal/observability/logger"
	"github.com/dropDatabas3/authzcore/internal/scope"
)

// Sentinel errors re-exported for callers.
var (
	// ErrNotFound indicates an unregistered client identifier.
	ErrNotFound = repository.ErrNotFound

	// ErrInvalidInput indicates a required argument was absent. Caller's bug.
	ErrInvalidInput = repository.ErrInvalidInput
)

// ResponseMode is the OAuth2 response shape of an authorization request.
type ResponseMode = authz.ResponseMode

const (
	ResponseModeCode  = authz.ResponseModeCode
	ResponseModeToken = authz.ResponseModeToken
)

// Authorization describes a token's claims for a validity check.
type Authorization struct {
	Scope    string // whitespace-delimited scope string
	ClientID string
	IssuedAt time.Time // UTC
	Subject  string
}

// ApprovalRequest describes an incoming end-user authorization request.
type ApprovalRequest struct {
	ResponseMode ResponseMode
	ClientID     string
	Scope        string

	// Subject is the authenticated user; when empty the ambient subject
	// source configured on the Core supplies it.
	Subject string
}

// Client is a client registration as the core sees it.
type Client struct {
	ClientID   string
	Name       string
	Type       string // "public" | "confidential"
	SecretHash string // empty for public clients
	Scopes     []string
}

// HasSecret reports whether the client registered a non-empty secret.
func (c *Client) HasSecret() bool {
	return c != nil && c.SecretHash != ""
}

// Grant is one recorded act of user consent.
type Grant struct {
	ID        string
	ClientID  string
	Subject   string
	Scopes    []string
	GrantedAt time.Time  // UTC
	ExpiresAt *time.Time // nil = never expires
}

// GrantInput records one act of user consent (invoked by the host's consent
// flow, outside the decision core).
type GrantInput struct {
	ClientID  string
	Subject   string
	Scopes    []string
	ExpiresAt *time.Time
}

// Core wires the decision services behind the surface the surrounding
// server consumes. Safe for concurrent use; all per-call state is local.
type Core struct {
	eval     authz.Evaluator
	approver authz.Approver
	keys     *keys.Provider
	clients  repository.ClientRepository
	grants   repository.GrantRepository
	policy   scope.Policy
	closers  []func() error
}

// parseScope parses a scope string under the Core's configured case policy.
func (c *Core) parseScope(s string) scope.Set {
	return scope.ParsePolicy(s, c.policy)
}

// IsAuthorizationValid reports whether a token with the given claims is
// still backed by qualifying grants in the recorded consent history.
func (c *Core) IsAuthorizationValid(ctx context.Context, auth Authorization) (bool, error) {
	return c.eval.IsAuthorizationValid(ctx, authz.Authorization{
		Scope:    c.parseScope(auth.Scope),
		ClientID: auth.ClientID,
		IssuedAt: auth.IssuedAt,
		Subject:  auth.Subject,
	})
}

// CanAutoApprove decides whether an authorization request may skip
// interactive consent. A nil request fails with ErrInvalidInput.
func (c *Core) CanAutoApprove(ctx context.Context, req *ApprovalRequest) (bool, error) {
	if req == nil {
		return c.approver.CanAutoApprove(ctx, nil)
	}
	return c.approver.CanAutoApprove(ctx, &authz.ApprovalRequest{
		ResponseMode: req.ResponseMode,
		ClientID:     req.ClientID,
		Scope:        c.parseScope(req.Scope),
		Subject:      req.Subject,
	})
}

// NewSigningHandle returns a fresh signing handle for exclusive use by one
// logical operation. The caller must Close it when done.
func (c *Core) NewSigningHandle(ctx context.Context) (*keys.Handle, error) {
	return c.keys.Handle(ctx)
}

// JWKS returns the public key set of the process in JWKS JSON.
func (c *Core) JWKS(ctx context.Context) ([]byte, error) {
	return c.keys.JWKSJSON(ctx)
}

// LookupClient resolves a client registration. Fails with ErrNotFound when
// the identifier is unregistered; never returns an empty placeholder.
func (c *Core) LookupClient(ctx context.Context, clientID string) (*Client, error) {
	rec, err := c.clients.Get(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return &Client{
		ClientID:   rec.ClientID,
		Name:       rec.Name,
		Type:       rec.Type,
		SecretHash: rec.SecretHash,
		Scopes:     append([]string(nil), rec.Scopes...),
	}, nil
}

// RecordGrant appends a consent event to the grant history.
func (c *Core) RecordGrant(ctx context.Context, in GrantInput) error {
	_, err := c.grants.Record(ctx, repository.GrantInput{
		ClientID:  in.ClientID,
		Subject:   in.Subject,
		Scopes:    in.Scopes,
		ExpiresAt: in.ExpiresAt,
	})
	return err
}

// RevokeGrants removes every grant of the (client, subject) pair. Tokens
// issued before the revocation stay invalid even if consent is granted
// again later.
func (c *Core) RevokeGrants(ctx context.Context, clientID, subject string) error {
	return c.grants.RevokeAll(ctx, clientID, subject)
}

// Close releases backend resources (connection pools, cache clients).
func (c *Core) Close() error {
	var first error
	for _, fn := range c.closers {
		if err := fn(); err != nil && first == nil {
			first = err
		}
	}
	if first != nil {
		logger.L().Warn("core close", logger.Err(first))
	}
	return first
}
