package authzcore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newCore(t *testing.T) *Core {
	t.Helper()
	core, err := New(Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = core.Close() })
	return core
}

func TestCore_EndToEnd(t *testing.T) {
	ctx := context.Background()
	core := newCore(t)

	require.NoError(t, core.RegisterClient(ctx, "app", "Test App", "s3cr3t", []string{"read", "write"}))
	require.NoError(t, core.RecordGrant(ctx, GrantInput{ClientID: "app", Subject: "alice", Scopes: []string{"read"}}))

	// A token issued now, after the grant, requesting the granted scope.
	ok, err := core.IsAuthorizationValid(ctx, Authorization{
		Scope:    "read",
		ClientID: "app",
		IssuedAt: time.Now().UTC(),
		Subject:  "alice",
	})
	require.NoError(t, err)
	require.True(t, ok)

	// Requesting beyond the grant fails.
	ok, err = core.IsAuthorizationValid(ctx, Authorization{
		Scope:    "read write",
		ClientID: "app",
		IssuedAt: time.Now().UTC(),
		Subject:  "alice",
	})
	require.NoError(t, err)
	require.False(t, ok)

	// Auto-approval passes through for the covered scope.
	ok, err = core.CanAutoApprove(ctx, &ApprovalRequest{
		ResponseMode: ResponseModeCode,
		ClientID:     "app",
		Scope:        "read",
		Subject:      "alice",
	})
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCore_RevocationInvalidatesOldTokens(t *testing.T) {
	ctx := context.Background()
	core := newCore(t)

	require.NoError(t, core.RegisterClient(ctx, "app", "Test App", "s3cr3t", nil))
	require.NoError(t, core.RecordGrant(ctx, GrantInput{ClientID: "app", Subject: "alice", Scopes: []string{"read"}}))

	issued := time.Now().UTC()

	require.NoError(t, core.RevokeGrants(ctx, "app", "alice"))

	// Re-grant after the revocation: the earlier token must stay invalid.
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, core.RecordGrant(ctx, GrantInput{ClientID: "app", Subject: "alice", Scopes: []string{"read"}}))

	ok, err := core.IsAuthorizationValid(ctx, Authorization{
		Scope:    "read",
		ClientID: "app",
		IssuedAt: issued,
		Subject:  "alice",
	})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCore_CanAutoApprove_NilRequest(t *testing.T) {
	core := newCore(t)
	ok, err := core.CanAutoApprove(context.Background(), nil)
	require.False(t, ok)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestCore_LookupClient(t *testing.T) {
	ctx := context.Background()
	core := newCore(t)

	_, err := core.LookupClient(ctx, "ghost")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, core.RegisterClient(ctx, "app", "Test App", "s3cr3t", []string{"read"}))
	c, err := core.LookupClient(ctx, "app")
	require.NoError(t, err)
	require.Equal(t, "app", c.ClientID)
	require.True(t, c.HasSecret())

	require.NoError(t, core.RegisterClient(ctx, "cli", "Public CLI", "", nil))
	c, err = core.LookupClient(ctx, "cli")
	require.NoError(t, err)
	require.False(t, c.HasSecret())
}

func TestCore_SigningHandleAndJWKS(t *testing.T) {
	ctx := context.Background()
	core := newCore(t)

	h, err := core.NewSigningHandle(ctx)
	require.NoError(t, err)
	defer h.Close()

	sig, err := h.Sign([]byte("token"))
	require.NoError(t, err)
	require.NotEmpty(t, sig)

	jwks, err := core.JWKS(ctx)
	require.NoError(t, err)
	require.Contains(t, string(jwks), h.KID())
}

func TestCore_ScopeCaseFold(t *testing.T) {
	ctx := context.Background()
	core, err := New(Options{ScopeCasePolicy: "fold"})
	require.NoError(t, err)
	defer core.Close()

	require.NoError(t, core.RecordGrant(ctx, GrantInput{ClientID: "app", Subject: "alice", Scopes: []string{"READ"}}))

	ok, err := core.IsAuthorizationValid(ctx, Authorization{
		Scope:    "read",
		ClientID: "app",
		IssuedAt: time.Now().UTC(),
		Subject:  "alice",
	})
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCore_UnknownCasePolicy(t *testing.T) {
	_, err := New(Options{ScopeCasePolicy: "mixed"})
	require.ErrorIs(t, err, ErrInvalidInput)
}

// externalGrants proves the host-implementable GrantStore path.
type externalGrants struct{ grants []Grant }

func (e *externalGrants) ListActiveAsOf(_ context.Context, clientID, subject string, asOf, now time.Time) ([]Grant, error) {
	var out []Grant
	for _, g := range e.grants {
		if g.ClientID != clientID || g.Subject != subject || g.GrantedAt.After(asOf) {
			continue
		}
		if g.ExpiresAt != nil && !g.ExpiresAt.After(now) {
			continue
		}
		out = append(out, g)
	}
	return out, nil
}

func (e *externalGrants) Record(_ context.Context, in GrantInput) (*Grant, error) {
	g := Grant{ClientID: in.ClientID, Subject: in.Subject, Scopes: in.Scopes, GrantedAt: time.Now().UTC(), ExpiresAt: in.ExpiresAt}
	e.grants = append(e.grants, g)
	return &g, nil
}

func (e *externalGrants) RevokeAll(_ context.Context, clientID, subject string) error {
	kept := e.grants[:0]
	for _, g := range e.grants {
		if g.ClientID == clientID && g.Subject == subject {
			continue
		}
		kept = append(kept, g)
	}
	e.grants = kept
	return nil
}

func TestCore_ExternalGrantStore(t *testing.T) {
	ctx := context.Background()
	ext := &externalGrants{grants: []Grant{{
		ClientID:  "app",
		Subject:   "alice",
		Scopes:    []string{"read"},
		GrantedAt: time.Now().UTC().Add(-time.Hour),
	}}}

	core, err := New(Options{Grants: ext})
	require.NoError(t, err)
	defer core.Close()

	ok, err := core.IsAuthorizationValid(ctx, Authorization{
		Scope:    "read",
		ClientID: "app",
		IssuedAt: time.Now().UTC(),
		Subject:  "alice",
	})
	require.NoError(t, err)
	require.True(t, ok)
}
