package mem

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/authzcore/internal/domain/repository"
	"github.com/dropDatabas3/authzcore/internal/security/secret"
)

var base = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func at(n int) time.Time { return base.Add(time.Duration(n) * time.Hour) }

func recorder(t *testing.T, s *Store) *grantRepo {
	t.Helper()
	g, ok := s.Grants().(*grantRepo)
	require.True(t, ok)
	return g
}

func TestGrants_ListActiveAsOf_Filter(t *testing.T) {
	s := New()
	g := recorder(t, s)
	ctx := context.Background()

	exp := at(3)
	g.RecordAt(repository.GrantInput{ClientID: "app", Subject: "alice", Scopes: []string{"read"}}, at(1))
	g.RecordAt(repository.GrantInput{ClientID: "app", Subject: "alice", Scopes: []string{"write"}, ExpiresAt: &exp}, at(1))
	g.RecordAt(repository.GrantInput{ClientID: "app", Subject: "alice", Scopes: []string{"late"}}, at(5))
	g.RecordAt(repository.GrantInput{ClientID: "other", Subject: "alice", Scopes: []string{"read"}}, at(1))
	g.RecordAt(repository.GrantInput{ClientID: "app", Subject: "bob", Scopes: []string{"read"}}, at(1))

	// asOf=2, now=4: the expired (exp=3) and the late (granted=5) records
	// drop out, as do other client/subject pairs.
	out, err := g.ListActiveAsOf(ctx, "app", "alice", at(2), at(4))
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, []string{"read"}, out[0].Scopes)

	// asOf=2, now=2: the expiring record still qualifies.
	out, err = g.ListActiveAsOf(ctx, "app", "alice", at(2), at(2))
	require.NoError(t, err)
	require.Len(t, out, 2)
}

func TestGrants_ExpirationBoundary(t *testing.T) {
	s := New()
	g := recorder(t, s)

	exp := at(5)
	g.RecordAt(repository.GrantInput{ClientID: "app", Subject: "alice", Scopes: []string{"read"}, ExpiresAt: &exp}, at(1))

	// now == expires_at: ya vencido (expiración estrictamente futura).
	out, err := g.ListActiveAsOf(context.Background(), "app", "alice", at(2), at(5))
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestGrants_RecordValidatesInput(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.Grants().Record(ctx, repository.GrantInput{Subject: "alice"})
	require.ErrorIs(t, err, repository.ErrInvalidInput)
	_, err = s.Grants().Record(ctx, repository.GrantInput{ClientID: "app"})
	require.ErrorIs(t, err, repository.ErrInvalidInput)

	g, err := s.Grants().Record(ctx, repository.GrantInput{ClientID: "app", Subject: "alice", Scopes: []string{"read"}})
	require.NoError(t, err)
	require.NotEmpty(t, g.ID)
	require.False(t, g.GrantedAt.IsZero())
}

func TestGrants_RevokeAllRemovesPairOnly(t *testing.T) {
	s := New()
	g := recorder(t, s)
	ctx := context.Background()

	g.RecordAt(repository.GrantInput{ClientID: "app", Subject: "alice", Scopes: []string{"read"}}, at(1))
	g.RecordAt(repository.GrantInput{ClientID: "app", Subject: "bob", Scopes: []string{"read"}}, at(1))

	require.NoError(t, g.RevokeAll(ctx, "app", "alice"))

	out, err := g.ListActiveAsOf(ctx, "app", "alice", at(2), at(2))
	require.NoError(t, err)
	require.Empty(t, out)

	out, err = g.ListActiveAsOf(ctx, "app", "bob", at(2), at(2))
	require.NoError(t, err)
	require.Len(t, out, 1)
}

func TestClients_GetNotFound(t *testing.T) {
	s := New()
	_, err := s.Clients().Get(context.Background(), "ghost")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestClients_PutHashesSecret(t *testing.T) {
	s := New()
	ctx := context.Background()

	c, err := s.Clients().Put(ctx, repository.ClientInput{ClientID: "app", Secret: "s3cr3t"})
	require.NoError(t, err)
	require.Equal(t, repository.ClientTypeConfidential, c.Type)
	require.True(t, c.HasSecret())
	require.True(t, strings.HasPrefix(c.SecretHash, "$argon2id$"), "secret must not be stored in plain")
	require.True(t, secret.Verify("s3cr3t", c.SecretHash))

	pub, err := s.Clients().Put(ctx, repository.ClientInput{ClientID: "cli"})
	require.NoError(t, err)
	require.Equal(t, repository.ClientTypePublic, pub.Type)
	require.False(t, pub.HasSecret())
}

func TestClients_PutValidatesID(t *testing.T) {
	s := New()
	_, err := s.Clients().Put(context.Background(), repository.ClientInput{})
	require.ErrorIs(t, err, repository.ErrInvalidInput)
}
