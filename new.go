package authzcore

import (
	"context"
	"fmt"
	"time"

	"github.com/dropDatabas3/authzcore/internal/authz"
	"github.com/dropDatabas3/authzcore/internal/cache"
	cachemem "github.com/dropDatabas3/authzcore/internal/cache/memory"
	cacheredis "github.com/dropDatabas3/authzcore/internal/cache/redis"
	"github.com/dropDatabas3/authzcore/internal/config"
	"github.com/dropDatabas3/authzcore/internal/domain/repository"
	"github.com/dropDatabas3/authzcore/internal/keys"
	"github.com/dropDatabas3/authzcore/internal/metrics"
	"github.com/dropDatabas3/authzcore/internal/observability/logger"
	"github.com/dropDatabas3/authzcore/internal/registry"
	"github.com/dropDatabas3/authzcore/internal/scope"
	"github.com/dropDatabas3/authzcore/internal/store/adapters/mem"
	"github.com/dropDatabas3/authzcore/internal/store/adapters/pg"
)

// GrantStore is the host-implementable grant history collaborator. Built-in
// implementations (memory, Postgres) are selected via configuration; a host
// with its own storage supplies this instead.
type GrantStore interface {
	// ListActiveAsOf returns the grants of (clientID, subject) qualifying
	// for a token issued at asOf: granted at or before asOf, unexpired as
	// of now, exact identifier match. Read-only.
	ListActiveAsOf(ctx context.Context, clientID, subject string, asOf, now time.Time) ([]Grant, error)
	Record(ctx context.Context, in GrantInput) (*Grant, error)
	RevokeAll(ctx context.Context, clientID, subject string) error
}

// ClientStore is the host-implementable client registry collaborator.
// Get must fail with an error satisfying errors.Is(err, ErrNotFound) when
// the identifier is unregistered.
type ClientStore interface {
	Get(ctx context.Context, clientID string) (*Client, error)
}

// SubjectSource supplies the currently authenticated user's identity to the
// auto-approval decider. The core never authenticates by itself.
type SubjectSource interface {
	CurrentSubject(ctx context.Context) (string, error)
}

// Options configures a Core built with New. Zero value gives an in-memory
// core with ephemeral key material — fine for tests, not for production.
type Options struct {
	// Grants and Clients override the built-in stores. Leave nil to use the
	// shared in-memory store (also reachable via RecordGrant/RegisterClient).
	Grants  GrantStore
	Clients ClientStore

	// Subjects is the ambient authenticated-subject source. Optional.
	Subjects SubjectSource

	// ScopeCasePolicy: "sensitive" (default) or "fold".
	ScopeCasePolicy string

	// KeysDir persists the signing key pair across restarts. Empty means an
	// ephemeral per-process key, which invalidates all previously issued
	// tokens on restart.
	KeysDir string

	// Now is the current-time source. Defaults to time.Now.
	Now func() time.Time
}

// New builds a Core from explicit collaborators.
func New(opts Options) (*Core, error) {
	policy, err := parseCasePolicy(opts.ScopeCasePolicy)
	if err != nil {
		return nil, err
	}

	var grants repository.GrantRepository
	var clients repository.ClientRepository
	if opts.Grants == nil || opts.Clients == nil {
		shared := mem.New()
		grants = shared.Grants()
		clients = shared.Clients()
	}
	if opts.Grants != nil {
		grants = &grantStoreAdapter{inner: opts.Grants}
	}
	if opts.Clients != nil {
		clients = &clientStoreAdapter{inner: opts.Clients}
	}

	var store keys.KeyStore
	if opts.KeysDir != "" {
		fs, err := keys.NewFileKeyStore(opts.KeysDir)
		if err != nil {
			return nil, err
		}
		store = fs
	}

	return assemble(grants, clients, opts.Subjects, policy, keys.NewProvider(store), opts.Now, nil), nil
}

// FromConfigFile builds a Core from a YAML config file (plus .env overlays
// and environment overrides). Registers the core metrics on the default
// Prometheus registry and initializes the logger singleton.
func FromConfigFile(ctx context.Context, path string) (*Core, error) {
	config.LoadDotenv()
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: "authzcore"})
	if err := metrics.Register(nil); err != nil {
		return nil, err
	}

	policy, err := parseCasePolicy(cfg.Scope.CasePolicy)
	if err != nil {
		return nil, err
	}

	var grants repository.GrantRepository
	var clients repository.ClientRepository
	var closers []func() error

	switch cfg.Storage.Driver {
	case "", "memory":
		shared := mem.New()
		grants = shared.Grants()
		clients = shared.Clients()
	case "postgres":
		st, err := pg.Connect(ctx, cfg.Storage.DSN)
		if err != nil {
			return nil, fmt.Errorf("postgres connect: %w", err)
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, fmt.Errorf("postgres migrate: %w", err)
		}
		grants = st.Grants()
		clients = st.Clients()
		closers = append(closers, func() error { st.Close(); return nil })
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	var cc cache.Cache
	switch cfg.Cache.Kind {
	case "", "memory":
		cc = cachemem.New(cfg.CacheTTL())
	case "redis":
		rc := cacheredis.New(cfg.Cache.Redis.Addr, cfg.Cache.Redis.DB, cfg.Cache.Redis.Prefix)
		closers = append(closers, rc.Close)
		cc = rc
	default:
		return nil, fmt.Errorf("unknown cache kind %q", cfg.Cache.Kind)
	}
	clients = registry.NewCachedClients(clients, cc, cfg.CacheTTL())

	var store keys.KeyStore
	if cfg.Keys.Dir != "" {
		fs, err := keys.NewFileKeyStore(cfg.Keys.Dir)
		if err != nil {
			return nil, err
		}
		store = fs
	}

	return assemble(grants, clients, nil, policy, keys.NewProvider(store), nil, closers), nil
}

func assemble(
	grants repository.GrantRepository,
	clients repository.ClientRepository,
	subjects SubjectSource,
	policy scope.Policy,
	provider *keys.Provider,
	now func() time.Time,
	closers []func() error,
) *Core {
	eval := authz.NewEvaluator(authz.EvaluatorDeps{Grants: grants, Now: now})

	var src authz.SubjectSource
	if subjects != nil {
		src = subjects
	}
	approver := authz.NewApprover(authz.ApproverDeps{
		Clients:   clients,
		Evaluator: eval,
		Subjects:  src,
		Now:       now,
	})

	return &Core{
		eval:     eval,
		approver: approver,
		keys:     provider,
		clients:  clients,
		grants:   grants,
		policy:   policy,
		closers:  closers,
	}
}

func parseCasePolicy(s string) (scope.Policy, error) {
	switch s {
	case "", "sensitive":
		return scope.CaseSensitive, nil
	case "fold":
		return scope.CaseFold, nil
	default:
		return scope.CaseSensitive, fmt.Errorf("unknown scope case policy %q: %w", s, ErrInvalidInput)
	}
}

// RegisterClient stores a client registration through the built-in store.
// Plain secrets are hashed at rest; an empty secret registers a public client.
func (c *Core) RegisterClient(ctx context.Context, clientID, name, secret string, scopes []string) error {
	type putter interface {
		Put(ctx context.Context, in repository.ClientInput) (*repository.Client, error)
	}
	p, ok := c.clients.(putter)
	if !ok {
		return fmt.Errorf("client store is read-only: %w", ErrInvalidInput)
	}
	_, err := p.Put(ctx, repository.ClientInput{
		ClientID: clientID,
		Name:     name,
		Secret:   secret,
		Scopes:   scopes,
	})
	return err
}

// ─── Adapters: public collaborator interfaces → domain repositories ───

type grantStoreAdapter struct{ inner GrantStore }

func (a *grantStoreAdapter) ListActiveAsOf(ctx context.Context, clientID, subject string, asOf, now time.Time) ([]repository.Grant, error) {
	grants, err := a.inner.ListActiveAsOf(ctx, clientID, subject, asOf, now)
	if err != nil {
		return nil, err
	}
	out := make([]repository.Grant, 0, len(grants))
	for _, g := range grants {
		out = append(out, repository.Grant{
			ID:        g.ID,
			ClientID:  g.ClientID,
			Subject:   g.Subject,
			Scopes:    g.Scopes,
			GrantedAt: g.GrantedAt,
			ExpiresAt: g.ExpiresAt,
		})
	}
	return out, nil
}

func (a *grantStoreAdapter) Record(ctx context.Context, in repository.GrantInput) (*repository.Grant, error) {
	g, err := a.inner.Record(ctx, GrantInput{
		ClientID:  in.ClientID,
		Subject:   in.Subject,
		Scopes:    in.Scopes,
		ExpiresAt: in.ExpiresAt,
	})
	if err != nil {
		return nil, err
	}
	return &repository.Grant{
		ID:        g.ID,
		ClientID:  g.ClientID,
		Subject:   g.Subject,
		Scopes:    g.Scopes,
		GrantedAt: g.GrantedAt,
		ExpiresAt: g.ExpiresAt,
	}, nil
}

func (a *grantStoreAdapter) RevokeAll(ctx context.Context, clientID, subject string) error {
	return a.inner.RevokeAll(ctx, clientID, subject)
}

type clientStoreAdapter struct{ inner ClientStore }

func (a *clientStoreAdapter) Get(ctx context.Context, clientID string) (*repository.Client, error) {
	c, err := a.inner.Get(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return &repository.Client{
		ClientID:   c.ClientID,
		Name:       c.Name,
		Type:       c.Type,
		SecretHash: c.SecretHash,
		Scopes:     c.Scopes,
	}, nil
}

func (a *clientStoreAdapter) Put(ctx context.Context, in repository.ClientInput) (*repository.Client, error) {
	return nil, fmt.Errorf("external client store is read-only: %w", repository.ErrInvalidInput)
}
