// Package registry decora el ClientRepository con una capa de cache.
// Las registraciones de clients son inmutables durante un request, así que
// un TTL corto alcanza; singleflight evita lookups duplicados en paralelo
// para el mismo client.
package registry

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/authzcore/internal/cache"
	"github.com/dropDatabas3/authzcore/internal/domain/repository"
	"github.com/dropDatabas3/authzcore/internal/observability/logger"
)

const cacheKeyPrefix = "client:"

// DefaultTTL es el TTL de cache para registraciones de clients.
const DefaultTTL = 30 * time.Second

// CachedClients implementa repository.ClientRepository delegando en inner
// con cache al frente. NotFound no se cachea: un client recién registrado
// debe ser visible de inmediato.
type CachedClients struct {
	inner repository.ClientRepository
	cache cache.Cache
	ttl   time.Duration
	sf    singleflight.Group
}

// NewCachedClients crea el decorador. Si ttl <= 0 usa DefaultTTL.
func NewCachedClients(inner repository.ClientRepository, c cache.Cache, ttl time.Duration) *CachedClients {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CachedClients{inner: inner, cache: c, ttl: ttl}
}

func (r *CachedClients) Get(ctx context.Context, clientID string) (*repository.Client, error) {
	key := cacheKeyPrefix + clientID
	if b, ok := r.cache.Get(key); ok {
		var c repository.Client
		if err := json.Unmarshal(b, &c); err == nil {
			return &c, nil
		}
		// Entrada corrupta: descartar y releer del inner.
		r.cache.Delete(key)
	}

	v, err, _ := r.sf.Do(key, func() (any, error) {
		c, err := r.inner.Get(ctx, clientID)
		if err != nil {
			return nil, err
		}
		if b, err := json.Marshal(c); err == nil {
			r.cache.Set(key, b, r.ttl)
		}
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*repository.Client), nil
}

func (r *CachedClients) Put(ctx context.Context, in repository.ClientInput) (*repository.Client, error) {
	c, err := r.inner.Put(ctx, in)
	if err != nil {
		return nil, err
	}
	r.cache.Delete(cacheKeyPrefix + in.ClientID)
	logger.From(ctx).Debug("client cache invalidated", logger.ClientID(in.ClientID))
	return c, nil
}

// Invalidate borra la entrada cacheada de un client.
func (r *CachedClients) Invalidate(clientID string) {
	r.cache.Delete(cacheKeyPrefix + clientID)
}
