// Package keys provee el signing key material del servidor.
//
// Un Provider es un objeto explícito, inyectado por dependencia (no un
// singleton estático escondido): el host lo construye una vez en el arranque
// y lo pasa a todo componente que necesite firmar. El par de claves se
// genera lazy en el primer uso, con sync.Once para que inicializadores
// concurrentes nunca creen más de un par.
package keys

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/authzcore/internal/domain/repository"
	"github.com/dropDatabas3/authzcore/internal/metrics"
	"github.com/dropDatabas3/authzcore/internal/observability/logger"
)

const AlgEdDSA = "EdDSA"

var (
	// ErrHandleClosed indica uso de un handle ya liberado.
	ErrHandleClosed = errors.New("signing handle closed")
)

// Provider mantiene un único par Ed25519 por proceso y emite handles
// independientes derivados de los mismos parámetros exportados (la seed).
//
// Sin KeyStore configurado la clave se regenera en cada arranque, lo que
// invalida todos los tokens emitidos antes del restart. Es una limitación
// conocida del diseño original; con un KeyStore la clave persiste.
type Provider struct {
	store KeyStore // opcional; nil = solo en memoria

	once    sync.Once
	initErr error

	kid  string
	seed []byte // parámetros exportados; cada handle reconstruye desde acá
	pub  ed25519.PublicKey
}

// NewProvider crea un Provider. store puede ser nil (clave efímera por proceso).
func NewProvider(store KeyStore) *Provider {
	return &Provider{store: store}
}

// init genera o carga el par de claves. Corre exactamente una vez.
func (p *Provider) init(ctx context.Context) error {
	p.once.Do(func() {
		log := logger.From(ctx).With(logger.Layer("keys"), logger.Op("Provider.init"))

		if p.store != nil {
			rec, err := p.store.Load(ctx)
			switch {
			case err == nil:
				p.kid = rec.KID
				p.seed = append([]byte(nil), rec.Seed...)
				p.pub = ed25519.NewKeyFromSeed(p.seed).Public().(ed25519.PublicKey)
				log.Info("signing key loaded", logger.KID(p.kid))
				return
			case !repository.IsNotFound(err):
				p.initErr = err
				return
			}
		}

		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			p.initErr = err
			return
		}
		p.kid = "key-" + uuid.NewString()
		p.seed = append([]byte(nil), priv.Seed()...)
		p.pub = pub

		if p.store != nil {
			rec := &StoredKey{
				KID:       p.kid,
				Alg:       AlgEdDSA,
				Seed:      append([]byte(nil), p.seed...),
				PublicKey: append([]byte(nil), pub...),
				CreatedAt: time.Now().UTC(),
			}
			if err := p.store.Save(ctx, rec); err != nil {
				p.initErr = err
				return
			}
		}
		log.Info("signing key generated", logger.KID(p.kid))
	})
	return p.initErr
}

// Handle emite un handle fresco para uso exclusivo de una operación.
// El caller debe llamar Close() al terminar. Handles concurrentes nunca
// comparten la instancia de clave privada.
func (p *Provider) Handle(ctx context.Context) (*Handle, error) {
	if err := p.init(ctx); err != nil {
		return nil, err
	}
	metrics.SigningHandlesIssued.Inc()
	return &Handle{
		kid:  p.kid,
		alg:  AlgEdDSA,
		priv: ed25519.NewKeyFromSeed(p.seed),
	}, nil
}

// KID retorna el key ID activo.
func (p *Provider) KID(ctx context.Context) (string, error) {
	if err := p.init(ctx); err != nil {
		return "", err
	}
	return p.kid, nil
}

// PublicKey retorna la clave pública del par del proceso.
func (p *Provider) PublicKey(ctx context.Context) (ed25519.PublicKey, error) {
	if err := p.init(ctx); err != nil {
		return nil, err
	}
	out := make([]byte, len(p.pub))
	copy(out, p.pub)
	return ed25519.PublicKey(out), nil
}
