package keys

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// ----- JWKS (serialización) -----

type jwk struct {
	Kty string `json:"kty"` // "OKP"
	Crv string `json:"crv"` // "Ed25519"
	Kid string `json:"kid"`
	Alg string `json:"alg"` // "EdDSA"
	Use string `json:"use"` // "sig"
	X   string `json:"x"`   // base64url(pub)
}

type jwks struct {
	Keys []jwk `json:"keys"`
}

// JWKSJSON devuelve el JWKS (solo la pública) en JSON.
func (p *Provider) JWKSJSON(ctx context.Context) ([]byte, error) {
	if err := p.init(ctx); err != nil {
		return nil, err
	}
	j := jwks{
		Keys: []jwk{{
			Kty: "OKP",
			Crv: "Ed25519",
			Kid: p.kid,
			Alg: AlgEdDSA,
			Use: "sig",
			X:   base64.RawURLEncoding.EncodeToString(p.pub),
		}},
	}
	return json.Marshal(j)
}

// Keyfunc devuelve un jwt.Keyfunc que resuelve la pubkey por 'kid' del token.
// Sin kid en el header cae a la clave del proceso.
func (p *Provider) Keyfunc(ctx context.Context) jwtv5.Keyfunc {
	return func(t *jwtv5.Token) (any, error) {
		if err := p.init(ctx); err != nil {
			return nil, err
		}
		if kid, _ := t.Header["kid"].(string); kid != "" && kid != p.kid {
			return nil, ErrUnknownKID
		}
		pub := make([]byte, len(p.pub))
		copy(pub, p.pub)
		return ed25519.PublicKey(pub), nil
	}
}
