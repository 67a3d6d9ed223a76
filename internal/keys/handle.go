package keys

import (
	"crypto/ed25519"
)

// Handle es una instancia de clave de firma de vida corta, propiedad
// exclusiva de una operación lógica (ej: un request entrante). No es para
// compartir entre goroutines: cada caller pide el suyo al Provider.
type Handle struct {
	kid    string
	alg    string
	priv   ed25519.PrivateKey
	closed bool
}

// KID retorna el key ID del material subyacente.
func (h *Handle) KID() string { return h.kid }

// Alg retorna el algoritmo de firma ("EdDSA").
func (h *Handle) Alg() string { return h.alg }

// Sign firma data con la copia privada del handle.
func (h *Handle) Sign(data []byte) ([]byte, error) {
	if h.closed {
		return nil, ErrHandleClosed
	}
	return ed25519.Sign(h.priv, data), nil
}

// Signer expone la clave privada para firmar con golang-jwt
// (jwt.SigningMethodEdDSA espera una ed25519.PrivateKey).
func (h *Handle) Signer() (ed25519.PrivateKey, error) {
	if h.closed {
		return nil, ErrHandleClosed
	}
	return h.priv, nil
}

// Close libera el handle y borra su copia del material privado.
// Idempotente.
func (h *Handle) Close() error {
	if h.closed {
		return nil
	}
	for i := range h.priv {
		h.priv[i] = 0
	}
	h.priv = nil
	h.closed = true
	return nil
}
