package keys

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"sync"
	"testing"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestHandle_SignAndVerify(t *testing.T) {
	ctx := context.Background()
	p := NewProvider(nil)

	h, err := p.Handle(ctx)
	require.NoError(t, err)
	defer h.Close()

	msg := []byte("payload")
	sig, err := h.Sign(msg)
	require.NoError(t, err)

	pub, err := p.PublicKey(ctx)
	require.NoError(t, err)
	require.True(t, ed25519.Verify(pub, msg, sig))
}

func TestHandle_CloseReleases(t *testing.T) {
	ctx := context.Background()
	p := NewProvider(nil)

	h, err := p.Handle(ctx)
	require.NoError(t, err)
	require.NoError(t, h.Close())
	require.NoError(t, h.Close()) // idempotente

	_, err = h.Sign([]byte("x"))
	require.ErrorIs(t, err, ErrHandleClosed)
	_, err = h.Signer()
	require.ErrorIs(t, err, ErrHandleClosed)
}

func TestProvider_ConcurrentHandles(t *testing.T) {
	ctx := context.Background()
	p := NewProvider(nil)

	const workers = 32
	msg := []byte("concurrent signing")

	var wg sync.WaitGroup
	sigs := make([][]byte, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, err := p.Handle(ctx)
			if err != nil {
				errs[i] = err
				return
			}
			defer h.Close()
			sigs[i], errs[i] = h.Sign(msg)
		}(i)
	}
	wg.Wait()

	pub, err := p.PublicKey(ctx)
	require.NoError(t, err)
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		require.True(t, ed25519.Verify(pub, msg, sigs[i]), "worker %d", i)
	}

	// Todos los handles derivan del mismo par: un único KID.
	kid, err := p.KID(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, kid)
}

func TestProvider_JWTRoundTrip(t *testing.T) {
	ctx := context.Background()
	p := NewProvider(nil)

	h, err := p.Handle(ctx)
	require.NoError(t, err)
	defer h.Close()

	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodEdDSA, jwtv5.MapClaims{"sub": "alice"})
	tk.Header["kid"] = h.KID()
	priv, err := h.Signer()
	require.NoError(t, err)
	signed, err := tk.SignedString(priv)
	require.NoError(t, err)

	parsed, err := jwtv5.Parse(signed, p.Keyfunc(ctx), jwtv5.WithValidMethods([]string{AlgEdDSA}))
	require.NoError(t, err)
	require.True(t, parsed.Valid)
}

func TestProvider_KeyfuncRejectsUnknownKID(t *testing.T) {
	ctx := context.Background()
	p := NewProvider(nil)
	other := NewProvider(nil)

	h, err := other.Handle(ctx)
	require.NoError(t, err)
	defer h.Close()

	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodEdDSA, jwtv5.MapClaims{"sub": "alice"})
	tk.Header["kid"] = h.KID()
	priv, err := h.Signer()
	require.NoError(t, err)
	signed, err := tk.SignedString(priv)
	require.NoError(t, err)

	_, err = jwtv5.Parse(signed, p.Keyfunc(ctx), jwtv5.WithValidMethods([]string{AlgEdDSA}))
	require.Error(t, err)
}

func TestProvider_JWKS(t *testing.T) {
	ctx := context.Background()
	p := NewProvider(nil)

	raw, err := p.JWKSJSON(ctx)
	require.NoError(t, err)

	var doc struct {
		Keys []map[string]string `json:"keys"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	require.Len(t, doc.Keys, 1)
	require.Equal(t, "OKP", doc.Keys[0]["kty"])
	require.Equal(t, "Ed25519", doc.Keys[0]["crv"])
	require.Equal(t, AlgEdDSA, doc.Keys[0]["alg"])
	require.NotEmpty(t, doc.Keys[0]["x"])

	kid, err := p.KID(ctx)
	require.NoError(t, err)
	require.Equal(t, kid, doc.Keys[0]["kid"])
}
