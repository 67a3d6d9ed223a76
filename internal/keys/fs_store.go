package keys

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/dropDatabas3/authzcore/internal/domain/repository"
	"github.com/dropDatabas3/authzcore/internal/util/atomicwrite"
)

const activeKeyFile = "active.json"

// FileKeyStore implementa KeyStore usando un archivo en disco.
// Garantías:
//   - Escritura atómica: write tmp → fsync → rename
//   - Permisos 0600 (el archivo contiene la seed privada)
//   - El kid no cambia entre restarts
type FileKeyStore struct {
	dir string
}

// keyFileData representa la estructura del archivo JSON.
type keyFileData struct {
	KID       string    `json:"kid"`
	Algorithm string    `json:"algorithm"`
	SeedB64   string    `json:"seed_b64"`
	PublicB64 string    `json:"public_b64"`
	CreatedAt time.Time `json:"created_at"`
}

// NewFileKeyStore crea un keystore basado en archivos bajo dir.
func NewFileKeyStore(dir string) (*FileKeyStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create keys directory: %w", err)
	}
	return &FileKeyStore{dir: dir}, nil
}

// Load lee la clave activa. Retorna repository.ErrNotFound si no existe.
func (s *FileKeyStore) Load(_ context.Context) (*StoredKey, error) {
	path := filepath.Join(s.dir, activeKeyFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("read key file: %w", err)
	}

	var fd keyFileData
	if err := json.Unmarshal(data, &fd); err != nil {
		return nil, fmt.Errorf("parse key file: %w", err)
	}
	seed, err := base64.StdEncoding.DecodeString(fd.SeedB64)
	if err != nil || len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("invalid seed in key file")
	}
	pub, err := base64.StdEncoding.DecodeString(fd.PublicB64)
	if err != nil {
		return nil, fmt.Errorf("invalid public key in key file")
	}
	return &StoredKey{
		KID:       fd.KID,
		Alg:       fd.Algorithm,
		Seed:      seed,
		PublicKey: pub,
		CreatedAt: fd.CreatedAt,
	}, nil
}

// Save persiste la clave de forma atómica con permisos restrictivos.
func (s *FileKeyStore) Save(_ context.Context, key *StoredKey) error {
	fd := keyFileData{
		KID:       key.KID,
		Algorithm: key.Alg,
		SeedB64:   base64.StdEncoding.EncodeToString(key.Seed),
		PublicB64: base64.StdEncoding.EncodeToString(key.PublicKey),
		CreatedAt: key.CreatedAt,
	}
	data, err := json.MarshalIndent(fd, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal key file: %w", err)
	}
	path := filepath.Join(s.dir, activeKeyFile)
	if err := atomicwrite.AtomicWriteFile(path, data, fs.FileMode(0600)); err != nil {
		return fmt.Errorf("write key file: %w", err)
	}
	return nil
}
