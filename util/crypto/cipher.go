package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hospital-ui/hospital-ui/util/common"
	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the length in bytes of a field encryption key.
const KeySize = chacha20poly1305.KeySize

var tokenEncoding = base64.RawURLEncoding

// FieldCipher encrypts short strings with XChaCha20-Poly1305. Tokens are
// base64url(nonce || ciphertext) and safe to store in TEXT columns.
type FieldCipher struct {
	aead cipher.AEAD
}

// NewFieldCipher builds a cipher from a KeySize-byte key.
func NewFieldCipher(key []byte) (*FieldCipher, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, common.Wrap(common.ErrCryptoFailure, err)
	}
	return &FieldCipher{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random nonce.
func (c *FieldCipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", common.Wrap(common.ErrCryptoFailure, err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return tokenEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a token produced by Encrypt under the same key. Malformed,
// truncated, tampered or foreign tokens fail with common.ErrCryptoFailure.
func (c *FieldCipher) Decrypt(token string) (string, error) {
	raw, err := tokenEncoding.DecodeString(token)
	if err != nil {
		return "", common.Wrap(common.ErrCryptoFailure, err)
	}
	ns := c.aead.NonceSize()
	if len(raw) < ns+c.aead.Overhead() {
		return "", common.Wrap(common.ErrCryptoFailure, errors.New("token too short"))
	}
	plain, err := c.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return "", common.Wrap(common.ErrCryptoFailure, err)
	}
	return string(plain), nil
}

// GenerateKey returns KeySize random bytes.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

// LoadOrCreateKey reads the raw key at path, creating it (mode 0600) when the
// file does not exist yet. A file of the wrong length is rejected rather than
// replaced, since replacing it would strand every existing ciphertext.
func LoadOrCreateKey(path string) ([]byte, error) {
	key, err := os.ReadFile(path)
	if err == nil {
		if len(key) != KeySize {
			return nil, common.Wrap(common.ErrCryptoFailure,
				fmt.Errorf("key file %s has %d bytes, want %d", path, len(key), KeySize))
		}
		return key, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, common.Wrap(common.ErrIOFailure, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, common.Wrap(common.ErrIOFailure, err)
	}
	key, err = GenerateKey()
	if err != nil {
		return nil, common.Wrap(common.ErrCryptoFailure, err)
	}
	// O_EXCL so two first-time callers cannot each write a different key.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, fs.ErrExist) {
		return LoadOrCreateKey(path)
	} else if err != nil {
		return nil, common.Wrap(common.ErrIOFailure, err)
	}
	if _, err := f.Write(key); err != nil {
		f.Close()
		return nil, common.Wrap(common.ErrIOFailure, err)
	}
	if err := f.Close(); err != nil {
		return nil, common.Wrap(common.ErrIOFailure, err)
	}
	return key, nil
}
