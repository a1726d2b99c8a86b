package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	nonceSizeGCM      = 12  // AES-GCM nonce size recomendado (96 bits)
	requiredKeyLength = 32  // 32 bytes => AES-256
	sep               = "|" // nonce|ciphertext (ambos en base64)
)

var (
	// ErrInvalidKey indica que la clave no decodifica a 32 bytes.
	ErrInvalidKey = errors.New("secretbox: invalid master key")

	// ErrInvalidCiphertext indica un formato de ciphertext inválido.
	ErrInvalidCiphertext = errors.New("secretbox: invalid ciphertext format")
)

// parseKey acepta la clave en base64 (std o raw), hex (64 chars) o raw de 32 bytes.
func parseKey(key string) ([]byte, error) {
	key = strings.TrimSpace(key)

	if b, err := base64.StdEncoding.DecodeString(key); err == nil && len(b) == requiredKeyLength {
		return b, nil
	}
	if b, err := base64.RawStdEncoding.DecodeString(key); err == nil && len(b) == requiredKeyLength {
		return b, nil
	}
	if len(key) == 2*requiredKeyLength {
		if h, err := hex.DecodeString(key); err == nil {
			return h, nil
		}
	}
	if len(key) == requiredKeyLength {
		return []byte(key), nil
	}
	return nil, ErrInvalidKey
}

// EncryptWithKey cifra plainText con la clave dada y devuelve
// base64(nonce)|base64(ciphertext).
func EncryptWithKey(key, plainText string) (string, error) {
	kBytes, err := parseKey(key)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(kBytes)
	if err != nil {
		return "", fmt.Errorf("aes.NewCipher: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("cipher.NewGCM: %w", err)
	}

	nonce := make([]byte, nonceSizeGCM)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("nonce random: %w", err)
	}

	ct := aesgcm.Seal(nil, nonce, []byte(plainText), nil)
	return base64.StdEncoding.EncodeToString(nonce) + sep + base64.StdEncoding.EncodeToString(ct), nil
}

// DecryptWithKey descifra un valor producido por EncryptWithKey.
func DecryptWithKey(key, cipherText string) (string, error) {
	kBytes, err := parseKey(key)
	if err != nil {
		return "", err
	}

	parts := strings.SplitN(cipherText, sep, 2)
	if len(parts) != 2 {
		return "", ErrInvalidCiphertext
	}
	nonce, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil || len(nonce) != nonceSizeGCM {
		return "", ErrInvalidCiphertext
	}
	ct, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", ErrInvalidCiphertext
	}

	block, err := aes.NewCipher(kBytes)
	if err != nil {
		return "", fmt.Errorf("aes.NewCipher: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("cipher.NewGCM: %w", err)
	}

	pt, err := aesgcm.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", fmt.Errorf("secretbox: open: %w", err)
	}
	return string(pt), nil
}
