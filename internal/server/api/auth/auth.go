// Package auth implements the control API's password authentication: a
// nonce/HMAC handshake that upgrades a plaintext TCP session to an encrypted
// one. The derivation constants are part of the wire contract; changing them
// locks out every existing client.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// AutoGenKeyLength is the length of generated API passwords.
	AutoGenKeyLength = 16
	// PBKDF2Iterations and PBKDF2Salt fix the password stretch so non-Go
	// clients can derive the same key.
	PBKDF2Iterations = 100000
	PBKDF2Salt       = "FLIGHTBRIDGE-Key-v1"

	base62         = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	sessionContext = "FLIGHTBRIDGE-Session-v1"
)

// GenerateKey returns a fresh random base62 API password.
func GenerateKey() (string, error) {
	raw := make([]byte, AutoGenKeyLength)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}

	key := make([]byte, AutoGenKeyLength)
	for i, b := range raw {
		key[i] = base62[int(b)%62]
	}
	return string(key), nil
}

// DeriveKey stretches the configured password into the 32-byte handshake key.
func DeriveKey(password string) ([]byte, error) {
	if password == "" {
		return nil, errors.New("password cannot be empty")
	}
	return pbkdf2.Key([]byte(password), []byte(PBKDF2Salt), PBKDF2Iterations, 32, sha256.New), nil
}

// DeriveSessionKey mixes the handshake key with both nonces into the
// per-session encryption key. Plain SHA-256 mixing keeps non-Go clients
// simple.
func DeriveSessionKey(key, serverNonce, clientNonce []byte) []byte {
	h := sha256.New()
	h.Write(key)
	h.Write(serverNonce)
	h.Write(clientNonce)
	h.Write([]byte(sessionContext))
	return h.Sum(nil)
}
