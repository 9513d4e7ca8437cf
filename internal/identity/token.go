package identity

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
)

// ErrMalformedToken is returned for credentials that are not "<user id>.<secret>".
var ErrMalformedToken = errors.New("identity: malformed token")

const secretBytes = 32

// IssueToken creates a bearer token for userID and the hash to store for it.
// The token is only shown once; the store keeps the hash.
func IssueToken(userID string, params Argon2idParams) (token, hash string, err error) {
	if userID == "" || strings.Contains(userID, ".") {
		return "", "", ErrMalformedToken
	}

	raw := make([]byte, secretBytes)
	if _, err = rand.Read(raw); err != nil {
		return "", "", err
	}
	secret := base64.RawURLEncoding.EncodeToString(raw)

	hash, err = HashSecret(secret, params)
	if err != nil {
		return "", "", err
	}
	return userID + "." + secret, hash, nil
}

// ParseToken splits a bearer token into its user id and secret.
func ParseToken(token string) (userID, secret string, err error) {
	userID, secret, ok := strings.Cut(strings.TrimSpace(token), ".")
	if !ok || userID == "" || secret == "" {
		return "", "", ErrMalformedToken
	}
	return userID, secret, nil
}
