package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Signer issues and verifies stateless bearer tokens. A token is the signed
// triple user id, expiry and issue time; there is no server-side session
// state, so logout is a client-side discard.
type Signer struct {
	secret []byte
	ttl    time.Duration
}

func NewSigner(secret string, ttl time.Duration) (*Signer, error) {
	if secret == "" {
		return nil, fmt.Errorf("auth secret is required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Signer{secret: []byte(secret), ttl: ttl}, nil
}

// Issue returns a token for the user and its expiry time.
func (s *Signer) Issue(userID string) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, fmt.Errorf("user id is required")
	}
	now := time.Now()
	expiresAt := now.Add(s.ttl)

	payload := fmt.Sprintf("%s|%d|%d", userID, expiresAt.Unix(), now.Unix())
	token := base64.RawURLEncoding.EncodeToString([]byte(payload)) + "." +
		base64.RawURLEncoding.EncodeToString(s.sign(payload))
	return token, expiresAt, nil
}

// Verify checks the signature and expiry and returns the subject user id.
func (s *Signer) Verify(token string) (string, error) {
	payloadPart, signaturePart, ok := strings.Cut(token, ".")
	if !ok {
		return "", fmt.Errorf("malformed token")
	}
	payload, err := base64.RawURLEncoding.DecodeString(payloadPart)
	if err != nil {
		return "", fmt.Errorf("malformed token payload: %w", err)
	}
	signature, err := base64.RawURLEncoding.DecodeString(signaturePart)
	if err != nil {
		return "", fmt.Errorf("malformed token signature: %w", err)
	}
	if !hmac.Equal(signature, s.sign(string(payload))) {
		return "", fmt.Errorf("invalid token signature")
	}

	parts := strings.Split(string(payload), "|")
	if len(parts) != 3 {
		return "", fmt.Errorf("malformed token payload")
	}
	expiresAt, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", fmt.Errorf("malformed token expiry: %w", err)
	}
	if time.Now().Unix() > expiresAt {
		return "", fmt.Errorf("token expired")
	}
	return parts[0], nil
}

func (s *Signer) sign(payload string) []byte {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(payload))
	return h.Sum(nil)
}
