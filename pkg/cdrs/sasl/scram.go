// Package sasl implements the SASL mechanisms a CQL client authenticator
// can drive during the STARTUP/AUTHENTICATE/AUTH_RESPONSE exchange.
package sasl

import (
	"bytes"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// ScramSHA256 drives a single SCRAM-SHA-256 authentication exchange. A new
// instance must be used for every authentication attempt; it is not safe to
// reuse once ChallengeResponse has been called.
type ScramSHA256 struct {
	username string
	password string

	clientNonce   string
	clientFirstMsgBare string
	saltedPassword []byte
	authMessage    string
}

// NewScramSHA256 returns a mechanism for the given credentials, generating
// a fresh client nonce.
func NewScramSHA256(username, password string) *ScramSHA256 {
	nonce := make([]byte, 18)
	_, _ = rand.Read(nonce)
	return &ScramSHA256{
		username:    username,
		password:    password,
		clientNonce: base64.StdEncoding.EncodeToString(nonce),
	}
}

// FirstMessage returns the client-first-message sent as the initial
// AUTH_RESPONSE token.
func (s *ScramSHA256) FirstMessage() []byte {
	s.clientFirstMsgBare = fmt.Sprintf("n=%s,r=%s", saslEscape(s.username), s.clientNonce)
	return []byte("n,," + s.clientFirstMsgBare)
}

// ChallengeResponse parses the server-first-message delivered in an
// AUTH_CHALLENGE and returns the client-final-message to send back.
func (s *ScramSHA256) ChallengeResponse(serverFirst []byte) ([]byte, error) {
	fields, err := parseScramFields(string(serverFirst))
	if err != nil {
		return nil, err
	}
	serverNonce := fields["r"]
	if !strings.HasPrefix(serverNonce, s.clientNonce) {
		return nil, fmt.Errorf("sasl: server nonce does not extend client nonce")
	}
	saltB64, ok := fields["s"]
	if !ok {
		return nil, fmt.Errorf("sasl: server-first-message missing salt")
	}
	salt, err := base64.StdEncoding.DecodeString(saltB64)
	if err != nil {
		return nil, fmt.Errorf("sasl: invalid salt encoding: %w", err)
	}
	iterations, err := strconv.Atoi(fields["i"])
	if err != nil {
		return nil, fmt.Errorf("sasl: invalid iteration count: %w", err)
	}

	s.saltedPassword = pbkdf2.Key([]byte(s.password), salt, iterations, sha256.Size, sha256.New)

	channelBinding := base64.StdEncoding.EncodeToString([]byte("n,,"))
	clientFinalNoProof := fmt.Sprintf("c=%s,r=%s", channelBinding, serverNonce)
	s.authMessage = fmt.Sprintf("%s,%s,%s", s.clientFirstMsgBare, string(serverFirst), clientFinalNoProof)

	clientKey := hmacSHA256(s.saltedPassword, []byte("Client Key"))
	storedKey := sha256.Sum256(clientKey)
	clientSignature := hmacSHA256(storedKey[:], []byte(s.authMessage))
	clientProof := xorBytes(clientKey, clientSignature)

	finalMessage := fmt.Sprintf("%s,p=%s", clientFinalNoProof, base64.StdEncoding.EncodeToString(clientProof))
	return []byte(finalMessage), nil
}

// VerifyServerSignature checks the server-final-message (delivered in
// AUTH_SUCCESS) against the expected ServerSignature, proving the server
// also knows the password without learning it over the wire.
func (s *ScramSHA256) VerifyServerSignature(serverFinal []byte) error {
	fields, err := parseScramFields(string(serverFinal))
	if err != nil {
		return err
	}
	vB64, ok := fields["v"]
	if !ok {
		return fmt.Errorf("sasl: server-final-message missing verifier")
	}
	got, err := base64.StdEncoding.DecodeString(vB64)
	if err != nil {
		return fmt.Errorf("sasl: invalid verifier encoding: %w", err)
	}

	serverKey := hmacSHA256(s.saltedPassword, []byte("Server Key"))
	want := hmacSHA256(serverKey, []byte(s.authMessage))
	if !bytes.Equal(got, want) {
		return fmt.Errorf("sasl: server signature mismatch")
	}
	return nil
}

func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}

func xorBytes(a, b []byte) []byte {
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}
	return out
}

func saslEscape(s string) string {
	s = strings.ReplaceAll(s, "=", "=3D")
	s = strings.ReplaceAll(s, ",", "=2C")
	return s
}

func parseScramFields(msg string) (map[string]string, error) {
	out := make(map[string]string)
	for _, part := range strings.Split(msg, ",") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		out[kv[0]] = kv[1]
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("sasl: malformed scram message %q", msg)
	}
	return out, nil
}
