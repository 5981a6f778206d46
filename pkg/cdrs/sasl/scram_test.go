package sasl

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/pbkdf2"
)

func TestScramSHA256FullExchange(t *testing.T) {
	password := "s3cret"
	salt := []byte("fixedsaltforatest")
	iterations := 4096

	mech := NewScramSHA256("alice", password)
	first := mech.FirstMessage()
	require.True(t, strings.HasPrefix(string(first), "n,,n=alice,r="))

	clientNonce := mech.clientNonce
	serverNonce := clientNonce + "serverpart"
	serverFirst := fmt.Sprintf("r=%s,s=%s,i=%d", serverNonce, base64.StdEncoding.EncodeToString(salt), iterations)

	final, err := mech.ChallengeResponse([]byte(serverFirst))
	require.NoError(t, err)
	require.Contains(t, string(final), "p=")
	require.Contains(t, string(final), serverNonce)

	saltedPassword := pbkdf2.Key([]byte(password), salt, iterations, sha256.Size, sha256.New)
	serverKey := hmacSHA256(saltedPassword, []byte("Server Key"))
	verifier := hmacSHA256(serverKey, []byte(mech.authMessage))
	serverFinal := "v=" + base64.StdEncoding.EncodeToString(verifier)

	require.NoError(t, mech.VerifyServerSignature([]byte(serverFinal)))
}

func TestScramSHA256RejectsMismatchedNonce(t *testing.T) {
	mech := NewScramSHA256("bob", "pw")
	mech.FirstMessage()
	_, err := mech.ChallengeResponse([]byte("r=totally-different-nonce,s=AAAA,i=4096"))
	require.Error(t, err)
}

func TestScramSHA256RejectsBadServerSignature(t *testing.T) {
	mech := NewScramSHA256("carol", "pw")
	mech.FirstMessage()
	salt := base64.StdEncoding.EncodeToString([]byte("somesalt"))
	serverFirst := fmt.Sprintf("r=%sx,s=%s,i=4096", mech.clientNonce, salt)
	_, err := mech.ChallengeResponse([]byte(serverFirst))
	require.NoError(t, err)

	err = mech.VerifyServerSignature([]byte("v=" + base64.StdEncoding.EncodeToString([]byte("wrong"))))
	require.Error(t, err)
}
