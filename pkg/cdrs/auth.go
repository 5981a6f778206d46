package cdrs

import "github.com/cdrsgo/cdrsgo/pkg/cdrs/sasl"

// AuthenticatorProvider drives the AUTH_RESPONSE/AUTH_CHALLENGE exchange
// that follows an AUTHENTICATE response to STARTUP, mirroring the teacher's
// sasl.Mechanism.Authenticate/session Challenge flow generalized from Kafka
// SASL mechanisms to CQL's handshake (spec section 4.3).
type AuthenticatorProvider interface {
	// Initial returns the token sent in the first AUTH_RESPONSE.
	Initial() ([]byte, error)
	// Challenge returns the token to send in response to an AUTH_CHALLENGE
	// carrying data.
	Challenge(data []byte) ([]byte, error)
}

// PlainTextAuthenticator implements CQL's PasswordAuthenticator: a single
// AUTH_RESPONSE of the form "\x00username\x00password", no challenge round
// trips expected.
type PlainTextAuthenticator struct {
	Username string
	Password string
}

func (a *PlainTextAuthenticator) Initial() ([]byte, error) {
	buf := make([]byte, 0, len(a.Username)+len(a.Password)+2)
	buf = append(buf, 0)
	buf = append(buf, a.Username...)
	buf = append(buf, 0)
	buf = append(buf, a.Password...)
	return buf, nil
}

func (a *PlainTextAuthenticator) Challenge(data []byte) ([]byte, error) {
	return nil, newHandshakeError("plain_text_challenge", newInternalError("plain text authenticator does not expect a challenge"))
}

// ScramSHA256Authenticator implements SCRAM-SHA-256 authentication,
// delegating the mechanism's message construction to pkg/cdrs/sasl.
type ScramSHA256Authenticator struct {
	Username string
	Password string

	mech *sasl.ScramSHA256
}

func (a *ScramSHA256Authenticator) Initial() ([]byte, error) {
	a.mech = sasl.NewScramSHA256(a.Username, a.Password)
	return a.mech.FirstMessage(), nil
}

func (a *ScramSHA256Authenticator) Challenge(data []byte) ([]byte, error) {
	if a.mech == nil {
		return nil, newHandshakeError("scram_challenge", newInternalError("challenge received before Initial"))
	}
	return a.mech.ChallengeResponse(data)
}
