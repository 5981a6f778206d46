package cdrs

import "context"

// handshake drives STARTUP through READY (or AUTHENTICATE and the
// AUTH_RESPONSE/AUTH_CHALLENGE*/AUTH_SUCCESS exchange) on a freshly opened
// transport, per spec section 4.3. Any ERROR response at any stage is
// fatal: the transport is left Broken and never reused.
func handshake(ctx context.Context, t *transport, compression Compression, auth AuthenticatorProvider) error {
	startup := &Frame{
		Header: Header{Opcode: OpStartup},
		Body:   newStartupBody(compression),
	}
	resp, err := t.send(ctx, startup)
	if err != nil {
		return newHandshakeError("startup", err)
	}

	switch resp.Opcode() {
	case OpReady:
		t.setReady()
		return nil
	case OpAuthenticate:
		return authenticate(ctx, t, auth)
	case OpError:
		return newHandshakeError("startup", resp.AsServerError())
	default:
		return newHandshakeError("startup", newInternalError("unexpected response opcode %s", resp.Opcode()))
	}
}

func authenticate(ctx context.Context, t *transport, auth AuthenticatorProvider) error {
	if auth == nil {
		return newHandshakeError("authenticate", newInternalError("server requires authentication but no AuthenticatorProvider is configured"))
	}
	token, err := auth.Initial()
	if err != nil {
		return newHandshakeError("authenticate", err)
	}

	for {
		resp, err := t.send(ctx, &Frame{
			Header: Header{Opcode: OpAuthResponse},
			Body:   &AuthResponseBody{Token: token},
		})
		if err != nil {
			return newHandshakeError("auth_response", err)
		}

		switch resp.Opcode() {
		case OpAuthSuccess:
			t.setReady()
			return nil
		case OpAuthChallenge:
			challenge := resp.Body.(*AuthChallengeBody)
			token, err = auth.Challenge(challenge.Token)
			if err != nil {
				return newHandshakeError("auth_challenge", err)
			}
		case OpError:
			return newHandshakeError("auth_response", resp.AsServerError())
		default:
			return newHandshakeError("auth_response", newInternalError("unexpected response opcode %s", resp.Opcode()))
		}
	}
}
