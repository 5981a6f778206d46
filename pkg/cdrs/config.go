package cdrs

import (
	"crypto/tls"
	"time"
)

// cfg holds every knob a Session is built from. It is assembled by Opt
// functions passed to NewSession, mirroring the teacher's cl.cfg field
// struct rather than a builder-inheritance hierarchy.
type cfg struct {
	nodes []string

	compression          Compression
	transportBufferSize  int
	tcpNoDelay           bool
	tlsConfig            *tls.Config
	dialTimeout          time.Duration

	retryPolicy         RetryPolicy
	reconnectionPolicy  ReconnectionPolicy
	authenticatorProvider AuthenticatorProvider

	logger Logger

	loadBalancer LoadBalancer
}

func defaultCfg() cfg {
	return cfg{
		compression:          CompressionNone,
		transportBufferSize:  1024,
		tcpNoDelay:           true,
		dialTimeout:          10 * time.Second,
		retryPolicy:          defaultRetryPolicy{},
		reconnectionPolicy:   defaultReconnectionPolicy(),
		logger:               NopLogger,
		loadBalancer:         &roundRobinBalancer{},
	}
}

// Opt configures a Session at construction time.
type Opt func(*cfg)

// WithNodes sets the initial contact nodes, each "host:port".
func WithNodes(nodes ...string) Opt {
	return func(c *cfg) { c.nodes = nodes }
}

// WithCompression sets the frame body compression scheme negotiated at
// STARTUP. Default is CompressionNone.
func WithCompression(compression Compression) Opt {
	return func(c *cfg) { c.compression = compression }
}

// WithTLSConfig enables TLS on every connection this session opens.
func WithTLSConfig(tlsConfig *tls.Config) Opt {
	return func(c *cfg) { c.tlsConfig = tlsConfig }
}

// WithTransportBufferSize sets the size of the per-connection outbound
// request channel. Default is 1024.
func WithTransportBufferSize(n int) Opt {
	return func(c *cfg) { c.transportBufferSize = n }
}

// WithTCPNoDelay toggles TCP_NODELAY on dialed connections. Default true.
func WithTCPNoDelay(enabled bool) Opt {
	return func(c *cfg) { c.tcpNoDelay = enabled }
}

// WithDialTimeout bounds how long a connection attempt may take. Default
// 10s.
func WithDialTimeout(d time.Duration) Opt {
	return func(c *cfg) { c.dialTimeout = d }
}

// WithRetryPolicy overrides the default RetryPolicy.
func WithRetryPolicy(p RetryPolicy) Opt {
	return func(c *cfg) { c.retryPolicy = p }
}

// WithReconnectionPolicy overrides the default ReconnectionPolicy used by
// every ConnectionManager's own reconnect attempts (not the session-level
// multi-node rotation, which always uses NeverReconnectionPolicy).
func WithReconnectionPolicy(p ReconnectionPolicy) Opt {
	return func(c *cfg) { c.reconnectionPolicy = p }
}

// WithAuthenticatorProvider sets the SASL-style authenticator used during
// handshake when the server responds to STARTUP with AUTHENTICATE.
func WithAuthenticatorProvider(p AuthenticatorProvider) Opt {
	return func(c *cfg) { c.authenticatorProvider = p }
}

// WithLogger sets the structured logger every subsystem writes through.
// Default is NopLogger.
func WithLogger(l Logger) Opt {
	return func(c *cfg) { c.logger = l }
}

// WithLoadBalancer overrides the default round-robin LoadBalancer.
func WithLoadBalancer(lb LoadBalancer) Opt {
	return func(c *cfg) { c.loadBalancer = lb }
}
