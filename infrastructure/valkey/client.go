package valkey

import (
	"context"
	"fmt"
	"strings"
	"time"

	valkeylib "github.com/valkey-io/valkey-go"
)

const (
	// DefaultConnectTimeout is the maximum time to wait for initial connection
	DefaultConnectTimeout = 5 * time.Second
)

// Config holds the configuration for creating a Valkey client
type Config struct {
	Address        string
	Password       string
	DB             int
	KeyPrefix      string
	ConnectTimeout time.Duration // Optional, defaults to DefaultConnectTimeout
}

// Client wraps the valkey-go client with the key namespacing and pub/sub
// helpers used by the lookup store and bus.
type Client struct {
	inner     valkeylib.Client
	keyPrefix string
}

// NewClient dials Valkey and verifies the connection with a PING.
// The caller is responsible for calling Close() when done.
func NewClient(cfg Config) (*Client, error) {
	opts := valkeylib.ClientOption{
		InitAddress: []string{cfg.Address},
		SelectDB:    cfg.DB,
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	inner, err := valkeylib.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create valkey client: %w", err)
	}

	timeout := cfg.ConnectTimeout
	if timeout == 0 {
		timeout = DefaultConnectTimeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := inner.Do(ctx, inner.B().Ping().Build()).Error(); err != nil {
		inner.Close()
		return nil, fmt.Errorf("failed to ping valkey (timeout: %v): %w", timeout, err)
	}

	return Wrap(inner, cfg.KeyPrefix), nil
}

// Wrap builds a Client around an existing valkey-go client.
func Wrap(inner valkeylib.Client, keyPrefix string) *Client {
	if keyPrefix != "" && !strings.HasSuffix(keyPrefix, ":") {
		keyPrefix += ":"
	}
	return &Client{inner: inner, keyPrefix: keyPrefix}
}

// Inner returns the underlying valkey-go client.
func (c *Client) Inner() valkeylib.Client {
	return c.inner
}

// Close closes the Valkey connection.
func (c *Client) Close() {
	if c.inner != nil {
		c.inner.Close()
	}
}

// Key constructs a prefixed key from the given parts.
// Example: Key("lookups", "genderLookups") -> "azlookups:lookups:genderLookups"
func (c *Client) Key(parts ...string) string {
	if len(parts) == 0 {
		return strings.TrimSuffix(c.keyPrefix, ":")
	}
	return c.keyPrefix + strings.Join(parts, ":")
}

// Ping tests the connection to Valkey with a context for timeout control.
func (c *Client) Ping(ctx context.Context) error {
	return c.inner.Do(ctx, c.inner.B().Ping().Build()).Error()
}

// Publish sends message on a Pub/Sub channel.
func (c *Client) Publish(ctx context.Context, channel, message string) error {
	cmd := c.inner.B().Publish().Channel(channel).Message(message).Build()
	return c.inner.Do(ctx, cmd).Error()
}

// Subscribe blocks, invoking fn for every message on channel until ctx is done
// or the connection fails.
func (c *Client) Subscribe(ctx context.Context, channel string, fn func(message string)) error {
	cmd := c.inner.B().Subscribe().Channel(channel).Build()
	return c.inner.Receive(ctx, cmd, func(msg valkeylib.PubSubMessage) {
		fn(msg.Message)
	})
}

// IsNil checks if an error returned by the client represents a Valkey NIL response.
func IsNil(err error) bool {
	return valkeylib.IsValkeyNil(err)
}
