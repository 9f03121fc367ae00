package ldap

import (
	"crypto/tls"
	"fmt"
	"time"

	"github.com/creasty/defaults"
)

// Options configures how connections to the directory are established.
// Exactly one of URL or Domain must be set: URL connects to a fixed
// server, Domain discovers servers through DNS SRV records.
type Options struct {
	// URL is the server address, e.g. ldap://dc1.example.com:389 or
	// ldaps://dc1.example.com:636.
	URL string

	// Domain enables SRV discovery of domain controllers when URL is
	// empty.
	Domain string

	// UseTLS upgrades a plain connection with StartTLS after dialing.
	// Ignored for ldaps:// URLs, which are TLS from the first byte.
	UseTLS bool `default:"true"`

	// InsecureSkipVerify disables certificate verification. Lab use only.
	InsecureSkipVerify bool

	DialTimeout    time.Duration `default:"10s"`
	RequestTimeout time.Duration `default:"30s"`

	// SizeLimit caps search result sets when the request itself does not.
	SizeLimit int `default:"1000"`
}

// NewOptions returns Options with defaults applied.
func NewOptions() (*Options, error) {
	opts := &Options{}
	if err := defaults.Set(opts); err != nil {
		return nil, fmt.Errorf("applying connection defaults: %w", err)
	}
	return opts, nil
}

// Validate checks that the options describe a reachable target.
func (o *Options) Validate() error {
	if o.URL == "" && o.Domain == "" {
		return fmt.Errorf("either URL or Domain must be set")
	}
	if o.URL != "" && o.Domain != "" {
		return fmt.Errorf("URL and Domain are mutually exclusive")
	}
	return nil
}

// tlsConfig builds the TLS client configuration for this target.
func (o *Options) tlsConfig(serverName string) *tls.Config {
	return &tls.Config{
		ServerName:         serverName,
		InsecureSkipVerify: o.InsecureSkipVerify,
		MinVersion:         tls.VersionTLS12,
	}
}
