// Package ldap connects the directory facade to an Active Directory
// domain controller over LDAP. It implements directory.Connector and
// directory.Session on top of go-ldap, with DNS SRV discovery of domain
// controllers when no fixed server URL is configured.
package ldap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/go-ldap/ldap/v3"
	"go.uber.org/zap"

	"github.com/bzdvdn/samba-ad-api/internal/directory"
)

// rootDSE attributes consulted at connect time.
const attrDefaultNamingContext = "defaultNamingContext"

// Connector dials and binds a fresh connection per Connect call. It holds
// no connection state itself and is safe for concurrent use.
type Connector struct {
	opts     *Options
	log      *zap.Logger
	resolver *net.Resolver
}

// NewConnector validates opts and builds a connector.
func NewConnector(opts *Options, log *zap.Logger) (*Connector, error) {
	if opts == nil {
		return nil, fmt.Errorf("options are required")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Connector{
		opts:     opts,
		log:      log,
		resolver: net.DefaultResolver,
	}, nil
}

// Connect dials a domain controller, binds with cred, and discovers the
// domain's default naming context. A rejected credential fails with
// directory.ErrAuthentication; every other failure keeps its LDAP
// diagnostics.
func (c *Connector) Connect(ctx context.Context, cred directory.Credential) (directory.Session, error) {
	urls, err := c.candidateURLs(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving domain controllers: %w", err)
	}

	var lastErr error
	for _, serverURL := range urls {
		sess, err := c.connectOne(ctx, serverURL, cred)
		if err == nil {
			return sess, nil
		}
		if errors.Is(err, directory.ErrAuthentication) {
			// The credential is wrong everywhere; trying the next server
			// only burns bad-password attempts.
			return nil, err
		}
		c.log.Warn("domain controller unreachable",
			zap.String("url", serverURL),
			zap.Error(err))
		lastErr = err
	}
	return nil, lastErr
}

// candidateURLs returns the servers to try, in order.
func (c *Connector) candidateURLs(ctx context.Context) ([]string, error) {
	if c.opts.URL != "" {
		return []string{c.opts.URL}, nil
	}

	servers, err := discoverServers(ctx, c.resolver, c.opts.Domain)
	if err != nil {
		return nil, err
	}
	urls := make([]string, 0, len(servers))
	for _, s := range servers {
		urls = append(urls, s.URL())
	}
	return urls, nil
}

func (c *Connector) connectOne(ctx context.Context, serverURL string, cred directory.Credential) (directory.Session, error) {
	parsed, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL %q: %w", serverURL, err)
	}

	dialer := &net.Dialer{Timeout: c.opts.DialTimeout}
	conn, err := ldap.DialURL(serverURL,
		ldap.DialWithDialer(dialer),
		ldap.DialWithTLSConfig(c.opts.tlsConfig(parsed.Hostname())))
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", serverURL, err)
	}

	if c.opts.UseTLS && parsed.Scheme == "ldap" {
		if err := conn.StartTLS(c.opts.tlsConfig(parsed.Hostname())); err != nil {
			conn.Close()
			return nil, fmt.Errorf("starttls with %s: %w", serverURL, err)
		}
	}

	conn.SetTimeout(c.opts.RequestTimeout)

	if err := conn.Bind(cred.Username, cred.Password); err != nil {
		conn.Close()
		if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
			return nil, directory.ErrAuthentication
		}
		return nil, fmt.Errorf("bind as %s: %w", cred.Username, err)
	}

	base, err := c.discoverBase(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}

	c.log.Debug("directory session established",
		zap.String("url", serverURL),
		zap.String("base", base))

	return &session{
		conn:      conn,
		base:      base,
		sizeLimit: c.opts.SizeLimit,
	}, nil
}

// discoverBase reads defaultNamingContext from the root DSE.
func (c *Connector) discoverBase(conn *ldap.Conn) (string, error) {
	res, err := conn.Search(ldap.NewSearchRequest(
		"", ldap.ScopeBaseObject, ldap.NeverDerefAliases,
		0, 0, false,
		"(objectClass=*)",
		[]string{attrDefaultNamingContext},
		nil,
	))
	if err != nil {
		return "", fmt.Errorf("reading root DSE: %w", err)
	}

	for _, entry := range res.Entries {
		if base := entry.GetAttributeValue(attrDefaultNamingContext); base != "" {
			return base, nil
		}
	}
	return "", fmt.Errorf("root DSE did not expose %s", attrDefaultNamingContext)
}
