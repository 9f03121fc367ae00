// Package directory implements the transactional directory-access core:
// a client facade that connects a fresh credential-bound session per
// operation, scopes every mutation inside begin/commit/cancel, and
// normalizes heterogeneous directory records into a canonical entry
// shape.
//
// There is deliberately no connection pool and no cross-request session
// cache: every call reconnects with the credential recovered from its
// token, trading connection-setup cost for zero server-side session state
// and zero risk of credential leakage across requests.
package directory

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Client composes the transaction wrapper and the entry normalizer into
// entry-level directory operations. A Client is constructed fresh per
// request with the credential recovered from the bearer token; each
// operation connects its own session and discards it on return.
type Client struct {
	connector Connector
	cred      Credential
	log       *zap.Logger
}

// NewClient creates a facade bound to one credential.
func NewClient(connector Connector, cred Credential, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		connector: connector,
		cred:      cred,
		log:       log,
	}
}

// withSession connects a fresh session for one operation, runs fn, and
// closes the session on return. The password never reaches the log.
func (c *Client) withSession(ctx context.Context, operation string, fn func(Session) error) error {
	start := time.Now()

	sess, err := c.connector.Connect(ctx, c.cred)
	if err != nil {
		c.log.Warn("directory connect failed",
			zap.String("operation", operation),
			zap.String("username", c.cred.Username),
			zap.Error(err))
		return err
	}
	defer func() { _ = sess.Close() }()

	err = fn(sess)

	if err != nil {
		c.log.Warn("directory operation failed",
			zap.String("operation", operation),
			zap.String("username", c.cred.Username),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return err
	}

	c.log.Debug("directory operation completed",
		zap.String("operation", operation),
		zap.String("username", c.cred.Username),
		zap.Duration("duration", time.Since(start)))
	return nil
}

// Search performs a free-text search with a caller-built filter
// expression inside one read-only transaction. Filter composition rules
// are the caller's concern.
func (c *Client) Search(ctx context.Context, filter string, attrs []string) ([]Entry, error) {
	var entries []Entry
	err := c.withSession(ctx, "search", func(sess Session) error {
		return WithTransaction(sess, func() error {
			recs, err := sess.Search(ctx, &SearchRequest{
				Base:       sess.DomainBase(),
				Scope:      ScopeWholeSubtree,
				Filter:     filter,
				Attributes: attrs,
			})
			if err != nil {
				return WrapError("search", err)
			}
			entries = normalizeAll(recs, attrs)
			return nil
		})
	})
	return entries, err
}

// normalizeAll converts a result set to canonical entries.
func normalizeAll(recs []RawRecord, attrs []string) []Entry {
	entries := make([]Entry, 0, len(recs))
	for _, rec := range recs {
		entries = append(entries, NormalizeEntry(rec, attrs))
	}
	return entries
}

// findOne searches for at most one record matching filter under the
// domain base. A zero-record result returns (nil, nil); absence is not an
// error at this layer.
func findOne(ctx context.Context, sess Session, filter string, attrs []string) (*RawRecord, error) {
	recs, err := sess.Search(ctx, &SearchRequest{
		Base:       sess.DomainBase(),
		Scope:      ScopeWholeSubtree,
		Filter:     filter,
		Attributes: attrs,
		SizeLimit:  1,
	})
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return &recs[0], nil
}

// resolveDN resolves a filter to the distinguished name of the single
// matching record, failing with ErrNotFound when nothing matches.
func resolveDN(ctx context.Context, sess Session, filter string) (string, error) {
	rec, err := findOne(ctx, sess, filter, []string{"distinguishedName"})
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "", ErrNotFound
	}
	return rec.DN, nil
}
