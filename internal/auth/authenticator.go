// Package auth implements stateless session authentication on top of the
// token codec: login verifies a credential against the directory and
// mints a token pair; every authenticated request recovers its credential
// from the presented token with no server-side session store.
package auth

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/bzdvdn/samba-ad-api/internal/directory"
	"github.com/bzdvdn/samba-ad-api/internal/token"
)

var (
	// ErrTokenExpired reports a structurally valid token past its expiry.
	ErrTokenExpired = errors.New("token expired")

	// ErrWrongTokenKind reports an access token presented where a refresh
	// token is required, or vice versa.
	ErrWrongTokenKind = errors.New("wrong token kind")
)

// TokenPair is the login/refresh response body.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	Expires      int64  `json:"expires"`
	ExpiresAt    int64  `json:"expires_at"`
}

// Authenticator mints, verifies, and refreshes credential-bearing tokens.
type Authenticator struct {
	codec      *token.Codec
	connector  directory.Connector
	accessTTL  time.Duration
	refreshTTL time.Duration
	log        *zap.Logger
	now        func() time.Time
}

// NewAuthenticator builds an authenticator over the given codec and
// directory connector.
func NewAuthenticator(codec *token.Codec, connector directory.Connector, accessTTL, refreshTTL time.Duration, log *zap.Logger) *Authenticator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Authenticator{
		codec:      codec,
		connector:  connector,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		log:        log,
		now:        time.Now,
	}
}

// WithClock overrides the time source. Test hook.
func (a *Authenticator) WithClock(now func() time.Time) *Authenticator {
	a.now = now
	return a
}

// Login verifies the credential by binding to the directory and, on
// success, mints an access/refresh token pair embedding it. A rejected
// credential fails with directory.ErrAuthentication.
func (a *Authenticator) Login(ctx context.Context, cred directory.Credential) (*TokenPair, error) {
	sess, err := a.connector.Connect(ctx, cred)
	if err != nil {
		if errors.Is(err, directory.ErrAuthentication) {
			a.log.Info("login rejected", zap.String("username", cred.Username))
		}
		return nil, err
	}
	_ = sess.Close()

	a.log.Info("login accepted", zap.String("username", cred.Username))
	return a.mintPair(cred)
}

// Verify checks an access token and recovers the credential it carries.
func (a *Authenticator) Verify(tokenString string) (directory.Credential, error) {
	return a.parse(tokenString, token.KindAccess)
}

// Refresh accepts a refresh token and mints a fresh pair for the same
// credential. The presented refresh token stays valid until its own
// expiry; there is no server-side state to revoke it against.
func (a *Authenticator) Refresh(tokenString string) (*TokenPair, error) {
	cred, err := a.parse(tokenString, token.KindRefresh)
	if err != nil {
		return nil, err
	}
	return a.mintPair(cred)
}

func (a *Authenticator) parse(tokenString, wantKind string) (directory.Credential, error) {
	sub, expiry, err := a.codec.Parse(tokenString)
	if err != nil {
		return directory.Credential{}, err
	}
	// The expiry instant itself is already invalid.
	if !a.now().Before(expiry) {
		return directory.Credential{}, ErrTokenExpired
	}
	if sub.TokenType != wantKind {
		return directory.Credential{}, ErrWrongTokenKind
	}
	return directory.Credential{Username: sub.Username, Password: sub.Password}, nil
}

func (a *Authenticator) mintPair(cred directory.Credential) (*TokenPair, error) {
	access, err := a.codec.Mint(token.Subject{
		Username:  cred.Username,
		Password:  cred.Password,
		TokenType: token.KindAccess,
	}, a.accessTTL)
	if err != nil {
		return nil, err
	}

	refresh, err := a.codec.Mint(token.Subject{
		Username:  cred.Username,
		Password:  cred.Password,
		TokenType: token.KindRefresh,
	}, a.refreshTTL)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		Expires:      int64(a.accessTTL.Seconds()),
		ExpiresAt:    a.now().UTC().Add(a.accessTTL).Unix(),
	}, nil
}
