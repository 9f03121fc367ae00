package directory

import (
	"context"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/go-ldap/ldap/v3"
)

// listUserAttributes is the attribute set of the built-in user listing.
var listUserAttributes = []string{"sAMAccountName", "telephoneNumber", "mail", "distinguishedName"}

// userObjectClasses is the object-class chain of a newly created user.
var userObjectClasses = []string{"top", "person", "organizationalPerson", "user"}

// CreateUserRequest carries the fields of a new user account. Username
// and Password are required; everything else is optional.
type CreateUserRequest struct {
	Username        string
	Password        string
	GivenName       string
	Surname         string
	Mail            string
	TelephoneNumber string
	UserOU          string // target OU DN; empty means CN=Users under the domain base

	// UserAccountControl overrides the default normal-account flags.
	UserAccountControl *int32

	// PwdLastSet, when set, forces a password change at next login.
	PwdLastSet *int64

	// AccountExpires is seconds-from-now until account expiry. The write
	// happens after the creating transaction commits and is not atomic
	// with record creation.
	AccountExpires *int64
}

// UpdateUserRequest carries the mutable user fields; nil means leave the
// attribute unchanged.
type UpdateUserRequest struct {
	GivenName       *string
	Surname         *string
	Mail            *string
	TelephoneNumber *string
	DisplayName     *string
}

// ListUsers returns the active, non-expired user accounts of the domain
// in one read-only transaction.
func (c *Client) ListUsers(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	err := c.withSession(ctx, "list_users", func(sess Session) error {
		return WithTransaction(sess, func() error {
			recs, err := sess.Search(ctx, &SearchRequest{
				Base:       sess.DomainBase(),
				Scope:      ScopeWholeSubtree,
				Filter:     ActiveUserFilter(time.Now()),
				Attributes: listUserAttributes,
			})
			if err != nil {
				return WrapError("list_users", err)
			}
			entries = normalizeAll(recs, listUserAttributes)
			return nil
		})
	})
	return entries, err
}

// GetUserByUsername looks a user up by its sAMAccountName key in one
// read-only transaction. A miss returns (nil, nil); absence is not an
// error for a plain lookup.
func (c *Client) GetUserByUsername(ctx context.Context, username string) (Entry, error) {
	var entry Entry
	err := c.withSession(ctx, "get_user", func(sess Session) error {
		return WithTransaction(sess, func() error {
			rec, err := findOne(ctx, sess, UserByAccountNameFilter(username), nil)
			if err != nil {
				return WrapError("get_user", err)
			}
			if rec != nil {
				entry = NormalizeEntry(*rec, nil)
			}
			return nil
		})
	})
	return entry, err
}

// CreateUser creates a new user account.
//
// The duplicate check by account-name key runs outside the mutating
// transaction so no transaction is held open across the query+write span.
// The record write and the optional force-password-change run inside one
// transaction. The optional account-expiry write runs after that
// transaction commits; a crash between the two leaves a created user with
// no expiry set.
func (c *Client) CreateUser(ctx context.Context, req *CreateUserRequest) error {
	if req.Username == "" || req.Password == "" {
		return NewOperationError("create_user", fmt.Errorf("username and password are required"))
	}

	return c.withSession(ctx, "create_user", func(sess Session) error {
		existing, err := findOne(ctx, sess, UserByAccountNameFilter(req.Username), []string{"sAMAccountName"})
		if err != nil {
			return WrapError("create_user_lookup", err)
		}
		if existing != nil {
			return fmt.Errorf("%w: user %q", ErrDuplicateEntry, req.Username)
		}

		dn := userDN(req, sess.DomainBase())

		err = WithTransaction(sess, func() error {
			if err := sess.Write(ctx, &Mutation{
				Kind:       MutationAdd,
				DN:         dn,
				Attributes: newUserAttributes(req),
			}); err != nil {
				return WrapError("create_user", err)
			}

			if req.PwdLastSet != nil {
				if err := sess.Write(ctx, &Mutation{
					Kind:              MutationModify,
					DN:                dn,
					ReplaceAttributes: map[string][]string{"pwdLastSet": {"0"}},
				}); err != nil {
					return WrapError("force_password_change", err)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}

		if req.AccountExpires != nil {
			return c.setAccountExpiry(ctx, sess, dn, *req.AccountExpires)
		}
		return nil
	})
}

// setAccountExpiry writes accountExpires in its own transaction, after
// the creating transaction has already committed.
func (c *Client) setAccountExpiry(ctx context.Context, sess Session, dn string, seconds int64) error {
	ticks := ToNTTime(time.Now().Add(time.Duration(seconds) * time.Second))
	if seconds <= 0 {
		ticks = 0
	}
	return WithTransaction(sess, func() error {
		if err := sess.Write(ctx, &Mutation{
			Kind:              MutationModify,
			DN:                dn,
			ReplaceAttributes: map[string][]string{"accountExpires": {strconv.FormatInt(ticks, 10)}},
		}); err != nil {
			return WrapError("set_account_expiry", err)
		}
		return nil
	})
}

// UpdateUser applies the provided field changes in one transaction
// wrapping one modify.
func (c *Client) UpdateUser(ctx context.Context, username string, req *UpdateUserRequest) error {
	replace := make(map[string][]string)
	setIf := func(attr string, v *string) {
		if v != nil {
			replace[attr] = []string{*v}
		}
	}
	setIf("givenName", req.GivenName)
	setIf("sn", req.Surname)
	setIf("mail", req.Mail)
	setIf("telephoneNumber", req.TelephoneNumber)
	setIf("displayName", req.DisplayName)

	if len(replace) == 0 {
		return NewOperationError("update_user", fmt.Errorf("no fields to update"))
	}

	return c.withSession(ctx, "update_user", func(sess Session) error {
		return WithTransaction(sess, func() error {
			dn, err := resolveDN(ctx, sess, UserByAccountNameFilter(username))
			if err != nil {
				return WrapError("update_user_lookup", err)
			}
			if err := sess.Write(ctx, &Mutation{
				Kind:              MutationModify,
				DN:                dn,
				ReplaceAttributes: replace,
			}); err != nil {
				return WrapError("update_user", err)
			}
			return nil
		})
	})
}

// UpdateUserPassword resets a user's password in one transaction wrapping
// one modify.
func (c *Client) UpdateUserPassword(ctx context.Context, username, newPassword string) error {
	return c.withSession(ctx, "update_user_password", func(sess Session) error {
		return WithTransaction(sess, func() error {
			dn, err := resolveDN(ctx, sess, UserByAccountNameFilter(username))
			if err != nil {
				return WrapError("update_user_password_lookup", err)
			}
			if err := sess.Write(ctx, &Mutation{
				Kind:              MutationModify,
				DN:                dn,
				ReplaceAttributes: map[string][]string{"unicodePwd": {string(EncodePassword(newPassword))}},
			}); err != nil {
				return WrapError("update_user_password", err)
			}
			return nil
		})
	})
}

// DeleteUser removes a user account in one transaction wrapping one
// delete.
func (c *Client) DeleteUser(ctx context.Context, username string) error {
	return c.withSession(ctx, "delete_user", func(sess Session) error {
		return WithTransaction(sess, func() error {
			dn, err := resolveDN(ctx, sess, UserByAccountNameFilter(username))
			if err != nil {
				return WrapError("delete_user_lookup", err)
			}
			if err := sess.Write(ctx, &Mutation{
				Kind: MutationDelete,
				DN:   dn,
			}); err != nil {
				return WrapError("delete_user", err)
			}
			return nil
		})
	})
}

// MoveOrgUnit renames/moves an entry from one DN to another in one
// transaction wrapping one modify-DN.
func (c *Client) MoveOrgUnit(ctx context.Context, fromDN, toDN string) error {
	newRDN, newSuperior, err := splitDN(toDN)
	if err != nil {
		return NewOperationError("move_org_unit", err)
	}

	return c.withSession(ctx, "move_org_unit", func(sess Session) error {
		return WithTransaction(sess, func() error {
			if err := sess.Write(ctx, &Mutation{
				Kind:         MutationModifyDN,
				DN:           fromDN,
				NewRDN:       newRDN,
				NewSuperior:  newSuperior,
				DeleteOldRDN: true,
			}); err != nil {
				return WrapError("move_org_unit", err)
			}
			return nil
		})
	})
}

// userDN builds the distinguished name of a new user: CN=<username>
// under the requested OU, or under the domain's CN=Users container.
func userDN(req *CreateUserRequest, domainBase string) string {
	container := req.UserOU
	if container == "" {
		container = "CN=Users," + domainBase
	}
	return fmt.Sprintf("CN=%s,%s", ldap.EscapeDN(req.Username), container)
}

// newUserAttributes assembles the attribute set of a user add.
func newUserAttributes(req *CreateUserRequest) map[string][]string {
	uac := UACNormalAccount
	if req.UserAccountControl != nil {
		uac = *req.UserAccountControl
	}

	attrs := map[string][]string{
		"objectClass":        userObjectClasses,
		"sAMAccountName":     {req.Username},
		"userAccountControl": {strconv.FormatInt(int64(uac), 10)},
		"unicodePwd":         {string(EncodePassword(req.Password))},
	}
	if req.GivenName != "" {
		attrs["givenName"] = []string{req.GivenName}
	}
	if req.Surname != "" {
		attrs["sn"] = []string{req.Surname}
	}
	if req.Mail != "" {
		attrs["mail"] = []string{req.Mail}
	}
	if req.TelephoneNumber != "" {
		attrs["telephoneNumber"] = []string{req.TelephoneNumber}
	}
	return attrs
}

// EncodePassword renders a password in the form Active Directory expects
// for unicodePwd: the quoted password encoded as UTF-16LE.
func EncodePassword(password string) []byte {
	quoted := `"` + password + `"`
	codes := utf16.Encode([]rune(quoted))
	out := make([]byte, 2*len(codes))
	for i, r := range codes {
		binary.LittleEndian.PutUint16(out[2*i:], r)
	}
	return out
}

// splitDN splits a DN into its leading RDN and the remainder.
func splitDN(dn string) (rdn, superior string, err error) {
	parsed, err := ldap.ParseDN(dn)
	if err != nil {
		return "", "", fmt.Errorf("invalid DN %q: %w", dn, err)
	}
	if len(parsed.RDNs) < 2 {
		return "", "", fmt.Errorf("DN %q has no parent", dn)
	}

	first := parsed.RDNs[0]
	if len(first.Attributes) == 0 {
		return "", "", fmt.Errorf("DN %q has an empty RDN", dn)
	}
	// Multi-attribute RDNs (CN=a+OU=b) keep every attribute.
	parts := make([]string, 0, len(first.Attributes))
	for _, attr := range first.Attributes {
		parts = append(parts, fmt.Sprintf("%s=%s", attr.Type, ldap.EscapeDN(attr.Value)))
	}
	rdn = strings.Join(parts, "+")

	rest := &ldap.DN{RDNs: parsed.RDNs[1:]}
	return rdn, rest.String(), nil
}
