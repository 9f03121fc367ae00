package directory

import (
	"context"
	"fmt"

	"github.com/go-ldap/ldap/v3"
)

// CreateOURequest carries the fields of a new organizational unit. Name
// is required; an empty ParentDN places the unit directly under the
// domain base.
type CreateOURequest struct {
	Name        string
	ParentDN    string
	Description string
}

// CreateOU creates an organizational unit in one transaction wrapping one
// add. An existing unit with the same DN surfaces as ErrDuplicateEntry.
func (c *Client) CreateOU(ctx context.Context, req *CreateOURequest) error {
	if req.Name == "" {
		return NewOperationError("create_org_unit", fmt.Errorf("name is required"))
	}

	return c.withSession(ctx, "create_org_unit", func(sess Session) error {
		parent := req.ParentDN
		if parent == "" {
			parent = sess.DomainBase()
		}
		dn := fmt.Sprintf("OU=%s,%s", ldap.EscapeDN(req.Name), parent)

		existing, err := findOne(ctx, sess, fmt.Sprintf("(&(objectClass=organizationalUnit)(distinguishedName=%s))",
			ldap.EscapeFilter(dn)), []string{"distinguishedName"})
		if err != nil {
			return WrapError("create_org_unit_lookup", err)
		}
		if existing != nil {
			return fmt.Errorf("%w: org unit %q", ErrDuplicateEntry, dn)
		}

		attrs := map[string][]string{
			"objectClass": {"top", "organizationalUnit"},
			"ou":          {req.Name},
		}
		if req.Description != "" {
			attrs["description"] = []string{req.Description}
		}

		return WithTransaction(sess, func() error {
			if err := sess.Write(ctx, &Mutation{
				Kind:       MutationAdd,
				DN:         dn,
				Attributes: attrs,
			}); err != nil {
				return WrapError("create_org_unit", err)
			}
			return nil
		})
	})
}

// DeleteOU removes an organizational unit by DN in one transaction
// wrapping one delete. The unit must be empty; the server rejects
// deletion of a non-leaf entry.
func (c *Client) DeleteOU(ctx context.Context, dn string) error {
	if dn == "" {
		return NewOperationError("delete_org_unit", fmt.Errorf("dn is required"))
	}

	return c.withSession(ctx, "delete_org_unit", func(sess Session) error {
		return WithTransaction(sess, func() error {
			if err := sess.Write(ctx, &Mutation{
				Kind: MutationDelete,
				DN:   dn,
			}); err != nil {
				return WrapError("delete_org_unit", err)
			}
			return nil
		})
	})
}

// ListOUs returns the organizational units of the domain in one
// read-only transaction.
func (c *Client) ListOUs(ctx context.Context) ([]Entry, error) {
	attrs := []string{"ou", "description", "distinguishedName"}

	var entries []Entry
	err := c.withSession(ctx, "list_org_units", func(sess Session) error {
		return WithTransaction(sess, func() error {
			recs, err := sess.Search(ctx, &SearchRequest{
				Base:       sess.DomainBase(),
				Scope:      ScopeWholeSubtree,
				Filter:     "(objectClass=organizationalUnit)",
				Attributes: attrs,
			})
			if err != nil {
				return WrapError("list_org_units", err)
			}
			entries = normalizeAll(recs, attrs)
			return nil
		})
	})
	return entries, err
}
