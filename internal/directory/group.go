package directory

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-ldap/ldap/v3"
)

// groupType flag values per the Microsoft AD schema. A group is the
// bitwise OR of a scope flag and, for security groups, the security bit.
const (
	GroupScopeGlobal      int32 = 0x00000002
	GroupScopeDomainLocal int32 = 0x00000004
	GroupScopeUniversal   int32 = 0x00000008
	GroupSecurityEnabled  int32 = -2147483648
)

// listGroupAttributes is the attribute set of the built-in group listing.
var listGroupAttributes = []string{"sAMAccountName", "description", "distinguishedName"}

// AddGroupRequest carries the fields of a new group. Groupname is
// required; an empty GroupOU places the group under the domain's
// CN=Users container.
type AddGroupRequest struct {
	Groupname   string
	Description string
	GroupOU     string

	// GroupType overrides the default global security group type.
	GroupType *int32
}

// ListGroups returns the group records of the domain in one read-only
// transaction.
func (c *Client) ListGroups(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	err := c.withSession(ctx, "list_groups", func(sess Session) error {
		return WithTransaction(sess, func() error {
			recs, err := sess.Search(ctx, &SearchRequest{
				Base:       sess.DomainBase(),
				Scope:      ScopeWholeSubtree,
				Filter:     "(objectClass=group)",
				Attributes: listGroupAttributes,
			})
			if err != nil {
				return WrapError("list_groups", err)
			}
			entries = normalizeAll(recs, listGroupAttributes)
			return nil
		})
	})
	return entries, err
}

// ListGroupMembers returns the member DNs of a group, resolved by its
// sAMAccountName key, in one read-only transaction.
func (c *Client) ListGroupMembers(ctx context.Context, groupname string) ([]string, error) {
	var members []string
	err := c.withSession(ctx, "list_group_members", func(sess Session) error {
		return WithTransaction(sess, func() error {
			rec, err := findOne(ctx, sess, GroupByAccountNameFilter(groupname), []string{"member"})
			if err != nil {
				return WrapError("list_group_members", err)
			}
			if rec == nil {
				return fmt.Errorf("%w: group %q", ErrNotFound, groupname)
			}
			for _, v := range rec.Attributes["member"] {
				members = append(members, decodeText(v))
			}
			return nil
		})
	})
	return members, err
}

// AddGroup creates a new group. The duplicate check by account-name key
// runs outside the mutating transaction; the record write is one add in
// one transaction.
func (c *Client) AddGroup(ctx context.Context, req *AddGroupRequest) error {
	if req.Groupname == "" {
		return NewOperationError("add_group", fmt.Errorf("groupname is required"))
	}

	return c.withSession(ctx, "add_group", func(sess Session) error {
		existing, err := findOne(ctx, sess, GroupByAccountNameFilter(req.Groupname), []string{"sAMAccountName"})
		if err != nil {
			return WrapError("add_group_lookup", err)
		}
		if existing != nil {
			return fmt.Errorf("%w: group %q", ErrDuplicateEntry, req.Groupname)
		}

		container := req.GroupOU
		if container == "" {
			container = "CN=Users," + sess.DomainBase()
		}
		dn := fmt.Sprintf("CN=%s,%s", ldap.EscapeDN(req.Groupname), container)

		groupType := GroupScopeGlobal | GroupSecurityEnabled
		if req.GroupType != nil {
			groupType = *req.GroupType
		}

		attrs := map[string][]string{
			"objectClass":    {"top", "group"},
			"sAMAccountName": {req.Groupname},
			"groupType":      {strconv.FormatInt(int64(groupType), 10)},
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
				return WrapError("add_group", err)
			}
			return nil
		})
	})
}

// DeleteGroup removes a group in one transaction wrapping one delete.
func (c *Client) DeleteGroup(ctx context.Context, groupname string) error {
	return c.withSession(ctx, "delete_group", func(sess Session) error {
		return WithTransaction(sess, func() error {
			dn, err := resolveDN(ctx, sess, GroupByAccountNameFilter(groupname))
			if err != nil {
				return WrapError("delete_group_lookup", err)
			}
			if err := sess.Write(ctx, &Mutation{
				Kind: MutationDelete,
				DN:   dn,
			}); err != nil {
				return WrapError("delete_group", err)
			}
			return nil
		})
	})
}

// AddGroupMembers adds users, resolved by their sAMAccountName keys, to a
// group. All additions land in one modify inside one transaction: either
// every member joins or none does.
func (c *Client) AddGroupMembers(ctx context.Context, groupname string, usernames []string) error {
	return c.modifyMembership(ctx, "add_group_members", groupname, usernames, true)
}

// RemoveGroupMembers removes users from a group. All removals land in one
// modify inside one transaction.
func (c *Client) RemoveGroupMembers(ctx context.Context, groupname string, usernames []string) error {
	return c.modifyMembership(ctx, "remove_group_members", groupname, usernames, false)
}

func (c *Client) modifyMembership(ctx context.Context, operation, groupname string, usernames []string, add bool) error {
	if len(usernames) == 0 {
		return NewOperationError(operation, fmt.Errorf("no members given"))
	}

	return c.withSession(ctx, operation, func(sess Session) error {
		return WithTransaction(sess, func() error {
			groupDN, err := resolveDN(ctx, sess, GroupByAccountNameFilter(groupname))
			if err != nil {
				return WrapError(operation+"_lookup", err)
			}

			memberDNs := make([]string, 0, len(usernames))
			for _, username := range usernames {
				dn, err := resolveDN(ctx, sess, UserByAccountNameFilter(username))
				if err != nil {
					return WrapError(operation+"_lookup", fmt.Errorf("member %q: %w", username, err))
				}
				memberDNs = append(memberDNs, dn)
			}

			mut := &Mutation{Kind: MutationModify, DN: groupDN}
			if add {
				mut.AddAttributes = map[string][]string{"member": memberDNs}
			} else {
				mut.DeleteAttributes = map[string][]string{"member": memberDNs}
			}
			if err := sess.Write(ctx, mut); err != nil {
				return WrapError(operation, err)
			}
			return nil
		})
	})
}
