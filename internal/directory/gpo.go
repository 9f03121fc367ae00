package directory

import (
	"context"
	"strconv"
)

// Group policy flags values: which halves of a policy object are
// disabled.
const (
	gpoFlagsAllEnabled       = 0
	gpoFlagsUserDisabled     = 1
	gpoFlagsComputerDisabled = 2
	gpoFlagsAllDisabled      = 3
)

// listGPOAttributes is the attribute set of the policy listing.
var listGPOAttributes = []string{"displayName", "name", "gPCFileSysPath", "versionNumber", "flags", "whenChanged", "distinguishedName"}

// ListGPOs returns the group policy objects of the domain, read from the
// CN=Policies,CN=System container in one read-only transaction. The raw
// flags value is supplemented with a human-readable "status" field.
func (c *Client) ListGPOs(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	err := c.withSession(ctx, "list_gpos", func(sess Session) error {
		return WithTransaction(sess, func() error {
			recs, err := sess.Search(ctx, &SearchRequest{
				Base:       "CN=Policies,CN=System," + sess.DomainBase(),
				Scope:      ScopeSingleLevel,
				Filter:     "(objectClass=groupPolicyContainer)",
				Attributes: listGPOAttributes,
			})
			if err != nil {
				return WrapError("list_gpos", err)
			}
			entries = normalizeAll(recs, listGPOAttributes)
			for _, entry := range entries {
				entry["status"] = gpoStatus(entry["flags"])
			}
			return nil
		})
	})
	return entries, err
}

// gpoStatus renders a policy's flags value as its enabled/disabled
// status text.
func gpoStatus(flags any) string {
	// An absent flags attribute means nothing is disabled.
	n := gpoFlagsAllEnabled
	if flags != nil {
		s, ok := flags.(string)
		if !ok {
			return "unknown"
		}
		parsed, err := strconv.Atoi(s)
		if err != nil {
			return "unknown"
		}
		n = parsed
	}

	switch n {
	case gpoFlagsAllEnabled:
		return "all settings enabled"
	case gpoFlagsUserDisabled:
		return "user configuration settings disabled"
	case gpoFlagsComputerDisabled:
		return "computer configuration settings disabled"
	case gpoFlagsAllDisabled:
		return "all settings disabled"
	default:
		return "unknown"
	}
}
