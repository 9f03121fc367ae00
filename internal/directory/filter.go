package directory

import (
	"fmt"
	"time"

	"github.com/go-ldap/ldap/v3"
)

// OIDBitAnd is the LDAP matching rule for bitwise-AND comparison against
// an integer attribute, used for userAccountControl flag tests.
const OIDBitAnd = "1.2.840.113556.1.4.803"

// userAccountControl flags consulted by the filter builder and the user
// operations. Values per the Microsoft AD schema.
const (
	UACAccountDisabled      int32 = 0x00000002
	UACPasswordNotRequired  int32 = 0x00000020
	UACNormalAccount        int32 = 0x00000200
	UACWorkstationTrust     int32 = 0x00001000
	UACPasswordNeverExpires int32 = 0x00010000
	UACPasswordExpired      int32 = 0x00800000
)

// ActiveUserFilter builds the listing filter for active, non-expired
// user accounts: normal account type, not disabled, and either never
// expiring or expiring at-or-after now. The expiry bound is
// greater-than-or-equal, so an account expiring exactly now still lists.
func ActiveUserFilter(now time.Time) string {
	filterExpires := fmt.Sprintf("(|(accountExpires=0)(accountExpires>=%d))", ToNTTime(now))
	filterDisabled := fmt.Sprintf("(!(userAccountControl:%s:=%d))", OIDBitAnd, UACAccountDisabled)

	return fmt.Sprintf("(&(objectClass=user)(userAccountControl:%s:=%d)%s%s)",
		OIDBitAnd, UACNormalAccount, filterDisabled, filterExpires)
}

// UserByAccountNameFilter matches one user record by its sAMAccountName
// key. The name is escaped, never interpolated raw.
func UserByAccountNameFilter(username string) string {
	return fmt.Sprintf("(&(objectClass=user)(sAMAccountName=%s))", ldap.EscapeFilter(username))
}

// GroupByAccountNameFilter matches one group record by its sAMAccountName
// key.
func GroupByAccountNameFilter(groupname string) string {
	return fmt.Sprintf("(&(objectClass=group)(sAMAccountName=%s))", ldap.EscapeFilter(groupname))
}
