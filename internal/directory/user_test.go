package directory

import (
	"context"
	"encoding/binary"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testBase = "DC=example,DC=com"

func userRecord(username, dn string) []RawRecord {
	return []RawRecord{{
		DN: dn,
		Attributes: map[string][][]byte{
			"sAMAccountName":    {[]byte(username)},
			"distinguishedName": {[]byte(dn)},
		},
	}}
}

func TestCreateUser_DuplicateMakesNoWrites(t *testing.T) {
	connector, sess := newMockSession(testBase)
	sess.On("Search", mock.Anything, mock.Anything).
		Return(userRecord("john.doe", "CN=john.doe,CN=Users,"+testBase), nil)

	client := NewClient(connector, Credential{Username: "admin", Password: "pw"}, nil)
	err := client.CreateUser(context.Background(), &CreateUserRequest{
		Username: "john.doe",
		Password: "Sup3rSecret!",
	})

	require.ErrorIs(t, err, ErrDuplicateEntry)

	// Zero writes and zero transactions on the duplicate path.
	sess.AssertNotCalled(t, "Write", mock.Anything, mock.Anything)
	assert.Equal(t, 0, sess.BeginCalls)
}

func TestCreateUser_WritesRecordInsideTransaction(t *testing.T) {
	connector, sess := newMockSession(testBase)
	sess.On("Search", mock.Anything, mock.Anything).Return([]RawRecord{}, nil)

	var writes []*Mutation
	sess.On("Write", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			writes = append(writes, args.Get(1).(*Mutation))
		}).
		Return(nil)

	client := NewClient(connector, Credential{Username: "admin", Password: "pw"}, nil)
	err := client.CreateUser(context.Background(), &CreateUserRequest{
		Username:  "jane",
		Password:  "Sup3rSecret!",
		GivenName: "Jane",
		Mail:      "jane@example.com",
	})

	require.NoError(t, err)
	require.Len(t, writes, 1)

	add := writes[0]
	assert.Equal(t, MutationAdd, add.Kind)
	assert.Equal(t, "CN=jane,CN=Users,"+testBase, add.DN)
	assert.Equal(t, []string{"jane"}, add.Attributes["sAMAccountName"])
	assert.Equal(t, []string{"top", "person", "organizationalPerson", "user"}, add.Attributes["objectClass"])
	assert.Equal(t, []string{"512"}, add.Attributes["userAccountControl"])
	assert.Equal(t, []string{string(EncodePassword("Sup3rSecret!"))}, add.Attributes["unicodePwd"])
	assert.Equal(t, []string{"jane@example.com"}, add.Attributes["mail"])

	assert.Equal(t, 1, sess.BeginCalls)
	assert.Equal(t, 1, sess.CommitCalls)
	assert.Equal(t, 0, sess.CancelCalls)
}

func TestCreateUser_ForcePasswordChangeInSameTransaction(t *testing.T) {
	connector, sess := newMockSession(testBase)
	sess.On("Search", mock.Anything, mock.Anything).Return([]RawRecord{}, nil)

	var writes []*Mutation
	sess.On("Write", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			writes = append(writes, args.Get(1).(*Mutation))
		}).
		Return(nil)

	pwdLastSet := int64(0)
	client := NewClient(connector, Credential{Username: "admin", Password: "pw"}, nil)
	err := client.CreateUser(context.Background(), &CreateUserRequest{
		Username:   "jane",
		Password:   "Sup3rSecret!",
		PwdLastSet: &pwdLastSet,
	})

	require.NoError(t, err)
	require.Len(t, writes, 2)
	assert.Equal(t, MutationAdd, writes[0].Kind)
	assert.Equal(t, MutationModify, writes[1].Kind)
	assert.Equal(t, []string{"0"}, writes[1].ReplaceAttributes["pwdLastSet"])

	// Both writes share one transaction.
	assert.Equal(t, 1, sess.BeginCalls)
	assert.Equal(t, 1, sess.CommitCalls)
}

func TestCreateUser_AccountExpiryWrittenAfterCommit(t *testing.T) {
	connector, sess := newMockSession(testBase)
	sess.On("Search", mock.Anything, mock.Anything).Return([]RawRecord{}, nil)

	var writes []*Mutation
	var commitsAtWrite []int
	sess.On("Write", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			writes = append(writes, args.Get(1).(*Mutation))
			commitsAtWrite = append(commitsAtWrite, sess.CommitCalls)
		}).
		Return(nil)

	expires := int64(3600)
	client := NewClient(connector, Credential{Username: "admin", Password: "pw"}, nil)
	err := client.CreateUser(context.Background(), &CreateUserRequest{
		Username:       "jane",
		Password:       "Sup3rSecret!",
		AccountExpires: &expires,
	})

	require.NoError(t, err)
	require.Len(t, writes, 2)

	// The expiry write runs in its own transaction, after the creating one
	// has committed.
	assert.Equal(t, 0, commitsAtWrite[0])
	assert.Equal(t, 1, commitsAtWrite[1])
	assert.Equal(t, MutationModify, writes[1].Kind)
	assert.Contains(t, writes[1].ReplaceAttributes, "accountExpires")
	assert.Equal(t, 2, sess.BeginCalls)
	assert.Equal(t, 2, sess.CommitCalls)
}

func TestCreateUser_MissingRequiredFields(t *testing.T) {
	connector, _ := newMockSession(testBase)
	client := NewClient(connector, Credential{Username: "admin", Password: "pw"}, nil)

	err := client.CreateUser(context.Background(), &CreateUserRequest{Username: "jane"})
	require.Error(t, err)

	err = client.CreateUser(context.Background(), &CreateUserRequest{Password: "pw"})
	require.Error(t, err)
}

func TestGetUserByUsername_MissIsNotAnError(t *testing.T) {
	connector, sess := newMockSession(testBase)
	sess.On("Search", mock.Anything, mock.Anything).Return([]RawRecord{}, nil)

	client := NewClient(connector, Credential{Username: "admin", Password: "pw"}, nil)
	entry, err := client.GetUserByUsername(context.Background(), "ghost")

	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestGetUserByUsername_Found(t *testing.T) {
	connector, sess := newMockSession(testBase)
	dn := "CN=john.doe,CN=Users," + testBase
	sess.On("Search", mock.Anything, mock.MatchedBy(func(req *SearchRequest) bool {
		return req.Filter == "(&(objectClass=user)(sAMAccountName=john.doe))" &&
			req.SizeLimit == 1
	})).Return(userRecord("john.doe", dn), nil)

	client := NewClient(connector, Credential{Username: "admin", Password: "pw"}, nil)
	entry, err := client.GetUserByUsername(context.Background(), "john.doe")

	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "john.doe", entry["sAMAccountName"])
	assert.Equal(t, dn, entry["dn"])
}

func TestUpdateUser_NotFound(t *testing.T) {
	connector, sess := newMockSession(testBase)
	sess.On("Search", mock.Anything, mock.Anything).Return([]RawRecord{}, nil)

	mail := "new@example.com"
	client := NewClient(connector, Credential{Username: "admin", Password: "pw"}, nil)
	err := client.UpdateUser(context.Background(), "ghost", &UpdateUserRequest{Mail: &mail})

	require.ErrorIs(t, err, ErrNotFound)
	sess.AssertNotCalled(t, "Write", mock.Anything, mock.Anything)
	assert.Equal(t, 1, sess.CancelCalls)
}

func TestUpdateUser_ReplacesOnlyProvidedFields(t *testing.T) {
	connector, sess := newMockSession(testBase)
	dn := "CN=jane,CN=Users," + testBase
	sess.On("Search", mock.Anything, mock.Anything).Return(userRecord("jane", dn), nil)

	var mut *Mutation
	sess.On("Write", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { mut = args.Get(1).(*Mutation) }).
		Return(nil)

	mail := "jane@new.example.com"
	phone := "+1-555-0199"
	client := NewClient(connector, Credential{Username: "admin", Password: "pw"}, nil)
	err := client.UpdateUser(context.Background(), "jane", &UpdateUserRequest{
		Mail:            &mail,
		TelephoneNumber: &phone,
	})

	require.NoError(t, err)
	require.NotNil(t, mut)
	assert.Equal(t, dn, mut.DN)
	assert.Equal(t, map[string][]string{
		"mail":            {mail},
		"telephoneNumber": {phone},
	}, mut.ReplaceAttributes)
}

func TestUpdateUser_NoFields(t *testing.T) {
	connector, _ := newMockSession(testBase)
	client := NewClient(connector, Credential{Username: "admin", Password: "pw"}, nil)

	err := client.UpdateUser(context.Background(), "jane", &UpdateUserRequest{})
	require.Error(t, err)
}

func TestUpdateUserPassword(t *testing.T) {
	connector, sess := newMockSession(testBase)
	dn := "CN=jane,CN=Users," + testBase
	sess.On("Search", mock.Anything, mock.Anything).Return(userRecord("jane", dn), nil)

	var mut *Mutation
	sess.On("Write", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { mut = args.Get(1).(*Mutation) }).
		Return(nil)

	client := NewClient(connector, Credential{Username: "admin", Password: "pw"}, nil)
	err := client.UpdateUserPassword(context.Background(), "jane", "N3wSecret!")

	require.NoError(t, err)
	require.NotNil(t, mut)
	assert.Equal(t, []string{string(EncodePassword("N3wSecret!"))}, mut.ReplaceAttributes["unicodePwd"])
}

func TestDeleteUser(t *testing.T) {
	connector, sess := newMockSession(testBase)
	dn := "CN=jane,CN=Users," + testBase
	sess.On("Search", mock.Anything, mock.Anything).Return(userRecord("jane", dn), nil)

	var mut *Mutation
	sess.On("Write", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { mut = args.Get(1).(*Mutation) }).
		Return(nil)

	client := NewClient(connector, Credential{Username: "admin", Password: "pw"}, nil)
	err := client.DeleteUser(context.Background(), "jane")

	require.NoError(t, err)
	require.NotNil(t, mut)
	assert.Equal(t, MutationDelete, mut.Kind)
	assert.Equal(t, dn, mut.DN)
}

func TestMoveOrgUnit(t *testing.T) {
	connector, sess := newMockSession(testBase)

	var mut *Mutation
	sess.On("Write", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { mut = args.Get(1).(*Mutation) }).
		Return(nil)

	client := NewClient(connector, Credential{Username: "admin", Password: "pw"}, nil)
	err := client.MoveOrgUnit(context.Background(),
		"CN=jane,CN=Users,"+testBase,
		"CN=jane,OU=Engineering,"+testBase)

	require.NoError(t, err)
	require.NotNil(t, mut)
	assert.Equal(t, MutationModifyDN, mut.Kind)
	assert.Equal(t, "CN=jane,CN=Users,"+testBase, mut.DN)
	assert.Equal(t, "CN=jane", mut.NewRDN)
	assert.Equal(t, "OU=Engineering,"+testBase, mut.NewSuperior)
	assert.True(t, mut.DeleteOldRDN)
}

func TestMoveOrgUnit_MultiAttributeRDN(t *testing.T) {
	connector, sess := newMockSession(testBase)

	var mut *Mutation
	sess.On("Write", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { mut = args.Get(1).(*Mutation) }).
		Return(nil)

	client := NewClient(connector, Credential{Username: "admin", Password: "pw"}, nil)
	err := client.MoveOrgUnit(context.Background(),
		"CN=jane,CN=Users,"+testBase,
		"CN=jane+OU=staff,OU=Engineering,"+testBase)

	require.NoError(t, err)
	require.NotNil(t, mut)
	assert.Equal(t, "CN=jane+OU=staff", mut.NewRDN)
	assert.Equal(t, "OU=Engineering,"+testBase, mut.NewSuperior)
}

func TestMoveOrgUnit_InvalidTarget(t *testing.T) {
	connector, sess := newMockSession(testBase)
	client := NewClient(connector, Credential{Username: "admin", Password: "pw"}, nil)

	err := client.MoveOrgUnit(context.Background(), "CN=jane,"+testBase, "DC=com")
	require.Error(t, err)
	sess.AssertNotCalled(t, "Write", mock.Anything, mock.Anything)
}

func TestEncodePassword(t *testing.T) {
	encoded := EncodePassword("pä55")

	// Quoted, then UTF-16LE.
	codes := utf16.Encode([]rune(`"pä55"`))
	want := make([]byte, 2*len(codes))
	for i, r := range codes {
		binary.LittleEndian.PutUint16(want[2*i:], r)
	}
	assert.Equal(t, want, encoded)

	// Spot-check the little-endian layout of the leading quote.
	assert.Equal(t, byte('"'), encoded[0])
	assert.Equal(t, byte(0), encoded[1])
}

func TestListUsers_UsesActiveFilter(t *testing.T) {
	connector, sess := newMockSession(testBase)
	sess.On("Search", mock.Anything, mock.MatchedBy(func(req *SearchRequest) bool {
		return req.Base == testBase &&
			req.Scope == ScopeWholeSubtree &&
			assert.ObjectsAreEqual(listUserAttributes, req.Attributes)
	})).Return(userRecord("john.doe", "CN=john.doe,CN=Users,"+testBase), nil)

	client := NewClient(connector, Credential{Username: "admin", Password: "pw"}, nil)
	entries, err := client.ListUsers(context.Background())

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "john.doe", entries[0]["sAMAccountName"])

	// Requested-but-absent attributes surface as nils.
	mail, ok := entries[0]["mail"]
	assert.True(t, ok)
	assert.Nil(t, mail)

	assert.Equal(t, 1, sess.BeginCalls)
	assert.Equal(t, 1, sess.CommitCalls)
}
