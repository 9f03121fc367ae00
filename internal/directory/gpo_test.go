package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestListGPOs(t *testing.T) {
	connector, sess := newMockSession(testBase)

	sess.On("Search", mock.Anything, mock.MatchedBy(func(req *SearchRequest) bool {
		return req.Base == "CN=Policies,CN=System,"+testBase &&
			req.Scope == ScopeSingleLevel &&
			req.Filter == "(objectClass=groupPolicyContainer)"
	})).Return([]RawRecord{
		{
			DN: "CN={31B2F340-016D-11D2-945F-00C04FB984F9},CN=Policies,CN=System," + testBase,
			Attributes: map[string][][]byte{
				"displayName": {[]byte("Default Domain Policy")},
				"name":        {[]byte("{31B2F340-016D-11D2-945F-00C04FB984F9}")},
				"flags":       {[]byte("0")},
			},
		},
		{
			DN: "CN={6AC1786C-016F-11D2-945F-00C04FB984F9},CN=Policies,CN=System," + testBase,
			Attributes: map[string][][]byte{
				"displayName": {[]byte("Default Domain Controllers Policy")},
				"name":        {[]byte("{6AC1786C-016F-11D2-945F-00C04FB984F9}")},
				"flags":       {[]byte("3")},
			},
		},
	}, nil)

	client := NewClient(connector, Credential{Username: "admin", Password: "pw"}, nil)
	entries, err := client.ListGPOs(context.Background())

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Default Domain Policy", entries[0]["displayName"])
	assert.Equal(t, "all settings enabled", entries[0]["status"])
	assert.Equal(t, "all settings disabled", entries[1]["status"])
}

func TestListGPOs_MissingFlagsMeansAllEnabled(t *testing.T) {
	connector, sess := newMockSession(testBase)
	sess.On("Search", mock.Anything, mock.Anything).Return([]RawRecord{{
		DN: "CN={11111111-2222-3333-4444-555555555555},CN=Policies,CN=System," + testBase,
		Attributes: map[string][][]byte{
			"displayName": {[]byte("Flagless Policy")},
		},
	}}, nil)

	client := NewClient(connector, Credential{Username: "admin", Password: "pw"}, nil)
	entries, err := client.ListGPOs(context.Background())

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "all settings enabled", entries[0]["status"])
}

func TestGPOStatus(t *testing.T) {
	tests := []struct {
		flags any
		want  string
	}{
		{"0", "all settings enabled"},
		{"1", "user configuration settings disabled"},
		{"2", "computer configuration settings disabled"},
		{"3", "all settings disabled"},
		{"7", "unknown"},
		{"junk", "unknown"},
		{nil, "all settings enabled"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, gpoStatus(tt.flags))
	}
}
