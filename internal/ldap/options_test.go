package ldap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOptions_Defaults(t *testing.T) {
	opts, err := NewOptions()
	require.NoError(t, err)

	assert.True(t, opts.UseTLS)
	assert.Equal(t, 10*time.Second, opts.DialTimeout)
	assert.Equal(t, 30*time.Second, opts.RequestTimeout)
	assert.Equal(t, 1000, opts.SizeLimit)
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		domain  string
		wantErr bool
	}{
		{"url only", "ldaps://dc1.example.com:636", "", false},
		{"domain only", "", "example.com", false},
		{"neither", "", "", true},
		{"both", "ldap://dc1.example.com", "example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := &Options{URL: tt.url, Domain: tt.domain}
			err := opts.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestServerInfo_URL(t *testing.T) {
	plain := &serverInfo{Host: "dc1.example.com", Port: 389}
	assert.Equal(t, "ldap://dc1.example.com:389", plain.URL())

	secure := &serverInfo{Host: "dc1.example.com", Port: 636, UseTLS: true}
	assert.Equal(t, "ldaps://dc1.example.com:636", secure.URL())
}
