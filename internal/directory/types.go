package directory

import (
	"context"
)

// Credential is a username/password pair recovered from a bearer token.
// It exists only transiently in memory and, encrypted, inside tokens; it
// must never be logged or included in any response.
type Credential struct {
	Username string
	Password string
}

// Connector establishes authenticated directory sessions. Connecting with
// a bad credential fails with ErrAuthentication.
type Connector interface {
	Connect(ctx context.Context, cred Credential) (Session, error)
}

// Session is a live, credential-bound connection to the directory, valid
// for the lifetime of a single logical operation. It is owned exclusively
// by the Client that created it and is never shared across requests.
type Session interface {
	// Transaction framing. Exactly one of Commit/Cancel follows every
	// Begin; WithTransaction enforces the discipline.
	Begin() error
	Commit() error
	Cancel() error

	// Search returns raw records matching the filter under base.
	Search(ctx context.Context, req *SearchRequest) ([]RawRecord, error)

	// Write applies a single mutation.
	Write(ctx context.Context, m *Mutation) error

	// DomainBase returns the defaultNamingContext of the connected domain.
	DomainBase() string

	Close() error
}

// SearchScope defines the search scope.
type SearchScope int

const (
	ScopeBaseObject SearchScope = iota
	ScopeSingleLevel
	ScopeWholeSubtree
)

// SearchRequest encapsulates directory search parameters.
type SearchRequest struct {
	Base       string
	Scope      SearchScope
	Filter     string
	Attributes []string
	SizeLimit  int
}

// RawRecord is a directory record as returned by the collaborator:
// attribute name to one-or-many untyped values. Shape varies by backend;
// NormalizeEntry converts it into the canonical Entry form.
type RawRecord struct {
	DN         string
	Attributes map[string][][]byte
}

// MutationKind discriminates the write operations a Session supports.
type MutationKind int

const (
	MutationAdd MutationKind = iota
	MutationModify
	MutationModifyDN
	MutationDelete
)

// String returns the wire-operation name of the mutation kind.
func (k MutationKind) String() string {
	switch k {
	case MutationAdd:
		return "add"
	case MutationModify:
		return "modify"
	case MutationModifyDN:
		return "modify_dn"
	case MutationDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Mutation is a single directory write. Only the fields relevant to its
// Kind are consulted.
type Mutation struct {
	Kind MutationKind
	DN   string

	// MutationAdd: full attribute set of the new record.
	Attributes map[string][]string

	// MutationModify. Delete with an empty value list removes the whole
	// attribute; with values, only those values.
	AddAttributes     map[string][]string
	ReplaceAttributes map[string][]string
	DeleteAttributes  map[string][]string

	// MutationModifyDN.
	NewRDN       string
	NewSuperior  string
	DeleteOldRDN bool
}
