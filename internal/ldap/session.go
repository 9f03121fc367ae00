package ldap

import (
	"context"
	"fmt"

	"github.com/go-ldap/ldap/v3"

	"github.com/bzdvdn/samba-ad-api/internal/directory"
)

// session is a live bound connection implementing directory.Session.
//
// Active Directory exposes no wire-level transaction control over LDAP,
// so Begin/Commit/Cancel are framing state only: they enforce the
// one-transaction-at-a-time discipline and gate writes, while each
// mutation still takes effect at the server when its request completes.
// Rollback fidelity is bounded by what the server provides.
type session struct {
	conn      *ldap.Conn
	base      string
	sizeLimit int

	inTxn bool
}

func (s *session) Begin() error {
	if s.inTxn {
		return fmt.Errorf("transaction already in progress")
	}
	s.inTxn = true
	return nil
}

func (s *session) Commit() error {
	if !s.inTxn {
		return fmt.Errorf("no transaction in progress")
	}
	s.inTxn = false
	return nil
}

func (s *session) Cancel() error {
	if !s.inTxn {
		return fmt.Errorf("no transaction in progress")
	}
	s.inTxn = false
	return nil
}

func (s *session) DomainBase() string {
	return s.base
}

func (s *session) Close() error {
	return s.conn.Close()
}

// Search executes one LDAP search and converts the entries to raw
// records, preserving binary attribute values.
func (s *session) Search(ctx context.Context, req *directory.SearchRequest) ([]directory.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sizeLimit := req.SizeLimit
	if sizeLimit == 0 {
		sizeLimit = s.sizeLimit
	}

	res, err := s.conn.Search(ldap.NewSearchRequest(
		req.Base,
		mapScope(req.Scope),
		ldap.NeverDerefAliases,
		sizeLimit,
		0,     // time limit, server default
		false, // types only
		req.Filter,
		req.Attributes,
		nil,
	))
	if err != nil {
		// A size-limit overrun still carries the entries read so far.
		if !ldap.IsErrorWithCode(err, ldap.LDAPResultSizeLimitExceeded) || res == nil {
			return nil, err
		}
	}

	records := make([]directory.RawRecord, 0, len(res.Entries))
	for _, entry := range res.Entries {
		rec := directory.RawRecord{
			DN:         entry.DN,
			Attributes: make(map[string][][]byte, len(entry.Attributes)),
		}
		for _, attr := range entry.Attributes {
			rec.Attributes[attr.Name] = attr.ByteValues
		}
		records = append(records, rec)
	}
	return records, nil
}

// Write applies one mutation. Writes outside a transaction are rejected;
// the facade always frames them.
func (s *session) Write(ctx context.Context, m *directory.Mutation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.inTxn {
		return fmt.Errorf("%s of %s outside transaction", m.Kind, m.DN)
	}

	switch m.Kind {
	case directory.MutationAdd:
		req := ldap.NewAddRequest(m.DN, nil)
		for name, values := range m.Attributes {
			req.Attribute(name, values)
		}
		return s.conn.Add(req)

	case directory.MutationModify:
		req := ldap.NewModifyRequest(m.DN, nil)
		for name, values := range m.AddAttributes {
			req.Add(name, values)
		}
		for name, values := range m.ReplaceAttributes {
			req.Replace(name, values)
		}
		for name, values := range m.DeleteAttributes {
			req.Delete(name, values)
		}
		return s.conn.Modify(req)

	case directory.MutationModifyDN:
		return s.conn.ModifyDN(ldap.NewModifyDNRequest(m.DN, m.NewRDN, m.DeleteOldRDN, m.NewSuperior))

	case directory.MutationDelete:
		return s.conn.Del(ldap.NewDelRequest(m.DN, nil))

	default:
		return fmt.Errorf("unsupported mutation kind %d", m.Kind)
	}
}

// mapScope converts the backend-neutral scope to the LDAP wire value.
func mapScope(scope directory.SearchScope) int {
	switch scope {
	case directory.ScopeBaseObject:
		return ldap.ScopeBaseObject
	case directory.ScopeSingleLevel:
		return ldap.ScopeSingleLevel
	default:
		return ldap.ScopeWholeSubtree
	}
}
