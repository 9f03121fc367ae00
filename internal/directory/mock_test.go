package directory

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockSession implements Session for testing, additionally counting
// transaction framing calls so tests can assert commit/cancel balance.
type MockSession struct {
	mock.Mock

	BeginCalls  int
	CommitCalls int
	CancelCalls int
}

func (m *MockSession) Begin() error {
	m.BeginCalls++
	args := m.Called()
	return args.Error(0)
}

func (m *MockSession) Commit() error {
	m.CommitCalls++
	args := m.Called()
	return args.Error(0)
}

func (m *MockSession) Cancel() error {
	m.CancelCalls++
	args := m.Called()
	return args.Error(0)
}

func (m *MockSession) Search(ctx context.Context, req *SearchRequest) ([]RawRecord, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	recs, ok := args.Get(0).([]RawRecord)
	if !ok {
		return nil, args.Error(1)
	}
	return recs, args.Error(1)
}

func (m *MockSession) Write(ctx context.Context, mut *Mutation) error {
	args := m.Called(ctx, mut)
	return args.Error(0)
}

func (m *MockSession) DomainBase() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockSession) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockConnector implements Connector for testing the client facade.
type MockConnector struct {
	mock.Mock
}

func (m *MockConnector) Connect(ctx context.Context, cred Credential) (Session, error) {
	args := m.Called(ctx, cred)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	sess, ok := args.Get(0).(Session)
	if !ok {
		return nil, args.Error(1)
	}
	return sess, args.Error(1)
}

// newMockSession wires a connector that always hands out sess and a
// session that accepts the standard framing calls.
func newMockSession(base string) (*MockConnector, *MockSession) {
	sess := &MockSession{}
	sess.On("Begin").Return(nil).Maybe()
	sess.On("Commit").Return(nil).Maybe()
	sess.On("Cancel").Return(nil).Maybe()
	sess.On("DomainBase").Return(base).Maybe()
	sess.On("Close").Return(nil).Maybe()

	connector := &MockConnector{}
	connector.On("Connect", mock.Anything, mock.Anything).Return(sess, nil).Maybe()

	return connector, sess
}
