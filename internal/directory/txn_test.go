package directory

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTransaction_Success(t *testing.T) {
	sess := &MockSession{}
	sess.On("Begin").Return(nil)
	sess.On("Commit").Return(nil)

	called := false
	err := WithTransaction(sess, func() error {
		called = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, 1, sess.BeginCalls)
	assert.Equal(t, 1, sess.CommitCalls)
	assert.Equal(t, 0, sess.CancelCalls)
	sess.AssertExpectations(t)
}

func TestWithTransaction_BodyError_Cancels(t *testing.T) {
	sess := &MockSession{}
	sess.On("Begin").Return(nil)
	sess.On("Cancel").Return(nil)

	bodyErr := errors.New("write rejected")
	err := WithTransaction(sess, func() error {
		return bodyErr
	})

	// The body's error comes back unchanged; the cancel is invisible.
	assert.Same(t, bodyErr, err)
	assert.Equal(t, 1, sess.BeginCalls)
	assert.Equal(t, 0, sess.CommitCalls)
	assert.Equal(t, 1, sess.CancelCalls)
}

func TestWithTransaction_BodyError_CancelFailureSwallowed(t *testing.T) {
	sess := &MockSession{}
	sess.On("Begin").Return(nil)
	sess.On("Cancel").Return(errors.New("cancel exploded"))

	bodyErr := errors.New("write rejected")
	err := WithTransaction(sess, func() error {
		return bodyErr
	})

	assert.Same(t, bodyErr, err)
	assert.Equal(t, 1, sess.CancelCalls)
}

func TestWithTransaction_BeginFailure(t *testing.T) {
	sess := &MockSession{}
	sess.On("Begin").Return(fmt.Errorf("transaction unavailable"))

	called := false
	err := WithTransaction(sess, func() error {
		called = true
		return nil
	})

	require.Error(t, err)
	assert.False(t, called)
	assert.Equal(t, 0, sess.CommitCalls)
	assert.Equal(t, 0, sess.CancelCalls)

	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "transaction_begin", opErr.Operation)
}

func TestWithTransaction_CommitFailure(t *testing.T) {
	sess := &MockSession{}
	sess.On("Begin").Return(nil)
	sess.On("Commit").Return(fmt.Errorf("commit refused"))

	err := WithTransaction(sess, func() error { return nil })

	require.Error(t, err)
	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "transaction_commit", opErr.Operation)
	assert.Equal(t, 0, sess.CancelCalls)
}
