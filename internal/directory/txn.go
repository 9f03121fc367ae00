package directory

// WithTransaction scopes a sequence of directory operations inside
// begin/commit/cancel. On body success the transaction is committed; on
// any body error it is cancelled before the original error surfaces,
// unchanged, to the caller. Exactly one of commit/cancel runs for every
// successful begin, so partial writes are never observably committed.
func WithTransaction(sess Session, body func() error) error {
	if err := sess.Begin(); err != nil {
		return WrapError("transaction_begin", err)
	}

	if err := body(); err != nil {
		// Cancel must complete before the body error surfaces. A cancel
		// failure cannot be allowed to mask the original error.
		_ = sess.Cancel()
		return err
	}

	if err := sess.Commit(); err != nil {
		return WrapError("transaction_commit", err)
	}
	return nil
}
