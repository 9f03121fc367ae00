package directory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// Sentinel errors for the conditions callers branch on. Everything else a
// directory operation can fail with is wrapped in an OperationError.
var (
	// ErrAuthentication reports a rejected credential at connect time.
	ErrAuthentication = errors.New("invalid username or password")

	// ErrDuplicateEntry reports a create whose account key already exists.
	ErrDuplicateEntry = errors.New("entry already exists")

	// ErrNotFound reports a lookup miss on an operation that requires the
	// entry to exist.
	ErrNotFound = errors.New("entry not found")
)

// ErrorCategory classifies directory operation failures.
type ErrorCategory string

const (
	ErrorCategoryConnection     ErrorCategory = "connection"
	ErrorCategoryAuthentication ErrorCategory = "authentication"
	ErrorCategoryPermission     ErrorCategory = "permission"
	ErrorCategoryNotFound       ErrorCategory = "not_found"
	ErrorCategoryConflict       ErrorCategory = "conflict"
	ErrorCategoryValidation     ErrorCategory = "validation"
	ErrorCategoryServer         ErrorCategory = "server"
	ErrorCategoryUnknown        ErrorCategory = "unknown"
)

// OperationError carries structured context for a failed directory
// operation: what was attempted, how the server classified the failure,
// and the underlying cause with its diagnostics preserved.
type OperationError struct {
	Operation string        // The operation that failed
	Category  ErrorCategory // Error category
	LDAPCode  uint16        // LDAP result code, 0 when not an LDAP failure
	Message   string        // Human-readable message
	ServerMsg string        // Server-provided diagnostic message
	DN        string        // DN involved in the operation, if applicable
	Cause     error         // Underlying error
}

func (e *OperationError) Error() string {
	var parts []string

	if e.LDAPCode > 0 {
		parts = append(parts, fmt.Sprintf("directory %s failed (code %d)", e.Operation, e.LDAPCode))
	} else {
		parts = append(parts, fmt.Sprintf("directory %s failed", e.Operation))
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.ServerMsg != "" && e.ServerMsg != e.Message {
		parts = append(parts, fmt.Sprintf("server: %s", e.ServerMsg))
	}
	if e.DN != "" {
		parts = append(parts, fmt.Sprintf("DN: %s", e.DN))
	}

	return strings.Join(parts, " - ")
}

func (e *OperationError) Unwrap() error {
	return e.Cause
}

// NewOperationError classifies err and attaches the operation name.
func NewOperationError(operation string, err error) *OperationError {
	if err == nil {
		return nil
	}

	opErr := &OperationError{
		Operation: operation,
		Cause:     err,
	}

	var ldapErr *ldap.Error
	if errors.As(err, &ldapErr) {
		opErr.LDAPCode = ldapErr.ResultCode
		if ldapErr.Err != nil {
			opErr.ServerMsg = ldapErr.Err.Error()
		}
		opErr.Category = categorizeCode(ldapErr.ResultCode)
		opErr.Message = ldap.LDAPResultCodeMap[ldapErr.ResultCode]
	} else {
		opErr.Category = categorizeGeneric(err)
		opErr.Message = err.Error()
	}

	return opErr
}

// WrapError wraps an error with operation context, leaving sentinel
// errors and already-wrapped errors untouched.
func WrapError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrAuthentication) || errors.Is(err, ErrDuplicateEntry) || errors.Is(err, ErrNotFound) {
		return err
	}
	var opErr *OperationError
	if errors.As(err, &opErr) {
		if opErr.Operation == "" {
			opErr.Operation = operation
		}
		return err
	}
	return NewOperationError(operation, err)
}

// categorizeCode maps an LDAP result code onto an error category.
func categorizeCode(code uint16) ErrorCategory {
	switch code {
	case ldap.LDAPResultInvalidCredentials,
		ldap.LDAPResultInappropriateAuthentication,
		ldap.LDAPResultStrongAuthRequired:
		return ErrorCategoryAuthentication

	case ldap.LDAPResultInsufficientAccessRights,
		ldap.LDAPResultUnwillingToPerform:
		return ErrorCategoryPermission

	case ldap.LDAPResultNoSuchObject,
		ldap.LDAPResultNoSuchAttribute,
		ldap.LDAPResultUndefinedAttributeType:
		return ErrorCategoryNotFound

	case ldap.LDAPResultEntryAlreadyExists,
		ldap.LDAPResultAttributeOrValueExists,
		ldap.LDAPResultObjectClassViolation,
		ldap.LDAPResultNotAllowedOnNonLeaf:
		return ErrorCategoryConflict

	case ldap.LDAPResultInvalidAttributeSyntax,
		ldap.LDAPResultConstraintViolation,
		ldap.LDAPResultInvalidDNSyntax,
		ldap.LDAPResultNamingViolation:
		return ErrorCategoryValidation

	case ldap.LDAPResultServerDown,
		ldap.LDAPResultUnavailable,
		ldap.LDAPResultBusy,
		ldap.LDAPResultTimeLimitExceeded,
		ldap.LDAPResultAdminLimitExceeded:
		return ErrorCategoryServer

	case ldap.LDAPResultConnectError,
		ldap.LDAPResultProtocolError:
		return ErrorCategoryConnection

	default:
		return ErrorCategoryUnknown
	}
}

// categorizeGeneric classifies non-LDAP errors by message.
func categorizeGeneric(err error) ErrorCategory {
	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "connection"),
		strings.Contains(errStr, "network"),
		strings.Contains(errStr, "timeout"),
		strings.Contains(errStr, "broken pipe"),
		strings.Contains(errStr, "connection reset"):
		return ErrorCategoryConnection
	case strings.Contains(errStr, "authentication"),
		strings.Contains(errStr, "credentials"),
		strings.Contains(errStr, "password"):
		return ErrorCategoryAuthentication
	case strings.Contains(errStr, "permission"),
		strings.Contains(errStr, "access"),
		strings.Contains(errStr, "denied"):
		return ErrorCategoryPermission
	default:
		return ErrorCategoryUnknown
	}
}

// GetErrorCategory returns the category of an error.
func GetErrorCategory(err error) ErrorCategory {
	if err == nil {
		return ErrorCategoryUnknown
	}

	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Category
	}

	var ldapErr *ldap.Error
	if errors.As(err, &ldapErr) {
		return categorizeCode(ldapErr.ResultCode)
	}

	return categorizeGeneric(err)
}

// IsNotFoundError checks if an error indicates a missing entry.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || GetErrorCategory(err) == ErrorCategoryNotFound
}

// IsConflictError checks if an error indicates a conflict (already exists).
func IsConflictError(err error) bool {
	return errors.Is(err, ErrDuplicateEntry) || GetErrorCategory(err) == ErrorCategoryConflict
}

// IsAuthenticationError checks if an error indicates a rejected credential.
func IsAuthenticationError(err error) bool {
	return errors.Is(err, ErrAuthentication) || GetErrorCategory(err) == ErrorCategoryAuthentication
}
