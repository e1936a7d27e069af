// Package kerrors defines the closed error taxonomy shared by every layer of
// kuiperdb, from the transactional KV façade up through the query executor.
package kerrors

import "errors"

// Kind identifies which of the taxonomy's closed set of failure modes an
// Error represents. Callers should match on Kind (via errors.Is against the
// sentinel values below, or Error.Kind for the parameterized ones) rather
// than on message text.
type Kind int

const (
	// KindTx wraps an underlying storage-engine failure, message preserved.
	KindTx Kind = iota
	// KindTxFailure means a transaction could not be started.
	KindTxFailure
	// KindTxFinished means an operation ran against an already-terminated transaction.
	KindTxFinished
	// KindTxReadonly means a mutating operation ran against a read-only transaction.
	KindTxReadonly
	// KindTxConditionNotMet means a conditional write's check value didn't match.
	KindTxConditionNotMet
	// KindTxKeyAlreadyExists means insert() targeted a key that already exists.
	KindTxKeyAlreadyExists
	// KindParse wraps a query-language parse failure, message preserved.
	KindParse
	// KindValue wraps a semantic/value-level failure (schema names, regex compile, etc).
	KindValue
)

func (k Kind) String() string {
	switch k {
	case KindTx:
		return "tx"
	case KindTxFailure:
		return "tx_failure"
	case KindTxFinished:
		return "tx_finished"
	case KindTxReadonly:
		return "tx_readonly"
	case KindTxConditionNotMet:
		return "tx_condition_not_met"
	case KindTxKeyAlreadyExists:
		return "tx_key_already_exists"
	case KindParse:
		return "parse"
	case KindValue:
		return "value"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by every public kuiperdb operation.
// Each Kind carries at most one explanatory string.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return e.Msg
}

// Is lets errors.Is match on Kind alone, e.g. errors.Is(err, ErrTxFinished).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinel values for the Kinds that carry no message of their own. Use
// errors.Is(err, kerrors.ErrTxFinished) to test for them.
var (
	ErrTxFailure          = &Error{Kind: KindTxFailure}
	ErrTxFinished         = &Error{Kind: KindTxFinished}
	ErrTxReadonly         = &Error{Kind: KindTxReadonly}
	ErrTxConditionNotMet  = &Error{Kind: KindTxConditionNotMet}
	ErrTxKeyAlreadyExists = &Error{Kind: KindTxKeyAlreadyExists}
)

// Tx wraps an underlying storage-engine error, preserving its message.
func Tx(msg string) *Error { return &Error{Kind: KindTx, Msg: msg} }

// Txf wraps an underlying storage-engine error with the error's own message.
func Txf(err error) *Error { return &Error{Kind: KindTx, Msg: err.Error()} }

// Parse produces a query-language parse error with position/context baked
// into msg by the caller.
func Parse(msg string) *Error { return &Error{Kind: KindParse, Msg: msg} }

// Value produces a semantic/value-level error.
func Value(msg string) *Error { return &Error{Kind: KindValue, Msg: msg} }

// Is reports whether err is a kuiperdb *Error of the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
