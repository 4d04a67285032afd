package game

import (
	"errors"
	"fmt"
)

type ErrorCode int8

const (
	CodeNone ErrorCode = iota
	CodePhaseMismatch
	CodeAlreadyCommitted
	CodeInvalidTarget
	CodeInsufficientEnergy
	CodeMandatoryActionPending
	CodeNotEligible
	CodeInvalidPayload
	CodeStaleOrOutOfOrder
	CodeTransportFailure
)

func (c ErrorCode) String() string {
	switch c {
	case CodePhaseMismatch:
		return "PhaseMismatch"
	case CodeAlreadyCommitted:
		return "AlreadyCommitted"
	case CodeInvalidTarget:
		return "InvalidTarget"
	case CodeInsufficientEnergy:
		return "InsufficientResource"
	case CodeMandatoryActionPending:
		return "MandatoryActionPending"
	case CodeNotEligible:
		return "NotEligible"
	case CodeInvalidPayload:
		return "InvalidPayload"
	case CodeStaleOrOutOfOrder:
		return "StaleOrOutOfOrder"
	case CodeTransportFailure:
		return "TransportFailure"
	}
	return "unknown"
}

// RuleError is the synchronous rejection value returned by QueueAction and
// SubmitCommitment. Illegal player input is expected traffic, never a panic.
type RuleError struct {
	Code   ErrorCode
	Reason string
}

func (e *RuleError) Error() string {
	if e.Reason == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Reason)
}

// Is matches any RuleError with the same code, so callers can test against
// the exported sentinels with errors.Is.
func (e *RuleError) Is(target error) bool {
	t, ok := target.(*RuleError)
	return ok && t.Code == e.Code
}

var (
	ErrPhaseMismatch          = &RuleError{Code: CodePhaseMismatch}
	ErrAlreadyCommitted       = &RuleError{Code: CodeAlreadyCommitted}
	ErrInvalidTarget          = &RuleError{Code: CodeInvalidTarget}
	ErrInsufficientEnergy     = &RuleError{Code: CodeInsufficientEnergy}
	ErrMandatoryActionPending = &RuleError{Code: CodeMandatoryActionPending}
	ErrNotEligible            = &RuleError{Code: CodeNotEligible}
	ErrInvalidPayload         = &RuleError{Code: CodeInvalidPayload}
	ErrStaleOrOutOfOrder      = &RuleError{Code: CodeStaleOrOutOfOrder}
	ErrTransportFailure       = &RuleError{Code: CodeTransportFailure}
)

func ruleErr(code ErrorCode, format string, args ...any) error {
	return &RuleError{Code: code, Reason: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the rule code from err, or CodeNone for non-rule errors.
func CodeOf(err error) ErrorCode {
	var re *RuleError
	if errors.As(err, &re) {
		return re.Code
	}
	return CodeNone
}
