// Package errors provides the research error taxonomy and its mapping onto
// BPMN job failures.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Sentinel Errors
// ==========================

var (
	ErrNoCandidatesFound       = stderrors.New("NO_CANDIDATES_FOUND")
	ErrNoConfidentMatch        = stderrors.New("NO_CONFIDENT_MATCH")
	ErrMalformedIdentifier     = stderrors.New("MALFORMED_IDENTIFIER")
	ErrAllCredentialsExhausted = stderrors.New("ALL_CREDENTIALS_EXHAUSTED")
	ErrTransportExhausted      = stderrors.New("TRANSPORT_EXHAUSTED")
	ErrInvalidInput            = stderrors.New("INVALID_INPUT")
)

// BranchFailure is the cause of one aggregation branch ending without data.
// It is recorded on the research record and never returned to callers.
type BranchFailure struct {
	Branch string
	Cause  error
}

func (e *BranchFailure) Error() string {
	return fmt.Sprintf("branch %s failed: %v", e.Branch, e.Cause)
}

func (e *BranchFailure) Unwrap() error {
	return e.Cause
}

// IsNotFound reports whether err means no identity could be resolved. Both
// causes require the same remedy so callers see them as one outcome.
func IsNotFound(err error) bool {
	return stderrors.Is(err, ErrNoCandidatesFound) || stderrors.Is(err, ErrNoConfidentMatch)
}

// ==========================
// 2. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeNoCandidatesFound       ErrorCode = "NO_CANDIDATES_FOUND"
	ErrCodeNoConfidentMatch        ErrorCode = "NO_CONFIDENT_MATCH"
	ErrCodeMalformedIdentifier     ErrorCode = "MALFORMED_IDENTIFIER"
	ErrCodeAllCredentialsExhausted ErrorCode = "ALL_CREDENTIALS_EXHAUSTED"
	ErrCodeTransportExhausted      ErrorCode = "TRANSPORT_EXHAUSTED"
	ErrCodeInvalidInput            ErrorCode = "INVALID_INPUT"
	ErrCodeResearchTimeout         ErrorCode = "RESEARCH_TIMEOUT"
	ErrCodeCacheUnavailable        ErrorCode = "CACHE_UNAVAILABLE"
	ErrCodeInternal                ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// ==========================
// 3. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 4. Error Constructors
// ==========================

func newStandard(code ErrorCode, message string, retryable bool, cause error) *StandardError {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewInvalidInputError creates a non-retryable job input error.
func NewInvalidInputError(details string) *StandardError {
	err := newStandard(ErrCodeInvalidInput, "Invalid research input", false, ErrInvalidInput)
	err.Details = details
	return err
}

// NewTransportExhaustedError creates a retryable upstream transport error.
func NewTransportExhaustedError(err error) *StandardError {
	return newStandard(ErrCodeTransportExhausted, "Upstream provider unreachable after retries", true, err)
}

// NewAllCredentialsExhaustedError creates a retryable oracle rate-limit error.
func NewAllCredentialsExhaustedError(err error) *StandardError {
	return newStandard(ErrCodeAllCredentialsExhausted, "Every oracle credential is rate limited", true, err)
}

// NewMalformedIdentifierError creates a non-retryable identifier error.
func NewMalformedIdentifierError(err error) *StandardError {
	return newStandard(ErrCodeMalformedIdentifier, "Business identifier could not be translated", false, err)
}

// NewNotFoundError covers both no candidates and no confident match.
func NewNotFoundError(err error) *StandardError {
	code := ErrCodeNoCandidatesFound
	if stderrors.Is(err, ErrNoConfidentMatch) {
		code = ErrCodeNoConfidentMatch
	}
	return newStandard(code, "Business could not be resolved", false, err)
}

// NewResearchTimeoutError creates a retryable timeout error.
func NewResearchTimeoutError(err error) *StandardError {
	return newStandard(ErrCodeResearchTimeout, "Research exceeded its deadline", true, err)
}

func NewInternalError(err error) *StandardError {
	return newStandard(ErrCodeInternal, "Unexpected error", false, err)
}

// FromError classifies any error returned by the research service.
func FromError(err error) *StandardError {
	var stdErr *StandardError
	switch {
	case err == nil:
		return nil
	case stderrors.As(err, &stdErr):
		return stdErr
	case stderrors.Is(err, ErrInvalidInput):
		return NewInvalidInputError(err.Error())
	case IsNotFound(err):
		return NewNotFoundError(err)
	case stderrors.Is(err, ErrMalformedIdentifier):
		return NewMalformedIdentifierError(err)
	case stderrors.Is(err, ErrAllCredentialsExhausted):
		return NewAllCredentialsExhaustedError(err)
	case stderrors.Is(err, ErrTransportExhausted):
		return NewTransportExhaustedError(err)
	case stderrors.Is(err, context.DeadlineExceeded):
		return NewResearchTimeoutError(err)
	default:
		return NewInternalError(err)
	}
}

// ==========================
// 5. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to the error codes modelled on
// the BPMN boundary events.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeNoCandidatesFound:       "BUSINESS_NOT_FOUND",
	ErrCodeNoConfidentMatch:        "BUSINESS_NOT_FOUND",
	ErrCodeMalformedIdentifier:     "MALFORMED_IDENTIFIER",
	ErrCodeAllCredentialsExhausted: "ORACLE_RATE_LIMITED",
	ErrCodeTransportExhausted:      "PROVIDER_UNAVAILABLE",
	ErrCodeInvalidInput:            "INVALID_INPUT",
	ErrCodeResearchTimeout:         "RESEARCH_TIMEOUT",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeTransportExhausted, ErrCodeCacheUnavailable:
		return 3
	case ErrCodeAllCredentialsExhausted:
		return 2
	case ErrCodeResearchTimeout:
		return 1
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 6. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CANDIDATES") || strings.Contains(codeStr, "MATCH"):
		return "RESOLUTION"
	case strings.Contains(codeStr, "CREDENTIALS"):
		return "ORACLE"
	case strings.Contains(codeStr, "TRANSPORT") || strings.Contains(codeStr, "TIMEOUT"):
		return "PROVIDER"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "MALFORMED"):
		return "VALIDATION"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	default:
		return "OTHER"
	}
}
