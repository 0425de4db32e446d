// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Request / business errors. These are terminal for the request.
const (
	ErrCodeUnauthorized         ErrorCode = "UNAUTHORIZED"
	ErrCodeNotFound             ErrorCode = "NOT_FOUND"
	ErrCodeValidationFailed     ErrorCode = "VALIDATION_FAILED"
	ErrCodeTokenNotFound        ErrorCode = "TOKEN_NOT_FOUND"
	ErrCodeTokenAlreadyUsed     ErrorCode = "TOKEN_ALREADY_USED"
	ErrCodeTokenExpired         ErrorCode = "TOKEN_EXPIRED"
	ErrCodePreconditionFailed   ErrorCode = "PRECONDITION_FAILED"
	ErrCodeDuplicateApplication ErrorCode = "DUPLICATE_APPLICATION"
	ErrCodeUpstreamDelivery     ErrorCode = "UPSTREAM_DELIVERY_FAILURE"
)

// Technical errors.
const (
	ErrCodeVersionConflict          ErrorCode = "VERSION_CONFLICT"
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeDatabaseQueryFailed      ErrorCode = "DATABASE_QUERY_FAILED"
	ErrCodeDatabaseWriteFailed      ErrorCode = "DATABASE_WRITE_FAILED"
	ErrCodeExternalService          ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout                  ErrorCode = "TIMEOUT_ERROR"
	ErrCodeInternal                 ErrorCode = "INTERNAL_ERROR"
)

// FieldError identifies a single offending input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Fields    []FieldError           `json:"fields,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Cause     error                  `json:"-"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.Cause
}

// Is matches any StandardError carrying the same code, so sentinel values
// declared with New can be compared with errors.Is through wrapping.
func (e *StandardError) Is(target error) bool {
	var t *StandardError
	if !stderrors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithMetadata returns a copy of e with key set in its metadata.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	cp := *e
	cp.Metadata = make(map[string]interface{}, len(e.Metadata)+1)
	for k, v := range e.Metadata {
		cp.Metadata[k] = v
	}
	cp.Metadata[key] = value
	return &cp
}

// New creates a bare error for use as a sentinel.
func New(code ErrorCode, message string) *StandardError {
	return &StandardError{Code: code, Message: message}
}

// CodeOf returns the code of the first StandardError in err's chain,
// or ErrCodeInternal when there is none.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// ==========================
// 2. BPMN Error Integration
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
// 3. Error Constructors
// ==========================

func NewUnauthorizedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnauthorized,
		Message:   "Authentication required",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotFoundError is also returned on ownership mismatch so that non-owners
// cannot tell whether an application exists.
func NewNotFoundError(resource, id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotFound,
		Message:   fmt.Sprintf("%s not found", resource),
		Details:   fmt.Sprintf("id: %s", id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationError creates a non-retryable error listing the offending fields.
func NewValidationError(message string, fields ...FieldError) *StandardError {
	details := make([]string, 0, len(fields))
	for _, f := range fields {
		details = append(details, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   message,
		Details:   strings.Join(details, "; "),
		Retryable: false,
		Fields:    fields,
		Timestamp: time.Now().UTC(),
	}
}

// NewFieldError is shorthand for a validation error on one field.
func NewFieldError(field, message string) *StandardError {
	return NewValidationError(message, FieldError{Field: field, Message: message, Code: "INVALID_FIELD"})
}

func NewPreconditionFailedError(message string) *StandardError {
	return &StandardError{
		Code:      ErrCodePreconditionFailed,
		Message:   message,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewDuplicateApplicationError(applicationID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDuplicateApplication,
		Message:   "Application already exists",
		Details:   fmt.Sprintf("applicationId: %s", applicationID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUpstreamDeliveryError describes a failed notification. It is recorded on
// the operation result and never returned as a request failure.
func NewUpstreamDeliveryError(channel, recipient string, err error) *StandardError {
	details := fmt.Sprintf("channel: %s, to: %s", channel, recipient)
	if err != nil {
		details = fmt.Sprintf("%s, error: %s", details, err.Error())
	}
	return &StandardError{
		Code:      ErrCodeUpstreamDelivery,
		Message:   "Notification delivery failed",
		Details:   details,
		Retryable: false,
		Cause:     err,
		Timestamp: time.Now().UTC(),
	}
}

func NewVersionConflictError(applicationID string, version int64) *StandardError {
	return &StandardError{
		Code:      ErrCodeVersionConflict,
		Message:   "Application was modified concurrently",
		Details:   fmt.Sprintf("applicationId: %s, expectedVersion: %d", applicationID, version),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Cause:     err,
		Timestamp: time.Now().UTC(),
	}
}

func NewDatabaseQueryFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseQueryFailed,
		Message:   "Database query failed",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Cause:     err,
		Timestamp: time.Now().UTC(),
	}
}

func NewDatabaseWriteFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseWriteFailed,
		Message:   "Database write failed",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Cause:     err,
		Timestamp: time.Now().UTC(),
	}
}

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExternalService,
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Cause:     err,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTimeout,
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Cause:     err,
		Timestamp: time.Now().UTC(),
	}
}

func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Cause:     err,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. BPMN Mapping
// ==========================

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeUnauthorized:         "UNAUTHORIZED",
	ErrCodeNotFound:             "NOT_FOUND",
	ErrCodeValidationFailed:     "VALIDATION_FAILED",
	ErrCodeTokenNotFound:        "TOKEN_NOT_FOUND",
	ErrCodeTokenAlreadyUsed:     "TOKEN_ALREADY_USED",
	ErrCodeTokenExpired:         "TOKEN_EXPIRED",
	ErrCodePreconditionFailed:   "PRECONDITION_FAILED",
	ErrCodeDuplicateApplication: "DUPLICATE_APPLICATION",
	ErrCodeVersionConflict:      "VERSION_CONFLICT",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeDatabaseQueryFailed,
		ErrCodeDatabaseWriteFailed,
		ErrCodeExternalService,
		ErrCodeVersionConflict:
		return 3

	case ErrCodeTimeout:
		return 2

	default:
		return 0 // Business errors: no retry
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	if len(stdErr.Fields) > 0 {
		vars["fieldErrors"] = stdErr.Fields
	}
	if reason, ok := stdErr.Metadata["reason"]; ok {
		vars["reason"] = reason
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case code == ErrCodeUnauthorized || code == ErrCodeNotFound:
		return "ACCESS"
	case strings.HasPrefix(codeStr, "TOKEN"):
		return "TOKEN"
	case strings.Contains(codeStr, "DATABASE") || code == ErrCodeVersionConflict:
		return "DATABASE"
	case code == ErrCodeUpstreamDelivery:
		return "NOTIFICATION"
	case strings.Contains(codeStr, "VALIDATION") || code == ErrCodePreconditionFailed || code == ErrCodeDuplicateApplication:
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
