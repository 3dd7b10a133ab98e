// Package apierrors implements the typed error taxonomy from spec §4.12/§7:
// VectorStoreError, EmbeddingError, SearchError, LLMError, SessionError,
// ValidationError, ConfigurationError, all sharing a LegalAIError base.
package apierrors

import "fmt"

// Code identifies the taxonomy member independent of the Go type, so a
// serialized {"error":{"code",...}} body round-trips without reflection.
type Code string

const (
	CodeVectorStore    Code = "VECTOR_STORE_ERROR"
	CodeEmbedding      Code = "EMBEDDING_ERROR"
	CodeSearch         Code = "SEARCH_ERROR"
	CodeLLM            Code = "LLM_ERROR"
	CodeSession        Code = "SESSION_ERROR"
	CodeValidation     Code = "VALIDATION_ERROR"
	CodeConfiguration  Code = "CONFIGURATION_ERROR"
	CodeInternal       Code = "INTERNAL_ERROR"
)

// LegalAIError is the base of the taxonomy. Code/Message/Details serialize
// directly into the {"error": {...}} HTTP body (spec §4.12).
type LegalAIError struct {
	Code    Code
	Message string
	Details map[string]interface{}
	Cause   error
}

func (e *LegalAIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LegalAIError) Unwrap() error { return e.Cause }

// HTTPStatus maps taxonomy members to the status codes in spec §4.12/§7:
// 400 for taxonomy errors, 500 for the uncaught/internal case.
func (e *LegalAIError) HTTPStatus() int {
	if e.Code == CodeInternal {
		return 500
	}
	return 400
}

func newErr(code Code, message string, cause error) *LegalAIError {
	return &LegalAIError{Code: code, Message: message, Cause: cause}
}

func VectorStore(message string, cause error) *LegalAIError   { return newErr(CodeVectorStore, message, cause) }
func Embedding(message string, cause error) *LegalAIError     { return newErr(CodeEmbedding, message, cause) }
func Search(message string, cause error) *LegalAIError        { return newErr(CodeSearch, message, cause) }
func LLM(message string, cause error) *LegalAIError            { return newErr(CodeLLM, message, cause) }
func Session(message string, cause error) *LegalAIError        { return newErr(CodeSession, message, cause) }
func Validation(message string, details map[string]interface{}) *LegalAIError {
	e := newErr(CodeValidation, message, nil)
	e.Details = details
	return e
}
func Configuration(message string) *LegalAIError { return newErr(CodeConfiguration, message, nil) }
func Internal(message string, cause error) *LegalAIError { return newErr(CodeInternal, message, cause) }

// Transient classifies errors eligible for the adapter-boundary retry
// policy in spec §4.3/§7 (initial 1s, factor 2, up to 3 attempts).
// Non-transient failures (bad credentials, unknown model, validation) fail
// fast and are never retried.
type Transient struct {
	Err error
}

func (t *Transient) Error() string { return t.Err.Error() }
func (t *Transient) Unwrap() error { return t.Err }

func MarkTransient(err error) error {
	if err == nil {
		return nil
	}
	return &Transient{Err: err}
}

func IsTransient(err error) bool {
	_, ok := err.(*Transient)
	return ok
}

// Body is the wire shape of a taxonomy error: {"error": {"code","message","details"}}.
type Body struct {
	Error struct {
		Code    Code                   `json:"code"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details,omitempty"`
	} `json:"error"`
}

// ToBody renders any error as the spec's JSON error envelope, wrapping
// unrecognized errors as CodeInternal with a generic message (spec §7:
// "Uncaught: logged with full context, returned as HTTP 500 with a
// generic body").
func ToBody(err error) (Body, int) {
	var b Body
	var lae *LegalAIError
	if asLegalAIError(err, &lae) {
		b.Error.Code = lae.Code
		b.Error.Message = lae.Message
		b.Error.Details = lae.Details
		return b, lae.HTTPStatus()
	}
	b.Error.Code = CodeInternal
	b.Error.Message = "internal server error"
	return b, 500
}

func asLegalAIError(err error, target **LegalAIError) bool {
	for err != nil {
		if lae, ok := err.(*LegalAIError); ok {
			*target = lae
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
