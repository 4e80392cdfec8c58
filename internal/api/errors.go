package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var errClosedFuture = errors.New("transport closed the response channel without a result")

// taxonomyError is implemented by every error produced by this package so
// that transport errors can be wrapped exactly once.
type taxonomyError interface {
	error
	taxonomy()
}

// ClientError wraps a failure reported by the transport.
type ClientError struct {
	Err error
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("client error: %v", e.Err)
}

func (e *ClientError) Unwrap() error { return e.Err }

// URLParseError indicates an endpoint or next-page URL could not be parsed.
type URLParseError struct {
	Input string
	Err   error
}

func (e *URLParseError) Error() string {
	if e.Input == "" {
		return fmt.Sprintf("failed to parse url: %v", e.Err)
	}
	return fmt.Sprintf("failed to parse url %q: %v", e.Input, e.Err)
}

func (e *URLParseError) Unwrap() error { return e.Err }

// UnsupportedURLBaseError is returned for a URL base the client cannot resolve.
type UnsupportedURLBaseError struct {
	Base URLBase
}

func (e *UnsupportedURLBaseError) Error() string {
	return fmt.Sprintf("unsupported url base: %s", e.Base)
}

// BodyError indicates that a request body could not be encoded.
type BodyError struct {
	Encoding string
	Err      error
}

func (e *BodyError) Error() string {
	return fmt.Sprintf("failed to encode %s body: %v", e.Encoding, e.Err)
}

func (e *BodyError) Unwrap() error { return e.Err }

// JSONError indicates a payload that is not valid JSON outside of response
// classification, e.g. a profile stored in the keychain.
type JSONError struct {
	Err error
}

func (e *JSONError) Error() string {
	return fmt.Sprintf("could not parse JSON: %v", e.Err)
}

func (e *JSONError) Unwrap() error { return e.Err }

// DataTypeError is returned when a successful response does not decode into
// the requested type.
type DataTypeError struct {
	TypeName string
	Err      error
}

func (e *DataTypeError) Error() string {
	return fmt.Sprintf("failed to parse response as %s: %v", e.TypeName, e.Err)
}

func (e *DataTypeError) Unwrap() error { return e.Err }

// MovedPermanentlyError is returned for 301 responses. Location is nil when
// the server did not send the header.
type MovedPermanentlyError struct {
	Location *string
}

func (e *MovedPermanentlyError) Error() string {
	if e.Location == nil {
		return "moved permanently"
	}
	return fmt.Sprintf("moved permanently to %s", *e.Location)
}

// ServiceError carries a response whose body is not JSON.
type ServiceError struct {
	Status int
	Data   []byte
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("service error (status %d): %s", e.Status, truncate(string(e.Data), 200))
}

// ServiceMessageError carries the string message of an error response.
type ServiceMessageError struct {
	Status  int
	Message string
}

func (e *ServiceMessageError) Error() string {
	return fmt.Sprintf("service error (status %d): %s", e.Status, e.Message)
}

// ServiceObjectError carries a structured message or error value.
type ServiceObjectError struct {
	Status int
	Object json.RawMessage
}

func (e *ServiceObjectError) Error() string {
	return fmt.Sprintf("service error (status %d): %s", e.Status, string(e.Object))
}

// Message returns the nested "message" string of the error object if present.
// Spotify nests errors as {"error": {"status": 401, "message": "..."}}.
func (e *ServiceObjectError) Message() string {
	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(e.Object, &nested); err != nil {
		return ""
	}
	return nested.Message
}

// UnrecognizedServiceError carries a JSON error response with neither a
// "message" nor an "error" field.
type UnrecognizedServiceError struct {
	Status int
	Object json.RawMessage
}

func (e *UnrecognizedServiceError) Error() string {
	return fmt.Sprintf("unrecognized service error (status %d): %s", e.Status, truncate(string(e.Object), 200))
}

func (*ClientError) taxonomy()              {}
func (*URLParseError) taxonomy()            {}
func (*UnsupportedURLBaseError) taxonomy()  {}
func (*BodyError) taxonomy()                {}
func (*JSONError) taxonomy()                {}
func (*DataTypeError) taxonomy()            {}
func (*MovedPermanentlyError) taxonomy()    {}
func (*ServiceError) taxonomy()             {}
func (*ServiceMessageError) taxonomy()      {}
func (*ServiceObjectError) taxonomy()       {}
func (*UnrecognizedServiceError) taxonomy() {}

// wrapClientError wraps a transport failure as a ClientError unless it already
// belongs to the taxonomy.
func wrapClientError(err error) error {
	if err == nil {
		return nil
	}
	var te taxonomyError
	if errors.As(err, &te) {
		return err
	}
	return &ClientError{Err: err}
}

// StatusCode returns the HTTP status carried by a service error.
func StatusCode(err error) (int, bool) {
	var (
		se  *ServiceError
		sme *ServiceMessageError
		soe *ServiceObjectError
		use *UnrecognizedServiceError
		mpe *MovedPermanentlyError
	)
	switch {
	case errors.As(err, &sme):
		return sme.Status, true
	case errors.As(err, &soe):
		return soe.Status, true
	case errors.As(err, &use):
		return use.Status, true
	case errors.As(err, &se):
		return se.Status, true
	case errors.As(err, &mpe):
		return http.StatusMovedPermanently, true
	}
	return 0, false
}

// IsServiceError reports whether err was produced by classifying a response.
func IsServiceError(err error) bool {
	_, ok := StatusCode(err)
	return ok
}

// IsNotFoundError reports whether err is a service error with status 404.
func IsNotFoundError(err error) bool {
	status, ok := StatusCode(err)
	return ok && status == http.StatusNotFound
}

// IsUnauthorizedError reports whether err is a service error with status 401.
func IsUnauthorizedError(err error) bool {
	status, ok := StatusCode(err)
	return ok && status == http.StatusUnauthorized
}

// ServiceMessage extracts the human readable message of a service error.
func ServiceMessage(err error) string {
	var sme *ServiceMessageError
	if errors.As(err, &sme) {
		return sme.Message
	}
	var soe *ServiceObjectError
	if errors.As(err, &soe) {
		if msg := soe.Message(); msg != "" {
			return msg
		}
		return string(soe.Object)
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
