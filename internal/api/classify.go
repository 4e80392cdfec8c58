package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"reflect"
)

// CheckResponse classifies a response. It returns nil for a successful
// response with a JSON body and one of the service errors otherwise:
//
//   - a body that is not JSON yields *ServiceError, whatever the status;
//   - 301 yields *MovedPermanentlyError;
//   - any other non-2xx status yields *ServiceMessageError when the body has a
//     string "message" (or, failing that, "error") field, *ServiceObjectError
//     when that field holds another JSON value and *UnrecognizedServiceError
//     when neither field exists.
func CheckResponse(resp *Response) error {
	if !json.Valid(resp.Body) {
		return &ServiceError{Status: resp.StatusCode, Data: resp.Body}
	}
	if isSuccess(resp.StatusCode) {
		return nil
	}
	if resp.StatusCode == http.StatusMovedPermanently {
		return movedPermanently(resp.Header)
	}
	return classifyErrorBody(resp.StatusCode, resp.Body)
}

func classifyErrorBody(status int, body []byte) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return &UnrecognizedServiceError{Status: status, Object: json.RawMessage(body)}
	}
	for _, key := range []string{"message", "error"} {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		raw = bytes.TrimSpace(raw)
		if len(raw) > 0 && raw[0] == '"' {
			var msg string
			if err := json.Unmarshal(raw, &msg); err == nil {
				return &ServiceMessageError{Status: status, Message: msg}
			}
		}
		return &ServiceObjectError{Status: status, Object: raw}
	}
	return &UnrecognizedServiceError{Status: status, Object: json.RawMessage(body)}
}

func movedPermanently(h http.Header) error {
	if values, ok := h[http.CanonicalHeaderKey("Location")]; ok && len(values) > 0 {
		location := values[0]
		return &MovedPermanentlyError{Location: &location}
	}
	return &MovedPermanentlyError{}
}

// checkStatus classifies only unsuccessful responses, so an empty or non-JSON
// 2xx body is accepted.
func checkStatus(resp *Response) error {
	if isSuccess(resp.StatusCode) {
		return nil
	}
	return CheckResponse(resp)
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// DecodeResponse unmarshals a classified response body into T.
func DecodeResponse[T any](body []byte) (T, error) {
	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		return out, &DataTypeError{TypeName: reflect.TypeFor[T]().String(), Err: err}
	}
	return out, nil
}
