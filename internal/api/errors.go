package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error is a non-2xx backend response. AttemptsRemaining is populated when
// the backend supplies it (phone verification lockout counter); nil means
// the backend did not report a counter.
type Error struct {
	StatusCode        int
	Code              string
	Message           string
	AttemptsRemaining *int
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("backend error %d: %s", e.StatusCode, e.Message)
}

// IsTransient reports whether the failure class is worth retrying: request
// timeout, rate limiting, or a server-side error. Explicit 4xx validation
// failures are never transient.
func (e *Error) IsTransient() bool {
	switch {
	case e.StatusCode == http.StatusRequestTimeout:
		return true
	case e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= 500:
		return true
	}
	return false
}

// IsUnauthorized reports whether err is a backend 401. A 401 is fatal to the
// current session and triggers a full local clear.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// AsError unwraps err into *Error when it originated from a backend response.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// errorBody covers the response shapes the backend uses for failures.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Detail            string `json:"detail"`
	Message           string `json:"message"`
	AttemptsRemaining *int   `json:"attempts_remaining"`
}

func parseError(statusCode int, body []byte) *Error {
	apiErr := &Error{
		StatusCode: statusCode,
		Message:    http.StatusText(statusCode),
	}

	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return apiErr
	}

	switch {
	case parsed.Error.Message != "":
		apiErr.Code = parsed.Error.Code
		apiErr.Message = parsed.Error.Message
	case parsed.Message != "":
		apiErr.Message = parsed.Message
	case parsed.Detail != "":
		apiErr.Message = parsed.Detail
	}
	apiErr.AttemptsRemaining = parsed.AttemptsRemaining

	return apiErr
}
