package practicum

import (
	"fmt"
	"net/url"
	"strconv"
)

// RequestInfo describes the outgoing status request for diagnostics.
// The auth header is stored redacted: error texts end up in chat messages.
type RequestInfo struct {
	URL      string
	FromDate int64
	Auth     string
}

func (r RequestInfo) String() string {
	q := url.Values{}
	q.Set(fromDateParam, strconv.FormatInt(r.FromDate, 10))
	return fmt.Sprintf("url=%s params=%s auth=%q", r.URL, q.Encode(), r.Auth)
}

// RequestError reports a transport-level failure (dial, DNS, timeout, TLS).
type RequestError struct {
	Request RequestInfo
	Err     error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("status API request failed: %v (%s)", e.Err, e.Request)
}

func (e *RequestError) Unwrap() error { return e.Err }

// DenialError reports a payload carrying an "error" or "code" field.
type DenialError struct {
	Field   string
	Value   any
	Request RequestInfo
}

func (e *DenialError) Error() string {
	return fmt.Sprintf("status API denied the request: %s=%v (%s)", e.Field, e.Value, e.Request)
}

// StatusCodeError reports a transported response whose HTTP status is not 200.
type StatusCodeError struct {
	Code    int
	Request RequestInfo
}

func (e *StatusCodeError) Error() string {
	return fmt.Sprintf("status API returned HTTP %d (%s)", e.Code, e.Request)
}

// DecodeError reports a 200 response whose body is not JSON.
type DecodeError struct {
	Request RequestInfo
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("status API response is not valid JSON: %v (%s)", e.Err, e.Request)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ShapeKind classifies a malformed payload.
type ShapeKind int

const (
	NotAMapping ShapeKind = iota + 1
	MissingKey
	NotAList
)

func (k ShapeKind) String() string {
	switch k {
	case NotAMapping:
		return "not a mapping"
	case MissingKey:
		return "missing key"
	case NotAList:
		return "not a list"
	default:
		return "unknown shape error"
	}
}

type ShapeError struct {
	Kind ShapeKind
	// Key is the offending key for MissingKey/NotAList.
	Key string
	// Got is the JSON type actually found.
	Got string
}

func (e *ShapeError) Error() string {
	switch e.Kind {
	case NotAMapping:
		return fmt.Sprintf("response is not a mapping: got %s", e.Got)
	case MissingKey:
		return fmt.Sprintf("response has no %q key", e.Key)
	case NotAList:
		return fmt.Sprintf("response key %q is not a list: got %s", e.Key, e.Got)
	default:
		return e.Kind.String()
	}
}

type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("work item has no %q field", e.Field)
}

type UnknownStatusError struct {
	Code string
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("status %q is not in the status catalog", e.Code)
}
