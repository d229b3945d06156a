package authapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// Kind is the classification of a failed backend call
type Kind string

const (
	KindClient              Kind = "client error"
	KindInvalidInput        Kind = "invalid input"
	KindInvalidCredentials  Kind = "invalid credentials"
	KindForbidden           Kind = "insufficient permissions"
	KindNotFound            Kind = "service not found"
	KindInternal            Kind = "internal server error"
	KindUnclassified        Kind = "unclassified error"
	defaultInvalidInputText      = "invalid input"
)

// Sentinels for errors.Is checks against a classified *Error
var (
	ErrClient             = errors.New(string(KindClient))
	ErrInvalidInput       = errors.New(string(KindInvalidInput))
	ErrInvalidCredentials = errors.New(string(KindInvalidCredentials))
	ErrForbidden          = errors.New(string(KindForbidden))
	ErrNotFound           = errors.New(string(KindNotFound))
	ErrInternal           = errors.New(string(KindInternal))
	ErrUnclassified       = errors.New(string(KindUnclassified))
)

var kindSentinels = map[Kind]error{
	KindClient:             ErrClient,
	KindInvalidInput:       ErrInvalidInput,
	KindInvalidCredentials: ErrInvalidCredentials,
	KindForbidden:          ErrForbidden,
	KindNotFound:           ErrNotFound,
	KindInternal:           ErrInternal,
	KindUnclassified:       ErrUnclassified,
}

// Error is the single error shape every failed backend call is normalised to.
type Error struct {
	Kind    Kind
	Status  int    // 0 when no response reached the caller
	Message string // Human readable
	Err     error  // Underlying transport failure, if any
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels (e.g. errors.Is(err, authapi.ErrInvalidCredentials))
func (e *Error) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// KindOf returns the classification of err, or "" when err is not classified
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// NewInvalidInputError is used for requests rejected before they are sent
func NewInvalidInputError(message string) *Error {
	return &Error{Kind: KindInvalidInput, Message: message}
}

// NewClientError classifies a failure where no response reached the server
func NewClientError(err error) *Error {
	return &Error{Kind: KindClient, Message: err.Error(), Err: err}
}

// CheckResponse returns nil for a 2xx response and the classified *Error
// otherwise, reading at most 64KiB of the error body.
func CheckResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return classifyResponse(resp.StatusCode, statusText(resp), body)
}

// classifyResponse maps a non-2xx status (and optional body) onto an *Error
func classifyResponse(status int, statusText string, body []byte) *Error {
	switch status {
	case http.StatusBadRequest:
		message := defaultInvalidInputText
		var eb errorBody
		if len(body) > 0 && json.Unmarshal(body, &eb) == nil && strings.TrimSpace(eb.Message) != "" {
			message = eb.Message
		}
		return &Error{Kind: KindInvalidInput, Status: status, Message: message}
	case http.StatusUnauthorized:
		return &Error{Kind: KindInvalidCredentials, Status: status, Message: string(KindInvalidCredentials)}
	case http.StatusForbidden:
		return &Error{Kind: KindForbidden, Status: status, Message: string(KindForbidden)}
	case http.StatusNotFound:
		return &Error{Kind: KindNotFound, Status: status, Message: string(KindNotFound)}
	case http.StatusInternalServerError:
		return &Error{Kind: KindInternal, Status: status, Message: string(KindInternal)}
	}
	return unclassified(status, statusText)
}

// UnreadableResponse classifies a 2xx response whose body can't be used
func UnreadableResponse(resp *http.Response) *Error {
	return unclassified(resp.StatusCode, statusText(resp))
}

func unclassified(status int, statusText string) *Error {
	return &Error{
		Kind:    KindUnclassified,
		Status:  status,
		Message: fmt.Sprintf("error %d: %s", status, statusText),
	}
}

// statusText strips the numeric code from resp.Status ("418 I'm a teapot" -> "I'm a teapot")
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		return http.StatusText(resp.StatusCode)
	}
	return text
}
