package brew

import "errors"

// Response is the envelope every client-facing operation returns.
type Response[T any] struct {
	OK        bool   `json:"ok"`
	Data      *T     `json:"data"`
	ErrorCode *Code  `json:"errorCode"`
	Message   string `json:"message"`
}

// OK wraps a successful result.
func OK[T any](data T, msg string) Response[T] {
	return Response[T]{OK: true, Data: &data, Message: msg}
}

// Fail wraps err. Code and message come from a *brew.Error when err
// carries one.
func Fail[T any](err error) Response[T] {
	code := CodeOf(err)
	msg := err.Error()
	var be *Error
	if errors.As(err, &be) {
		msg = be.Message
	}
	return Response[T]{ErrorCode: &code, Message: msg}
}

// Respond builds a Response from a (value, error) pair.
func Respond[T any](data T, err error, msg string) Response[T] {
	if err != nil {
		return Fail[T](err)
	}
	return OK(data, msg)
}
