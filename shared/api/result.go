package api

import (
	"github.com/practix/practix/shared/errors"
)

// Result is the discriminated envelope of every API response.
type Result[T any] struct {
	Ok        bool        `json:"ok"`
	Value     T           `json:"value,omitempty"`
	ErrorKind errors.Kind `json:"error_kind,omitempty"`
	Message   string      `json:"message,omitempty"`
}

func Ok[T any](value T) Result[T] {
	return Result[T]{Ok: true, Value: value}
}

func Fail(kind errors.Kind, message string) Result[struct{}] {
	return Result[struct{}]{Ok: false, ErrorKind: kind, Message: message}
}

type IdResponse struct {
	Id string `json:"id"`
}

type CountResponse struct {
	Count int `json:"count"`
}
