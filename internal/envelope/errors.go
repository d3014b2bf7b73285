package envelope

import (
	"errors"
	"fmt"
)

// CodedError is a failure carrying the response code it should be reported with.
type CodedError struct {
	Code int
	Err  error
}

// NewError returns a CodedError with a plain message.
func NewError(code int, message string) *CodedError {
	return &CodedError{Code: code, Err: errors.New(message)}
}

// Errorf returns a CodedError with a formatted message.
func Errorf(code int, format string, args ...any) *CodedError {
	return &CodedError{Code: code, Err: fmt.Errorf(format, args...)}
}

// WithCode attaches code to err. A nil err stays nil.
func WithCode(err error, code int) error {
	if err == nil {
		return nil
	}
	return &CodedError{Code: code, Err: err}
}

func (e *CodedError) Error() string {
	return e.Err.Error()
}

func (e *CodedError) Unwrap() error {
	return e.Err
}

// CodeOf returns the code carried by err, or 500 when it carries none.
func CodeOf(err error) int {
	var coded *CodedError
	if errors.As(err, &coded) && coded.Code > 0 {
		return coded.Code
	}
	return CodeInternalServerError
}
