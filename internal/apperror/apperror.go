package apperror

import "errors"

type Code string

const (
	Fetch           Code = "FETCH"
	MalformedRow    Code = "MALFORMED_ROW"
	InvalidDate     Code = "INVALID_DATE"
	InvalidNumber   Code = "INVALID_NUMBER"
	IO              Code = "IO"
	InvalidArgument Code = "INVALID_ARGUMENT"
	EmptyResult     Code = "EMPTY_RESULT"
)

type AppError struct {
	code    Code
	message string
	cause   error
}

func New(code Code, message string) *AppError {
	return &AppError{code: code, message: message}
}

// Wrap returns an AppError that carries err as its cause.
func Wrap(code Code, message string, err error) *AppError {
	return &AppError{code: code, message: message, cause: err}
}

func (e *AppError) Error() string {
	if e.cause == nil {
		return e.message
	}
	if e.message == "" {
		return e.cause.Error()
	}
	return e.message + ": " + e.cause.Error()
}

func (e *AppError) Code() Code      { return e.code }
func (e *AppError) Message() string { return e.message }
func (e *AppError) Unwrap() error   { return e.cause }

// Is reports whether target is an AppError with the same code.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.code == e.code
}

// CodeOf returns the code of the outermost AppError in err's chain, or ""
// when there is none.
func CodeOf(err error) Code {
	var e *AppError
	if errors.As(err, &e) {
		return e.code
	}
	return ""
}

// IsCode reports whether any AppError in err's chain has the given code.
func IsCode(err error, code Code) bool {
	return errors.Is(err, &AppError{code: code})
}
