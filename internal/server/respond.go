package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// FriendlyError is an error with a human-friendly message.
type FriendlyError struct {
	Err     error
	Message string
}

// Friendly returns a FriendlyError that wraps err with the provided message.
func Friendly(err error, format string, v ...any) error {
	return FriendlyError{
		Err:     err,
		Message: fmt.Sprintf(format, v...),
	}
}

func (err FriendlyError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	return err.Message
}

func (err FriendlyError) Unwrap() error {
	return err.Err
}

func (err FriendlyError) FriendlyError() string {
	return err.Message
}

// Error writes a JSON error response with the message in an "error" field:
//
//	Error(w, r, 404, errors.New("no preview"))
//	// {"error": "no preview"}
func Error(w http.ResponseWriter, r *http.Request, status int, err error) {
	var msg string
	if err != nil {
		msg = err.Error()
		if err, ok := err.(interface{ FriendlyError() string }); ok {
			msg = err.FriendlyError()
		}
	}

	if status != 0 {
		render.Status(r, status)
	}

	render.JSON(w, r, map[string]any{"error": msg})
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	if status != 0 {
		render.Status(r, status)
	}
	render.JSON(w, r, v)
}
