package picker

import (
	"context"
	"fmt"
	"strings"
)

// Status is the photo library access permission.
type Status int

const (
	// NotDetermined means the user has not been asked yet.
	NotDetermined Status = iota
	// Denied means access was refused.
	Denied
	// Authorized means access was granted.
	Authorized
)

func (s Status) String() string {
	switch s {
	case NotDetermined:
		return "not_determined"
	case Denied:
		return "denied"
	case Authorized:
		return "authorized"
	default:
		return "unknown"
	}
}

// ParseStatus parses the names produced by Status.String.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "not_determined", "":
		return NotDetermined, nil
	case "denied":
		return Denied, nil
	case "authorized", "authorised":
		return Authorized, nil
	default:
		return NotDetermined, fmt.Errorf("unknown permission status: %s", s)
	}
}

// Authorizer resolves the photo library permission before the picker opens.
type Authorizer interface {
	// Authorize returns the current status, prompting if needed.
	Authorize(ctx context.Context) (Status, error)
}

// StaticAuthorizer always answers with the same status. It replaces an ambient
// permission lookup with an explicit input.
type StaticAuthorizer Status

// Authorize returns the fixed status. NotDetermined is treated as a granted
// prompt, since there is nobody to ask.
func (a StaticAuthorizer) Authorize(ctx context.Context) (Status, error) {
	if err := ctx.Err(); err != nil {
		return Denied, err
	}
	if Status(a) == NotDetermined {
		return Authorized, nil
	}
	return Status(a), nil
}
