package authz

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthenticationRequired indicates no valid principal was presented.
	ErrAuthenticationRequired = errors.New("authz: authentication required")
	// ErrNotFound indicates a profile, team or permission lookup by id or
	// name matched nothing. Distinguished from a denial so broken links
	// can be debugged without being told "access denied".
	ErrNotFound = errors.New("authz: not found")
	// ErrDuplicateLink indicates an attempt to create a link row that
	// already exists, e.g. the same ProfilePermission pair twice.
	ErrDuplicateLink = errors.New("authz: link already exists")
)

// DeniedError is returned when a known principal lacks a required
// permission. It names only the missing permission, never unrelated
// grants.
type DeniedError struct {
	Permission string
	Action     string
}

func (e *DeniedError) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("authz: permission %q required to %s", e.Permission, e.Action)
	}
	return fmt.Sprintf("authz: permission %q required", e.Permission)
}

// IsDenied reports whether err is a permission denial.
func IsDenied(err error) bool {
	var de *DeniedError
	return errors.As(err, &de)
}
