package authz

import "errors"

var (
	// ErrUnauthenticated indicates no resolvable identity on the request.
	ErrUnauthenticated = errors.New("authz: unauthenticated")
	// ErrUserNotFound indicates the identity resolves to no stored user.
	ErrUserNotFound = errors.New("authz: user not found")
	// ErrInvalidInput indicates a malformed target or role id list.
	ErrInvalidInput = errors.New("authz: invalid input")
	// ErrSecurityViolation rejects assigning more than one privileged role.
	ErrSecurityViolation = errors.New("authz: cannot assign more than one privileged role")
	// ErrAssignmentViolation rejects assigning roles with mixed privilege levels.
	ErrAssignmentViolation = errors.New("authz: roles must share a privilege level")
	// ErrInternal indicates a data-store failure. The caller must fail closed.
	ErrInternal = errors.New("authz: internal error")
)

// PermissionDeniedError reports which permission the actor is missing.
type PermissionDeniedError struct {
	Permission string
}

func (e *PermissionDeniedError) Error() string {
	return "authz: missing permission " + e.Permission
}

// IsDenied reports whether err is a permission denial and returns the
// missing permission name.
func IsDenied(err error) (string, bool) {
	var denied *PermissionDeniedError
	if errors.As(err, &denied) {
		return denied.Permission, true
	}
	return "", false
}
