package auth

import "github.com/smartclinic/api/internal/platform/apperror"

// Role is one of the three identity classes the API serves. Roles are
// never carried inside tokens; each protected route claims the role it
// serves and the subject must resolve under it.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleDoctor, RolePatient:
		return Role(s), nil
	default:
		return "", apperror.Newf(apperror.KindValidation, "unknown role %q", s)
	}
}
