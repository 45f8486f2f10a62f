package identity

import (
	"crypto/subtle"

	"github.com/upb/task-tracker/models"
)

// RoleRules holds the two process-wide inputs of role assignment
type RoleRules struct {
	AdminEmail  string
	ManagerCode string
}

// Assign derives the role for a login. First match wins:
//
//	email equals the reserved admin address  -> admin
//	escalation code equals the manager code  -> manager
//	otherwise                                -> member
//
// The last branch demotes previously escalated accounts.
func (r RoleRules) Assign(email string, escalationCode *string) models.Role {
	if email == r.AdminEmail {
		return models.RoleAdmin
	}
	if escalationCode != nil && r.ManagerCode != "" &&
		subtle.ConstantTimeCompare([]byte(*escalationCode), []byte(r.ManagerCode)) == 1 {
		return models.RoleManager
	}
	return models.RoleMember
}
