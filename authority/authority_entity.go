package authority

import (
	"strings"

	"github.com/fundwit/go-commons/types"
)

// Clubhouse permission vocabulary. A session carries a flat list of permission
// strings: global roles plus a "self_<personId>" marker for the account owner.
const (
	RoleAdmin               = "admin"
	RoleManage              = "manage"
	RoleTimesheetManagement = "timesheet-management"
	RoleShiftManagement     = "shift-management"

	SelfPermPrefix = "self_"
)

type Permissions []string

func (c Permissions) HasRole(role string) bool {
	for _, v := range c {
		if strings.EqualFold(v, role) {
			return true
		}
	}
	return false
}

func (c Permissions) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if c.HasRole(role) {
			return true
		}
	}
	return false
}

func (c Permissions) HasRolePrefix(prefix string) bool {
	for _, v := range c {
		if strings.HasPrefix(strings.ToLower(v), strings.ToLower(prefix)) {
			return true
		}
	}
	return false
}

// IsSelf reports whether the permissions mark the session owner as personId.
func (c Permissions) IsSelf(personId types.ID) bool {
	return c.HasRole(SelfPermPrefix + personId.String())
}

// HasPersonViewPerm allows management roles to view anyone, and a person to
// view their own records.
func (c Permissions) HasPersonViewPerm(personId types.ID) bool {
	return c.HasAnyRole(RoleAdmin, RoleManage, RoleTimesheetManagement) || c.IsSelf(personId)
}

func (c Permissions) HasTimesheetManagePerm() bool {
	return c.HasAnyRole(RoleAdmin, RoleTimesheetManagement)
}

func (c Permissions) HasShiftManagePerm() bool {
	return c.HasAnyRole(RoleAdmin, RoleShiftManagement, RoleTimesheetManagement)
}

func (c Permissions) HasAdminPerm() bool {
	return c.HasRole(RoleAdmin)
}
