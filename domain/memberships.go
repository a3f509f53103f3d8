package domain

import (
	"github.com/fundwit/go-commons/types"
)

// PersonPosition and PersonRole are unordered membership sets: one row per
// granted pair, uniqueness enforced by the composite primary key.
type PersonPosition struct {
	PersonID   types.ID `json:"personId" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`
	PositionID types.ID `json:"positionId" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`
}

type PersonRole struct {
	PersonID types.ID `json:"personId" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`
	RoleID   types.ID `json:"roleId" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`
}
