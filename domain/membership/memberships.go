package membership

import (
	"clubhouse/account"
	"clubhouse/auditlog"
	"clubhouse/authority"
	"clubhouse/bizerror"
	"clubhouse/domain"
	"clubhouse/persistence"
	"clubhouse/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

type MembershipTable string

const (
	TablePositions = MembershipTable("positions")
	TableRoles     = MembershipTable("roles")
)

type ReconcileResult struct {
	Added   []types.ID `json:"added"`
	Removed []types.ID `json:"removed"`
	Members []types.ID `json:"members"`
}

type MembershipUpdating struct {
	TargetIds []types.ID `json:"targetIds"`
}

// tableBinding parameterizes the diff over the two membership tables.
type tableBinding struct {
	event string

	currentIds func(tx *gorm.DB, personId types.ID) ([]types.ID, error)
	insertRow  func(tx *gorm.DB, personId, targetId types.ID) error
	bulkDelete func(tx *gorm.DB, personId types.ID, targetIds []types.ID) error
}

var bindings = map[MembershipTable]tableBinding{
	TablePositions: {
		event: auditlog.EventPersonPosition,
		currentIds: func(tx *gorm.DB, personId types.ID) ([]types.ID, error) {
			var ids []types.ID
			err := tx.Model(&domain.PersonPosition{}).Where(&domain.PersonPosition{PersonID: personId}).
				Pluck("position_id", &ids).Error
			return ids, err
		},
		insertRow: func(tx *gorm.DB, personId, targetId types.ID) error {
			return tx.Create(&domain.PersonPosition{PersonID: personId, PositionID: targetId}).Error
		},
		bulkDelete: func(tx *gorm.DB, personId types.ID, targetIds []types.ID) error {
			return tx.Where("person_id = ? AND position_id IN (?)", personId, targetIds).
				Delete(domain.PersonPosition{}).Error
		},
	},
	TableRoles: {
		event: auditlog.EventPersonRole,
		currentIds: func(tx *gorm.DB, personId types.ID) ([]types.ID, error) {
			var ids []types.ID
			err := tx.Model(&domain.PersonRole{}).Where(&domain.PersonRole{PersonID: personId}).
				Pluck("role_id", &ids).Error
			return ids, err
		},
		insertRow: func(tx *gorm.DB, personId, targetId types.ID) error {
			return tx.Create(&domain.PersonRole{PersonID: personId, RoleID: targetId}).Error
		},
		bulkDelete: func(tx *gorm.DB, personId types.ID, targetIds []types.ID) error {
			return tx.Where("person_id = ? AND role_id IN (?)", personId, targetIds).
				Delete(domain.PersonRole{}).Error
		},
	},
}

var (
	ReconcileFunc = Reconcile
)

// Reconcile applies the delta between the persisted membership set and the
// target set: one bulk delete, row inserts, and a single audit log entry when
// the delta is non-empty.
func Reconcile(personId types.ID, targetIds []types.ID, table MembershipTable, s *session.Session) (*ReconcileResult, error) {
	if !s.Perms.HasAnyRole(authority.RoleAdmin, authority.RoleManage) {
		return nil, bizerror.ErrForbidden
	}
	binding, found := bindings[table]
	if !found {
		return nil, bizerror.ErrInvalidArguments
	}

	result := ReconcileResult{}
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		person := account.Person{ID: personId}
		if err := tx.Where(&person).First(&person).Error; err != nil {
			return err
		}

		current, err := binding.currentIds(tx, personId)
		if err != nil {
			return err
		}

		toAdd, toRemove := Diff(current, targetIds)
		if len(toRemove) > 0 {
			if err := binding.bulkDelete(tx, personId, toRemove); err != nil {
				return err
			}
		}
		for _, id := range toAdd {
			if err := binding.insertRow(tx, personId, id); err != nil {
				return err
			}
		}

		if len(toAdd) > 0 || len(toRemove) > 0 {
			err := auditlog.Record(binding.event, "membership "+string(table)+" reconciled", personId,
				auditlog.Payload{"add": toAdd, "remove": toRemove}, &s.Identity, tx)
			if err != nil {
				return err
			}
		}

		members, err := binding.currentIds(tx, personId)
		if err != nil {
			return err
		}
		result = ReconcileResult{Added: toAdd, Removed: toRemove, Members: members}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Diff computes target − current and current − target as sets. Duplicates in
// either input collapse; order of the inputs does not matter.
func Diff(current, target []types.ID) (toAdd, toRemove []types.ID) {
	currentSet := make(map[types.ID]bool, len(current))
	for _, id := range current {
		currentSet[id] = true
	}
	targetSet := make(map[types.ID]bool, len(target))
	for _, id := range target {
		targetSet[id] = true
	}

	toAdd = []types.ID{}
	for _, id := range target {
		if !currentSet[id] && targetSet[id] {
			toAdd = append(toAdd, id)
			targetSet[id] = false // drop duplicates in target
		}
	}
	toRemove = []types.ID{}
	seen := map[types.ID]bool{}
	for _, id := range current {
		if _, inTarget := targetSet[id]; !inTarget && !seen[id] {
			toRemove = append(toRemove, id)
			seen[id] = true
		}
	}
	return toAdd, toRemove
}
