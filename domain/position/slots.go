package position

import (
	"clubhouse/bizerror"
	"clubhouse/common"
	"clubhouse/domain"
	"clubhouse/persistence"
	"clubhouse/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

type SlotCreation struct {
	PositionID types.ID `json:"positionId" binding:"required"`

	BeginsTime  types.Timestamp `json:"beginsTime" binding:"required"`
	EndsTime    types.Timestamp `json:"endsTime" binding:"required"`
	Description string          `json:"description" binding:"omitempty,lte=255"`
	Active      bool            `json:"active"`
}

type SlotQuery struct {
	PositionID types.ID `json:"positionId" form:"positionId" binding:"required"`
}

var (
	slotIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateSlotFunc = CreateSlot
	QuerySlotsFunc = QuerySlots
	DeleteSlotFunc = DeleteSlot
)

func CreateSlot(c *SlotCreation, s *session.Session) (*domain.Slot, error) {
	if !s.Perms.HasShiftManagePerm() {
		return nil, bizerror.ErrForbidden
	}

	r := domain.Slot{}
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		position := domain.Position{ID: c.PositionID}
		if err := tx.Where(&position).First(&position).Error; err != nil {
			return err
		}
		r = domain.Slot{ID: common.NextId(slotIdWorker), PositionID: c.PositionID,
			BeginsTime: c.BeginsTime, EndsTime: c.EndsTime, Description: c.Description, Active: c.Active}
		return tx.Create(&r).Error
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func QuerySlots(q SlotQuery, s *session.Session) ([]domain.Slot, error) {
	slots := []domain.Slot{}
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if err := db.Where(&domain.Slot{PositionID: q.PositionID}).
		Order("begins_time ASC").Find(&slots).Error; err != nil {
		return nil, err
	}
	return slots, nil
}

func DeleteSlot(id types.ID, s *session.Session) error {
	if !s.Perms.HasShiftManagePerm() {
		return bizerror.ErrForbidden
	}
	return persistence.ActiveDataSourceManager.GormDB(s.Context).
		Delete(domain.Slot{}, "id = ?", id).Error
}
