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

type PositionCreation struct {
	Title string `json:"title" binding:"required,lte=255"`

	Type   domain.PositionType `json:"type" binding:"required,oneof=FRONTLINE COMMAND TRAINING"`
	Active bool                `json:"active"`

	TrainingPositionID types.ID               `json:"trainingPositionId"`
	EligibilityRule    domain.EligibilityRule `json:"eligibilityRule" binding:"omitempty,oneof=TRAININGS_PASSED ACTIVE_STATUS"`
}

type PositionUpdating struct {
	Title string `json:"title" binding:"required,lte=255"`

	Type   domain.PositionType `json:"type" binding:"required,oneof=FRONTLINE COMMAND TRAINING"`
	Active bool                `json:"active"`

	TrainingPositionID types.ID               `json:"trainingPositionId"`
	EligibilityRule    domain.EligibilityRule `json:"eligibilityRule" binding:"omitempty,oneof=TRAININGS_PASSED ACTIVE_STATUS"`
}

type PositionQuery struct {
	Type   domain.PositionType `json:"type" form:"type" binding:"omitempty,oneof=FRONTLINE COMMAND TRAINING"`
	Active string              `json:"active" form:"active" binding:"omitempty,oneof=true false"`
}

var (
	positionIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreatePositionFunc = CreatePosition
	QueryPositionsFunc = QueryPositions
	DetailPositionFunc = DetailPosition
	UpdatePositionFunc = UpdatePosition
)

func CreatePosition(c *PositionCreation, s *session.Session) (*domain.Position, error) {
	if !s.Perms.HasShiftManagePerm() {
		return nil, bizerror.ErrForbidden
	}

	r := domain.Position{ID: common.NextId(positionIdWorker), Title: c.Title, Type: c.Type,
		Active: c.Active, TrainingPositionID: c.TrainingPositionID, EligibilityRule: c.EligibilityRule,
		CreateTime: types.CurrentTimestamp()}
	if err := persistence.ActiveDataSourceManager.GormDB(s.Context).Create(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

func QueryPositions(q PositionQuery, s *session.Session) ([]domain.Position, error) {
	positions := []domain.Position{}
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	query := db.Model(&domain.Position{})
	if q.Type != "" {
		query = query.Where("type = ?", q.Type)
	}
	if q.Active != "" {
		query = query.Where("active = ?", q.Active == "true")
	}
	if err := query.Order("title ASC").Find(&positions).Error; err != nil {
		return nil, err
	}
	return positions, nil
}

func DetailPosition(id types.ID, s *session.Session) (*domain.Position, error) {
	r := domain.Position{ID: id}
	if err := persistence.ActiveDataSourceManager.GormDB(s.Context).Where(&r).First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

func UpdatePosition(id types.ID, u *PositionUpdating, s *session.Session) (*domain.Position, error) {
	if !s.Perms.HasShiftManagePerm() {
		return nil, bizerror.ErrForbidden
	}

	r := domain.Position{ID: id}
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(&domain.Position{ID: id}).First(&r).Error; err != nil {
			return err
		}
		changes := map[string]interface{}{
			"title": u.Title, "type": u.Type, "active": u.Active,
			"training_position_id": u.TrainingPositionID, "eligibility_rule": u.EligibilityRule,
		}
		if err := tx.Model(&r).Update(changes).Error; err != nil {
			return err
		}
		return tx.Where(&domain.Position{ID: id}).First(&r).Error
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}
