package timesheet

import (
	"time"

	"clubhouse/bizerror"
	"clubhouse/common"
	"clubhouse/domain"
	"clubhouse/domain/settings"
	"clubhouse/persistence"
	"clubhouse/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

type ConfirmInfo struct {
	PersonID types.ID `json:"personId"`
	Year     int      `json:"year"`

	CorrectionEnabled bool `json:"correctionEnabled"`

	Confirmed   bool            `json:"confirmed"`
	ConfirmTime types.Timestamp `json:"confirmTime"`
}

var (
	personEventIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	ConfirmationInfoFunc = ConfirmationInfo
	ConfirmFunc          = Confirm
)

// currentCorrectionYear reads the correction year setting, zero meaning the
// current calendar year.
func currentCorrectionYear(s *session.Session) (int, error) {
	year, err := settings.GetIntSetting(settings.TimesheetCorrectionYear, s)
	if err != nil {
		return 0, err
	}
	if year == 0 {
		year = time.Now().Year()
	}
	return year, nil
}

// ConfirmationInfo reports the confirmation flag of the correction year.
// Reading never creates the event row.
func ConfirmationInfo(personId types.ID, s *session.Session) (*ConfirmInfo, error) {
	if !s.Perms.HasPersonViewPerm(personId) {
		return nil, bizerror.ErrForbidden
	}
	year, err := currentCorrectionYear(s)
	if err != nil {
		return nil, err
	}
	enabled, err := settings.GetBoolSetting(settings.TimesheetCorrectionEnable, s)
	if err != nil {
		return nil, err
	}

	info := ConfirmInfo{PersonID: personId, Year: year, CorrectionEnabled: enabled}
	event := domain.PersonEvent{}
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	err = db.Where(&domain.PersonEvent{PersonID: personId, Year: year}).First(&event).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return &info, nil
		}
		return nil, err
	}
	info.Confirmed = event.TimesheetConfirmed
	info.ConfirmTime = event.TimesheetConfirmTime
	return &info, nil
}

// Confirm sets or drops the person's confirmation flag of the correction
// year. The event row is created lazily on the first confirmation, and the
// flag change is logged only when it actually flips.
func Confirm(personId types.ID, confirmed bool, s *session.Session) (*ConfirmInfo, error) {
	if !s.Perms.HasTimesheetManagePerm() && !s.Perms.IsSelf(personId) {
		return nil, bizerror.ErrForbidden
	}
	year, err := currentCorrectionYear(s)
	if err != nil {
		return nil, err
	}

	info := ConfirmInfo{PersonID: personId, Year: year}
	err = persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		event := domain.PersonEvent{}
		err := tx.Where(&domain.PersonEvent{PersonID: personId, Year: year}).First(&event).Error
		if err != nil && !gorm.IsRecordNotFoundError(err) {
			return err
		}
		if gorm.IsRecordNotFoundError(err) {
			if !confirmed {
				return nil
			}
			event = domain.PersonEvent{ID: common.NextId(personEventIdWorker),
				PersonID: personId, Year: year}
			if err := tx.Create(&event).Error; err != nil {
				return err
			}
		}

		if event.TimesheetConfirmed == confirmed {
			info.Confirmed = event.TimesheetConfirmed
			info.ConfirmTime = event.TimesheetConfirmTime
			return nil
		}

		confirmTime := types.Timestamp{}
		action := domain.TimesheetLogUnconfirmed
		if confirmed {
			confirmTime = types.CurrentTimestamp()
			action = domain.TimesheetLogConfirmed
		}
		err = tx.Model(&domain.PersonEvent{}).Where("id = ?", event.ID).
			Update(map[string]interface{}{"timesheet_confirmed": confirmed,
				"timesheet_confirm_time": confirmTime}).Error
		if err != nil {
			return err
		}
		err = RecordTimesheetLogFunc(0, personId, year, action,
			domain.TimesheetLogPayload{"confirmed": confirmed}, &s.Identity, tx)
		if err != nil {
			return err
		}
		info.Confirmed = confirmed
		info.ConfirmTime = confirmTime
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// markUnconfirmed drops the confirmation flag after a timesheet mutation.
// It only acts when a confirmed event row already exists for the year.
func markUnconfirmed(tx *gorm.DB, personId types.ID, year int, reason string, identity *session.Identity) error {
	event := domain.PersonEvent{}
	err := tx.Where(&domain.PersonEvent{PersonID: personId, Year: year}).First(&event).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil
		}
		return err
	}
	if !event.TimesheetConfirmed {
		return nil
	}

	err = tx.Model(&domain.PersonEvent{}).Where("id = ?", event.ID).
		Update(map[string]interface{}{"timesheet_confirmed": false,
			"timesheet_confirm_time": types.Timestamp{}}).Error
	if err != nil {
		return err
	}
	return RecordTimesheetLogFunc(0, personId, year, domain.TimesheetLogUnconfirmed,
		domain.TimesheetLogPayload{"confirmed": false, "reason": reason}, identity, tx)
}
