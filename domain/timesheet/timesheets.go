package timesheet

import (
	"clubhouse/account"
	"clubhouse/bizerror"
	"clubhouse/common"
	"clubhouse/domain"
	"clubhouse/domain/eligibility"
	"clubhouse/persistence"
	"clubhouse/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

const (
	StatusSuccess             = "success"
	StatusAlreadyOnDuty       = "already-on-duty"
	StatusAlreadySignedOff    = "already-signed-off"
	StatusPersonMismatch      = "person-mismatch"
	StatusPositionNotEligible = "position-not-eligible"
)

type TimesheetSignIn struct {
	PersonID   types.ID `json:"personId" binding:"required"`
	PositionID types.ID `json:"positionId" binding:"required"`
	SlotID     types.ID `json:"slotId"`
}

type TimesheetUpdating struct {
	OnDuty  *types.Timestamp `json:"onDuty"`
	OffDuty *types.Timestamp `json:"offDuty"`

	PositionID   *types.ID            `json:"positionId"`
	ReviewStatus *domain.ReviewStatus `json:"reviewStatus" binding:"omitempty,oneof=pending unverified verified"`
	Notes        *string              `json:"notes"`
}

type TimesheetQuery struct {
	PersonID types.ID `json:"personId" form:"personId" binding:"required"`
	Year     int      `json:"year" form:"year"`
	OnDuty   bool     `json:"onDuty" form:"onDuty"`
}

// TimesheetResult reports expected business outcomes as structured statuses,
// never as errors, so callers can answer idempotently.
type TimesheetResult struct {
	Status    string            `json:"status"`
	Timesheet *domain.Timesheet `json:"timesheet,omitempty"`

	Forced            bool     `json:"forced,omitempty"`
	Reason            string   `json:"reason,omitempty"`
	BlockerPositionID types.ID `json:"blockerPositionId,omitempty"`
}

var (
	timesheetIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	SignInFunc          = SignIn
	SignOffFunc         = SignOff
	ChangePositionFunc  = ChangePosition
	ReSignInFunc        = ReSignIn
	UpdateTimesheetFunc = UpdateTimesheet
	DeleteTimesheetFunc = DeleteTimesheet
	QueryTimesheetsFunc = QueryTimesheets
)

// SignIn opens a shift entry. The duplicate pre-check answers already-on-duty;
// the unique key on (person_id, on_duty_open) closes the race the pre-check
// leaves under concurrent requests.
func SignIn(c *TimesheetSignIn, s *session.Session) (*TimesheetResult, error) {
	if !s.Perms.HasShiftManagePerm() && !s.Perms.IsSelf(c.PersonID) {
		return nil, bizerror.ErrForbidden
	}

	result := TimesheetResult{}
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		open, err := findPersonOnDuty(tx, c.PersonID)
		if err != nil {
			return err
		}
		if open != nil {
			result = TimesheetResult{Status: StatusAlreadyOnDuty, Timesheet: open}
			return nil
		}

		person := account.Person{ID: c.PersonID}
		if err := tx.Where(&person).First(&person).Error; err != nil {
			return err
		}

		decision, err := eligibility.CheckWorkAuthorizationFunc(tx, &person, c.PositionID, s)
		if err != nil {
			return err
		}
		if !decision.Allowed() {
			result = TimesheetResult{Status: StatusPositionNotEligible,
				Reason: decision.Reason, BlockerPositionID: decision.BlockerPositionID}
			return nil
		}

		reviewStatus := domain.ReviewUnverified
		if decision.Outcome == eligibility.OutcomeForced {
			reviewStatus = domain.ReviewPending
		}

		open1 := int8(1)
		entry := domain.Timesheet{ID: common.NextId(timesheetIdWorker),
			PersonID: c.PersonID, PositionID: c.PositionID, SlotID: c.SlotID,
			OnDuty: types.CurrentTimestamp(), OnDutyOpen: &open1,
			ReviewStatus: reviewStatus, CreateTime: types.CurrentTimestamp()}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		payload := domain.TimesheetLogPayload{
			"position_id": entry.PositionID, "on_duty": entry.OnDuty.String()}
		if decision.Outcome == eligibility.OutcomeForced {
			payload["forced_reason"] = decision.Reason
			if decision.BlockerPositionID != 0 {
				payload["blocker_position_id"] = decision.BlockerPositionID
			}
		}
		year := entry.OnDuty.Time().Year()
		if err := RecordTimesheetLogFunc(entry.ID, entry.PersonID, year,
			domain.TimesheetLogSignOn, payload, &s.Identity, tx); err != nil {
			return err
		}
		if err := markUnconfirmed(tx, entry.PersonID, year, "new entry - signed in", &s.Identity); err != nil {
			return err
		}

		result = TimesheetResult{Status: StatusSuccess, Timesheet: &entry,
			Forced: decision.Outcome == eligibility.OutcomeForced,
			Reason: decision.Reason, BlockerPositionID: decision.BlockerPositionID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// SignOff closes an open entry. A second call answers already-signed-off
// without another log entry.
func SignOff(id types.ID, s *session.Session) (*TimesheetResult, error) {
	result := TimesheetResult{}
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		entry := domain.Timesheet{ID: id}
		if err := tx.Where(&entry).First(&entry).Error; err != nil {
			return err
		}
		if !s.Perms.HasShiftManagePerm() && !s.Perms.IsSelf(entry.PersonID) {
			return bizerror.ErrForbidden
		}
		if !entry.IsOnDuty() {
			result = TimesheetResult{Status: StatusAlreadySignedOff, Timesheet: &entry}
			return nil
		}

		offDuty := types.CurrentTimestamp()
		err := tx.Model(&domain.Timesheet{ID: id}).
			Update(map[string]interface{}{"off_duty": offDuty, "on_duty_open": nil}).Error
		if err != nil {
			return err
		}
		entry.OffDuty = offDuty
		entry.OnDutyOpen = nil

		year := entry.OnDuty.Time().Year()
		err = RecordTimesheetLogFunc(entry.ID, entry.PersonID, year, domain.TimesheetLogSignOff,
			domain.TimesheetLogPayload{"position_id": entry.PositionID, "off_duty": offDuty.String()},
			&s.Identity, tx)
		if err != nil {
			return err
		}
		if err := markUnconfirmed(tx, entry.PersonID, year, "signoff", &s.Identity); err != nil {
			return err
		}

		result = TimesheetResult{Status: StatusSuccess, Timesheet: &entry}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ChangePosition switches the position of an open entry, re-running the
// eligibility check of sign-in.
func ChangePosition(id, positionId types.ID, s *session.Session) (*TimesheetResult, error) {
	result := TimesheetResult{}
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		entry := domain.Timesheet{ID: id}
		if err := tx.Where(&entry).First(&entry).Error; err != nil {
			return err
		}
		if !s.Perms.HasShiftManagePerm() && !s.Perms.IsSelf(entry.PersonID) {
			return bizerror.ErrForbidden
		}
		if !entry.IsOnDuty() {
			return bizerror.ErrNotOnDuty
		}

		person := account.Person{ID: entry.PersonID}
		if err := tx.Where(&person).First(&person).Error; err != nil {
			return err
		}
		decision, err := eligibility.CheckWorkAuthorizationFunc(tx, &person, positionId, s)
		if err != nil {
			return err
		}
		if !decision.Allowed() {
			result = TimesheetResult{Status: StatusPositionNotEligible,
				Reason: decision.Reason, BlockerPositionID: decision.BlockerPositionID}
			return nil
		}

		oldPositionId := entry.PositionID
		if err := tx.Model(&domain.Timesheet{ID: id}).Update("position_id", positionId).Error; err != nil {
			return err
		}
		entry.PositionID = positionId

		payload := domain.TimesheetLogPayload{
			"position_id": []interface{}{oldPositionId, positionId}}
		if decision.Outcome == eligibility.OutcomeForced {
			payload["forced_reason"] = decision.Reason
		}
		year := entry.OnDuty.Time().Year()
		err = RecordTimesheetLogFunc(entry.ID, entry.PersonID, year,
			domain.TimesheetLogUpdate, payload, &s.Identity, tx)
		if err != nil {
			return err
		}

		result = TimesheetResult{Status: StatusSuccess, Timesheet: &entry,
			Forced: decision.Outcome == eligibility.OutcomeForced, Reason: decision.Reason}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ReSignIn reopens an accidentally closed entry.
func ReSignIn(id, personId types.ID, s *session.Session) (*TimesheetResult, error) {
	result := TimesheetResult{}
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		entry := domain.Timesheet{ID: id}
		if err := tx.Where(&entry).First(&entry).Error; err != nil {
			return err
		}
		if !s.Perms.HasShiftManagePerm() && !s.Perms.IsSelf(entry.PersonID) {
			return bizerror.ErrForbidden
		}
		if entry.PersonID != personId {
			result = TimesheetResult{Status: StatusPersonMismatch}
			return nil
		}

		open, err := findPersonOnDuty(tx, personId)
		if err != nil {
			return err
		}
		if open != nil {
			result = TimesheetResult{Status: StatusAlreadyOnDuty, Timesheet: &entry}
			return nil
		}

		oldOffDuty := entry.OffDuty
		err = tx.Model(&domain.Timesheet{ID: id}).
			Update(map[string]interface{}{"off_duty": types.Timestamp{}, "on_duty_open": 1}).Error
		if err != nil {
			return err
		}
		entry.OffDuty = types.Timestamp{}
		open1 := int8(1)
		entry.OnDutyOpen = &open1

		year := entry.OnDuty.Time().Year()
		err = RecordTimesheetLogFunc(entry.ID, entry.PersonID, year, domain.TimesheetLogUpdate,
			domain.TimesheetLogPayload{"off_duty": []interface{}{oldOffDuty.String(), "re-signin"}},
			&s.Identity, tx)
		if err != nil {
			return err
		}
		if err := markUnconfirmed(tx, entry.PersonID, year, "re-signin", &s.Identity); err != nil {
			return err
		}

		result = TimesheetResult{Status: StatusSuccess, Timesheet: &entry}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteTimesheet removes an entry, snapshotting it into a delete log within
// the same transaction so later log listings can reconstruct it.
func DeleteTimesheet(id types.ID, s *session.Session) error {
	if !s.Perms.HasTimesheetManagePerm() {
		return bizerror.ErrForbidden
	}

	return persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		entry := domain.Timesheet{ID: id}
		if err := tx.Where(&entry).First(&entry).Error; err != nil {
			return err
		}

		year := entry.OnDuty.Time().Year()
		err := RecordTimesheetLogFunc(entry.ID, entry.PersonID, year, domain.TimesheetLogDelete,
			domain.TimesheetLogPayload{"position_id": entry.PositionID,
				"on_duty": entry.OnDuty.String(), "off_duty": entry.OffDuty.String()},
			&s.Identity, tx)
		if err != nil {
			return err
		}
		return tx.Delete(domain.Timesheet{}, "id = ?", id).Error
	})
}

func QueryTimesheets(q TimesheetQuery, s *session.Session) ([]domain.Timesheet, error) {
	if !s.Perms.HasPersonViewPerm(q.PersonID) {
		return nil, bizerror.ErrForbidden
	}

	entries := []domain.Timesheet{}
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	query := db.Where(&domain.Timesheet{PersonID: q.PersonID})
	if q.Year != 0 {
		query = query.Where("YEAR(on_duty) = ?", q.Year)
	}
	if q.OnDuty {
		query = query.Where("on_duty_open = 1")
	}
	if err := query.Order("on_duty ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func findPersonOnDuty(tx *gorm.DB, personId types.ID) (*domain.Timesheet, error) {
	entry := domain.Timesheet{}
	err := tx.Where(&domain.Timesheet{PersonID: personId}).
		Where("on_duty_open = 1").First(&entry).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}
