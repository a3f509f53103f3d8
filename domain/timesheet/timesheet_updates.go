package timesheet

import (
	"clubhouse/bizerror"
	"clubhouse/domain"
	"clubhouse/domain/settings"
	"clubhouse/persistence"
	"clubhouse/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

// UpdateTimesheet applies a partial correction to an entry. Every audited
// field change is logged as a [before, after] pair. A review status change
// to verified or unverified gets its own single purpose log entry, and when
// it is the only audited change the generic update log is suppressed.
func UpdateTimesheet(id types.ID, u *TimesheetUpdating, s *session.Session) (*domain.Timesheet, error) {
	updated := domain.Timesheet{}
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		entry := domain.Timesheet{ID: id}
		if err := tx.Where(&entry).First(&entry).Error; err != nil {
			return err
		}
		if err := checkCorrectionPerm(tx, &entry, s); err != nil {
			return err
		}

		changes := map[string]interface{}{}
		audit := domain.TimesheetLogPayload{}

		if u.OnDuty != nil && *u.OnDuty != entry.OnDuty {
			changes["on_duty"] = *u.OnDuty
			audit["on_duty"] = []interface{}{entry.OnDuty.String(), u.OnDuty.String()}
		}
		if u.OffDuty != nil && *u.OffDuty != entry.OffDuty {
			changes["off_duty"] = *u.OffDuty
			audit["off_duty"] = []interface{}{entry.OffDuty.String(), u.OffDuty.String()}
			if u.OffDuty.IsZero() {
				changes["on_duty_open"] = 1
			} else if entry.IsOnDuty() {
				changes["on_duty_open"] = nil
			}
		}
		if u.PositionID != nil && *u.PositionID != entry.PositionID {
			changes["position_id"] = *u.PositionID
			audit["position_id"] = []interface{}{entry.PositionID, *u.PositionID}
		}

		reviewChanged := u.ReviewStatus != nil && *u.ReviewStatus != entry.ReviewStatus
		notesChanged := u.Notes != nil && *u.Notes != entry.Notes
		if notesChanged {
			changes["notes"] = *u.Notes
			audit["notes"] = []interface{}{entry.Notes, *u.Notes}
		}

		newReview := entry.ReviewStatus
		if reviewChanged {
			newReview = *u.ReviewStatus
		} else if notesChanged {
			// an annotated entry goes back in front of the reviewers
			newReview = domain.ReviewPending
		}
		if newReview != entry.ReviewStatus {
			changes["review_status"] = newReview
			audit["review_status"] = []interface{}{string(entry.ReviewStatus), string(newReview)}
		}
		if reviewChanged || notesChanged {
			changes["reviewer_id"] = s.Identity.ID
			changes["reviewer_callsign"] = s.Identity.Callsign
			if newReview == domain.ReviewVerified {
				changes["review_time"] = types.CurrentTimestamp()
			}
		}

		if len(changes) == 0 {
			updated = entry
			return nil
		}
		if err := tx.Model(&domain.Timesheet{ID: id}).Update(changes).Error; err != nil {
			return err
		}

		oldYear := entry.OnDuty.Time().Year()
		year := oldYear
		if u.OnDuty != nil {
			year = u.OnDuty.Time().Year()
		}
		if year != oldYear {
			err := tx.Model(&domain.TimesheetLog{}).Where("timesheet_id = ?", id).
				Update("year", year).Error
			if err != nil {
				return err
			}
		}

		didVerify := newReview == domain.ReviewVerified && entry.ReviewStatus != domain.ReviewVerified
		didUnverify := newReview == domain.ReviewUnverified && entry.ReviewStatus != domain.ReviewUnverified

		if len(audit) != 1 || (!didVerify && !didUnverify) {
			err := RecordTimesheetLogFunc(id, entry.PersonID, year,
				domain.TimesheetLogUpdate, audit, &s.Identity, tx)
			if err != nil {
				return err
			}
		}
		if didVerify {
			err := RecordTimesheetLogFunc(id, entry.PersonID, year, domain.TimesheetLogVerify,
				domain.TimesheetLogPayload{"review_status": string(newReview)}, &s.Identity, tx)
			if err != nil {
				return err
			}
		}
		if didUnverify {
			err := RecordTimesheetLogFunc(id, entry.PersonID, year, domain.TimesheetLogUnverified,
				domain.TimesheetLogPayload{"review_status": string(newReview)}, &s.Identity, tx)
			if err != nil {
				return err
			}
		}

		// only a review transition away from verified questions the year again;
		// time and position corrections leave the confirmation standing
		if newReview != entry.ReviewStatus && newReview != domain.ReviewVerified {
			if err := markUnconfirmed(tx, entry.PersonID, year, "entry updated", &s.Identity); err != nil {
				return err
			}
		}
		return tx.Where(&domain.Timesheet{ID: id}).First(&updated).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// checkCorrectionPerm admits timesheet managers always, and the person
// themselves only while self corrections are enabled for the entry's year.
func checkCorrectionPerm(tx *gorm.DB, entry *domain.Timesheet, s *session.Session) error {
	if s.Perms.HasTimesheetManagePerm() {
		return nil
	}
	if !s.Perms.IsSelf(entry.PersonID) {
		return bizerror.ErrForbidden
	}

	enabled, err := settings.GetBoolSetting(settings.TimesheetCorrectionEnable, s)
	if err != nil {
		return err
	}
	if !enabled {
		return bizerror.ErrForbidden
	}
	year, err := currentCorrectionYear(s)
	if err != nil {
		return err
	}
	if entry.OnDuty.Time().Year() != year {
		return bizerror.ErrForbidden
	}
	return nil
}
