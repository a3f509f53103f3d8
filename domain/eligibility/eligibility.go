package eligibility

import (
	"clubhouse/account"
	"clubhouse/bizerror"
	"clubhouse/domain"
	"clubhouse/domain/settings"
	"clubhouse/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

type Outcome string

const (
	OutcomeAuthorized = Outcome("authorized")
	OutcomeForced     = Outcome("forced")
	OutcomeRejected   = Outcome("rejected")
)

const (
	ReasonUntrained      = "untrained"
	ReasonNoActiveStatus = "no-active-status"
)

// Decision is the structured result of a work authorization check. Rejection
// is an expected business outcome, never an error.
type Decision struct {
	Outcome Outcome `json:"outcome"`
	Reason  string  `json:"reason,omitempty"`

	// BlockerPositionID is the unmet prerequisite position, when the reason
	// names one.
	BlockerPositionID types.ID `json:"blockerPositionId,omitempty"`
}

func (d *Decision) Allowed() bool {
	return d.Outcome != OutcomeRejected
}

// CheckerFunc evaluates a single eligibility rule against policy data.
type CheckerFunc func(tx *gorm.DB, person *account.Person, position *domain.Position) (ok bool, reason string, blocker types.ID, err error)

var checkers = map[domain.EligibilityRule]CheckerFunc{
	domain.RuleTrainingsPassed: checkTrainingsPassed,
	domain.RuleActiveStatus:    checkActiveStatus,
}

var (
	CheckWorkAuthorizationFunc = CheckWorkAuthorization
)

// CheckWorkAuthorization resolves the position's eligibility rule through the
// checker registry. A failed rule is downgraded from rejected to forced when
// the force setting is on, so the sign-in proceeds flagged for review.
func CheckWorkAuthorization(tx *gorm.DB, person *account.Person, positionId types.ID, s *session.Session) (*Decision, error) {
	position := domain.Position{ID: positionId}
	if err := tx.Where(&position).First(&position).Error; err != nil {
		return nil, err
	}

	if position.EligibilityRule == domain.RuleNone {
		return &Decision{Outcome: OutcomeAuthorized}, nil
	}
	checker, found := checkers[position.EligibilityRule]
	if !found {
		return nil, bizerror.ErrUnknownRule
	}

	ok, reason, blocker, err := checker(tx, person, &position)
	if err != nil {
		return nil, err
	}
	if ok {
		return &Decision{Outcome: OutcomeAuthorized}, nil
	}

	forceEnabled, err := settings.GetBoolSetting(settings.SignInForceEnabled, s)
	if err != nil {
		return nil, err
	}
	if forceEnabled {
		return &Decision{Outcome: OutcomeForced, Reason: reason, BlockerPositionID: blocker}, nil
	}
	return &Decision{Outcome: OutcomeRejected, Reason: reason, BlockerPositionID: blocker}, nil
}

// checkTrainingsPassed demands a verified timesheet entry on the training
// position of the target.
func checkTrainingsPassed(tx *gorm.DB, person *account.Person, position *domain.Position) (bool, string, types.ID, error) {
	if position.TrainingPositionID == 0 {
		return true, "", 0, nil
	}

	var count int
	err := tx.Model(&domain.Timesheet{}).
		Where("person_id = ? AND position_id = ? AND review_status = ?",
			person.ID, position.TrainingPositionID, domain.ReviewVerified).
		Count(&count).Error
	if err != nil {
		return false, "", 0, err
	}
	if count == 0 {
		return false, ReasonUntrained, position.TrainingPositionID, nil
	}
	return true, "", 0, nil
}

func checkActiveStatus(tx *gorm.DB, person *account.Person, position *domain.Position) (bool, string, types.ID, error) {
	if !person.Status.IsActive() {
		return false, ReasonNoActiveStatus, 0, nil
	}
	return true, "", 0, nil
}
