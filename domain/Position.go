package domain

import (
	"github.com/fundwit/go-commons/types"
)

// EligibilityRule tags the work-authorization policy applied when a person
// signs in to a position. Rules are resolved through the registry in
// domain/eligibility.
type EligibilityRule string

const (
	RuleNone            = EligibilityRule("")
	RuleTrainingsPassed = EligibilityRule("TRAININGS_PASSED")
	RuleActiveStatus    = EligibilityRule("ACTIVE_STATUS")
)

type PositionType string

const (
	PositionTypeFrontline = PositionType("FRONTLINE")
	PositionTypeCommand   = PositionType("COMMAND")
	PositionTypeTraining  = PositionType("TRAINING")
)

type Position struct {
	ID    types.ID `json:"id" gorm:"primary_key"`
	Title string   `json:"title" gorm:"unique_index"`

	Type   PositionType `json:"type"`
	Active bool         `json:"active"`

	// TrainingPositionID references the position which must appear on a
	// verified timesheet entry before this position may be worked.
	TrainingPositionID types.ID        `json:"trainingPositionId"`
	EligibilityRule    EligibilityRule `json:"eligibilityRule"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

type Slot struct {
	ID         types.ID `json:"id" gorm:"primary_key"`
	PositionID types.ID `json:"positionId"`

	BeginsTime  types.Timestamp `json:"beginsTime" sql:"type:DATETIME(6)"`
	EndsTime    types.Timestamp `json:"endsTime" sql:"type:DATETIME(6)"`
	Description string          `json:"description"`
	Active      bool            `json:"active"`
}
