package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/fundwit/go-commons/types"
)

type ReviewStatus string

const (
	ReviewPending    = ReviewStatus("pending")
	ReviewUnverified = ReviewStatus("unverified")
	ReviewVerified   = ReviewStatus("verified")
)

type Timesheet struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	PersonID   types.ID `json:"personId" gorm:"unique_index:uni_person_open" sql:"type:BIGINT UNSIGNED NOT NULL"`
	PositionID types.ID `json:"positionId" sql:"type:BIGINT UNSIGNED NOT NULL"`
	SlotID     types.ID `json:"slotId"`

	OnDuty  types.Timestamp `json:"onDuty" sql:"type:DATETIME(6) NOT NULL"`
	OffDuty types.Timestamp `json:"offDuty" sql:"type:DATETIME(6)"`

	// OnDutyOpen is 1 while the entry is open and NULL after sign-off, so the
	// unique key (person_id, on_duty_open) admits at most one open entry per
	// person. MySQL unique keys ignore NULL values.
	OnDutyOpen *int8 `json:"-" gorm:"unique_index:uni_person_open"`

	ReviewStatus     ReviewStatus    `json:"reviewStatus"`
	ReviewerID       types.ID        `json:"reviewerId"`
	ReviewerCallsign string          `json:"reviewerCallsign"`
	ReviewTime       types.Timestamp `json:"reviewTime" sql:"type:DATETIME(6)"`

	Notes string `json:"notes" sql:"type:TEXT"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

func (r *Timesheet) TableName() string {
	return "timesheets"
}

func (r *Timesheet) IsOnDuty() bool {
	return r.OffDuty.IsZero()
}

// TimesheetLogPayload is the before/after detail of a timesheet log entry,
// stored as a JSON column.
type TimesheetLogPayload map[string]interface{}

func (t TimesheetLogPayload) Value() (driver.Value, error) {
	jsonBytes, err := json.Marshal(&t)
	if err != nil {
		return nil, err
	}
	return string(jsonBytes), nil
}

func (t *TimesheetLogPayload) Scan(v interface{}) error {
	jsonString, ok := v.(string)
	if !ok {
		jsonByte, ok := v.([]byte)
		if !ok {
			return fmt.Errorf("type is neither string nor []byte: %T %v", v, v)
		}
		jsonString = string(jsonByte)
	}
	return json.Unmarshal([]byte(jsonString), t)
}

const (
	TimesheetLogSignOn      = "sign-on"
	TimesheetLogUpdate      = "update"
	TimesheetLogSignOff     = "sign-off"
	TimesheetLogVerify      = "verify"
	TimesheetLogUnverified  = "unverified"
	TimesheetLogDelete      = "delete"
	TimesheetLogConfirmed   = "confirmed"
	TimesheetLogUnconfirmed = "unconfirmed"
)

// TimesheetLog is an append-only trail. TimesheetID is zero for person level
// entries, like the yearly confirmation flag.
type TimesheetLog struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	TimesheetID types.ID `json:"timesheetId" gorm:"index:idx_timesheet"`
	PersonID    types.ID `json:"personId" gorm:"index:idx_person_year"`
	Year        int      `json:"year" gorm:"index:idx_person_year"`

	Action  string              `json:"action"`
	Payload TimesheetLogPayload `json:"payload" sql:"type:TEXT"`

	CreatorID       types.ID `json:"creatorId"`
	CreatorCallsign string   `json:"creatorCallsign"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

func (r *TimesheetLog) TableName() string {
	return "timesheet_logs"
}

// PersonEvent carries the per person per year flags, created lazily.
type PersonEvent struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	PersonID types.ID `json:"personId" gorm:"unique_index:uni_person_year" sql:"type:BIGINT UNSIGNED NOT NULL"`
	Year     int      `json:"year" gorm:"unique_index:uni_person_year"`

	TimesheetConfirmed   bool            `json:"timesheetConfirmed"`
	TimesheetConfirmTime types.Timestamp `json:"timesheetConfirmTime" sql:"type:DATETIME(6)"`
}

func (r *PersonEvent) TableName() string {
	return "person_events"
}
