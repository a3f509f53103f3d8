package account

import "github.com/fundwit/go-commons/types"

type PersonStatus string

const (
	StatusActive      = PersonStatus("active")
	StatusInactive    = PersonStatus("inactive")
	StatusProspective = PersonStatus("prospective")
	StatusAuditor     = PersonStatus("auditor")
	StatusRetired     = PersonStatus("retired")
	StatusSuspended   = PersonStatus("suspended")
)

// ActiveStatuses are the statuses which may be scheduled and work shifts.
var ActiveStatuses = []PersonStatus{StatusActive, StatusInactive, StatusRetired}

func (s PersonStatus) IsActive() bool {
	for _, v := range ActiveStatuses {
		if v == s {
			return true
		}
	}
	return false
}

type Person struct {
	ID       types.ID `json:"id" gorm:"primary_key"`
	Callsign string   `json:"callsign" gorm:"unique_index"`

	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`

	Status PersonStatus `json:"status"`
	Secret string       `json:"-"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

func (r *Person) TableName() string {
	return "persons"
}

type PersonCreation struct {
	Callsign string `json:"callsign" binding:"required,lte=32"`
	Secret   string `json:"secret" binding:"required,gte=6,lte=32"`

	FirstName string `json:"firstName" binding:"omitempty,lte=32"`
	LastName  string `json:"lastName" binding:"omitempty,lte=32"`
	Email     string `json:"email" binding:"omitempty,email,lte=255"`

	Status PersonStatus `json:"status" binding:"omitempty,oneof=active inactive prospective auditor retired suspended"`
}

type PersonUpdating struct {
	FirstName string `json:"firstName" binding:"omitempty,lte=32"`
	LastName  string `json:"lastName" binding:"omitempty,lte=32"`
	Email     string `json:"email" binding:"omitempty,email,lte=255"`
}

type PersonStatusUpdating struct {
	Status PersonStatus `json:"status" binding:"required,oneof=active inactive prospective auditor retired suspended"`
}

type BasicAuthUpdating struct {
	OriginalSecret string `json:"originalSecret"`
	NewSecret      string `json:"newSecret" binding:"required,gte=6,lte=32"`
}

type PersonQuery struct {
	Status PersonStatus `json:"status" form:"status" binding:"omitempty,oneof=active inactive prospective auditor retired suspended"`
}
