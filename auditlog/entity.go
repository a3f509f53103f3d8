package auditlog

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/fundwit/go-commons/types"
)

const (
	EventPersonPosition = "person-position"
	EventPersonRole     = "person-role"
	EventPersonStatus   = "person-status"
	EventSettingUpdate  = "setting-update"
)

// Payload is the opaque detail of an action, stored as a JSON column.
type Payload map[string]interface{}

type ActionLog struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	Event    string   `json:"event"`
	Message  string   `json:"message"`
	PersonID types.ID `json:"personId"`

	CreatorID       types.ID `json:"creatorId"`
	CreatorCallsign string   `json:"creatorCallsign"`

	Payload Payload `json:"payload" sql:"type:TEXT"`

	Timestamp types.Timestamp `json:"timestamp" sql:"type:DATETIME(6)"`
}

func (r *ActionLog) TableName() string {
	return "action_logs"
}

func (t Payload) Value() (driver.Value, error) {
	jsonBytes, err := json.Marshal(&t)
	if err != nil {
		return nil, err
	}
	return string(jsonBytes), nil
}

func (t *Payload) Scan(v interface{}) error {
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
