package auditlog

import (
	"clubhouse/common"
	"clubhouse/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	actionLogIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	PersistActionLogFunc = persistActionLog
)

// Record appends an immutable action log entry within the caller's transaction.
func Record(event, message string, personId types.ID, payload Payload, identity *session.Identity, tx *gorm.DB) error {
	record := ActionLog{
		ID:       common.NextId(actionLogIdWorker),
		Event:    event,
		Message:  message,
		PersonID: personId,

		CreatorID:       identity.ID,
		CreatorCallsign: identity.Callsign,

		Payload:   payload,
		Timestamp: types.CurrentTimestamp(),
	}
	return PersistActionLogFunc(&record, tx)
}

func persistActionLog(record *ActionLog, tx *gorm.DB) error {
	return tx.Create(record).Error
}

func QueryForPerson(personId types.ID, event string, tx *gorm.DB) ([]ActionLog, error) {
	q := tx.Where(&ActionLog{PersonID: personId})
	if event != "" {
		q = q.Where("event = ?", event)
	}
	var records []ActionLog
	if err := q.Order("timestamp ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
