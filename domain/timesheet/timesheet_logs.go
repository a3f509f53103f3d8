package timesheet

import (
	"sort"

	"clubhouse/bizerror"
	"clubhouse/common"
	"clubhouse/domain"
	"clubhouse/persistence"
	"clubhouse/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	timesheetLogIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	RecordTimesheetLogFunc = recordTimesheetLog
	ListLogsFunc           = ListLogs
)

// recordTimesheetLog appends a log entry within the caller's transaction.
// timesheetId is zero for person level entries.
func recordTimesheetLog(timesheetId, personId types.ID, year int, action string,
	payload domain.TimesheetLogPayload, identity *session.Identity, tx *gorm.DB) error {
	record := domain.TimesheetLog{
		ID: common.NextId(timesheetLogIdWorker),

		TimesheetID: timesheetId,
		PersonID:    personId,
		Year:        year,

		Action:  action,
		Payload: payload,

		CreatorID:       identity.ID,
		CreatorCallsign: identity.Callsign,

		CreateTime: types.CurrentTimestamp(),
	}
	return tx.Create(&record).Error
}

// TimesheetSnapshot is the minimal view of an entry shown beside its logs.
// Deleted entries are reconstructed from their delete payload.
type TimesheetSnapshot struct {
	PositionID types.ID `json:"positionId"`
	OnDuty     string   `json:"onDuty"`
	OffDuty    string   `json:"offDuty"`
}

type TimesheetLogGroup struct {
	TimesheetID types.ID `json:"timesheetId"`

	Timesheet *TimesheetSnapshot `json:"timesheet,omitempty"`
	Deleted   bool               `json:"deleted,omitempty"`

	Logs []domain.TimesheetLog `json:"logs"`
}

type TimesheetLogBook struct {
	Logs      []TimesheetLogGroup   `json:"logs"`
	OtherLogs []domain.TimesheetLog `json:"otherLogs"`
}

// ListLogs returns the person's logs of a year grouped per timesheet entry,
// with person level logs listed separately.
func ListLogs(personId types.ID, year int, s *session.Session) (*TimesheetLogBook, error) {
	if !s.Perms.HasPersonViewPerm(personId) {
		return nil, bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	var records []domain.TimesheetLog
	if err := db.Where(&domain.TimesheetLog{PersonID: personId, Year: year}).
		Order("create_time ASC").Find(&records).Error; err != nil {
		return nil, err
	}

	book := TimesheetLogBook{Logs: []TimesheetLogGroup{}, OtherLogs: []domain.TimesheetLog{}}
	groups := map[types.ID]*TimesheetLogGroup{}
	order := []types.ID{}

	for _, record := range records {
		if record.TimesheetID == 0 {
			book.OtherLogs = append(book.OtherLogs, record)
			continue
		}

		group, found := groups[record.TimesheetID]
		if !found {
			group = &TimesheetLogGroup{TimesheetID: record.TimesheetID, Logs: []domain.TimesheetLog{}}
			entry := domain.Timesheet{ID: record.TimesheetID}
			err := db.Where(&entry).First(&entry).Error
			if err == nil {
				group.Timesheet = &TimesheetSnapshot{PositionID: entry.PositionID,
					OnDuty: entry.OnDuty.String(), OffDuty: entry.OffDuty.String()}
			} else if !gorm.IsRecordNotFoundError(err) {
				return nil, err
			}
			groups[record.TimesheetID] = group
			order = append(order, record.TimesheetID)
		}

		if record.Action == domain.TimesheetLogDelete {
			group.Timesheet = snapshotFromPayload(record.Payload)
			group.Deleted = true
		}
		group.Logs = append(group.Logs, record)
	}

	for _, id := range order {
		book.Logs = append(book.Logs, *groups[id])
	}
	sort.SliceStable(book.Logs, func(i, j int) bool {
		return snapshotOnDuty(book.Logs[i].Timesheet) < snapshotOnDuty(book.Logs[j].Timesheet)
	})
	return &book, nil
}

func snapshotFromPayload(payload domain.TimesheetLogPayload) *TimesheetSnapshot {
	snapshot := TimesheetSnapshot{}
	if v, ok := payload["position_id"].(string); ok {
		if id, err := types.ParseID(v); err == nil {
			snapshot.PositionID = id
		}
	}
	if v, ok := payload["on_duty"].(string); ok {
		snapshot.OnDuty = v
	}
	if v, ok := payload["off_duty"].(string); ok {
		snapshot.OffDuty = v
	}
	return &snapshot
}

func snapshotOnDuty(snapshot *TimesheetSnapshot) string {
	if snapshot == nil {
		return "2099-01-01"
	}
	return snapshot.OnDuty
}
