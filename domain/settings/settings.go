package settings

import (
	"sort"
	"strconv"
	"time"

	"clubhouse/auditlog"
	"clubhouse/bizerror"
	"clubhouse/persistence"
	"clubhouse/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/patrickmn/go-cache"
)

type SettingType string

const (
	TypeBool    = SettingType("bool")
	TypeInteger = SettingType("integer")
	TypeString  = SettingType("string")
)

// Described setting names. Values are stored as strings and parsed per type.
const (
	SignInForceEnabled        = "SignInForceEnabled"
	TimesheetCorrectionEnable = "TimesheetCorrectionEnable"
	TimesheetCorrectionYear   = "TimesheetCorrectionYear"
)

type SettingDescription struct {
	Name        string      `json:"name"`
	Type        SettingType `json:"type"`
	Default     string      `json:"default"`
	Description string      `json:"description"`
}

var descriptions = map[string]SettingDescription{
	SignInForceEnabled: {Name: SignInForceEnabled, Type: TypeBool, Default: "false",
		Description: "allow rejected sign-ins to proceed with a pending review"},
	TimesheetCorrectionEnable: {Name: TimesheetCorrectionEnable, Type: TypeBool, Default: "true",
		Description: "allow people to correct and confirm their timesheets"},
	TimesheetCorrectionYear: {Name: TimesheetCorrectionYear, Type: TypeInteger, Default: "0",
		Description: "the year open for timesheet correction, 0 for the current year"},
}

type Setting struct {
	Name  string `json:"name" gorm:"primary_key" sql:"type:VARCHAR(64) NOT NULL"`
	Value string `json:"value"`

	UpdateTime types.Timestamp `json:"updateTime" sql:"type:DATETIME(6)"`
}

func (r *Setting) TableName() string {
	return "settings"
}

type SettingValue struct {
	SettingDescription
	Value string `json:"value"`
}

type SettingUpdating struct {
	Value string `json:"value" binding:"required,lte=255"`
}

var (
	settingCache = cache.New(5*time.Minute, 1*time.Minute)

	GetSettingFunc    = GetSetting
	UpdateSettingFunc = UpdateSetting
	QuerySettingsFunc = QuerySettings
)

// GetSetting resolves the effective value of a described setting: cached value,
// then stored row, then the described default.
func GetSetting(name string, s *session.Session) (string, error) {
	desc, found := descriptions[name]
	if !found {
		return "", bizerror.ErrUnknownSetting
	}

	if cached, found := settingCache.Get(name); found {
		return cached.(string), nil
	}

	record := Setting{Name: name}
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Where(&record).First(&record).Error
	if err != nil {
		if !gorm.IsRecordNotFoundError(err) {
			return "", err
		}
		record.Value = desc.Default
	}
	settingCache.Set(name, record.Value, cache.DefaultExpiration)
	return record.Value, nil
}

func GetBoolSetting(name string, s *session.Session) (bool, error) {
	value, err := GetSettingFunc(name, s)
	if err != nil {
		return false, err
	}
	return value == "true", nil
}

func GetIntSetting(name string, s *session.Session) (int, error) {
	value, err := GetSettingFunc(name, s)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(value)
}

// UpdateSetting stores a new value and invalidates the cache entry.
func UpdateSetting(name string, u *SettingUpdating, s *session.Session) (*SettingValue, error) {
	if !s.Perms.HasAdminPerm() {
		return nil, bizerror.ErrForbidden
	}
	desc, found := descriptions[name]
	if !found {
		return nil, bizerror.ErrUnknownSetting
	}
	if err := validateValue(desc, u.Value); err != nil {
		return nil, err
	}

	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		old := Setting{Name: name}
		oldValue := desc.Default
		if err := tx.Where(&old).First(&old).Error; err != nil {
			if !gorm.IsRecordNotFoundError(err) {
				return err
			}
		} else {
			oldValue = old.Value
		}

		record := Setting{Name: name, Value: u.Value, UpdateTime: types.CurrentTimestamp()}
		if err := tx.Save(&record).Error; err != nil {
			return err
		}
		if oldValue == u.Value {
			return nil
		}
		return auditlog.Record(auditlog.EventSettingUpdate, "setting "+name+" changed", 0,
			auditlog.Payload{"name": name, "old": oldValue, "new": u.Value}, &s.Identity, tx)
	})
	if err != nil {
		return nil, err
	}

	settingCache.Delete(name)
	return &SettingValue{SettingDescription: desc, Value: u.Value}, nil
}

func QuerySettings(s *session.Session) ([]SettingValue, error) {
	if !s.Perms.HasAdminPerm() {
		return nil, bizerror.ErrForbidden
	}

	values := make([]SettingValue, 0, len(descriptions))
	for name, desc := range descriptions {
		value, err := GetSettingFunc(name, s)
		if err != nil {
			return nil, err
		}
		values = append(values, SettingValue{SettingDescription: desc, Value: value})
	}
	sort.Slice(values, func(i, j int) bool { return values[i].Name < values[j].Name })
	return values, nil
}

func validateValue(desc SettingDescription, value string) error {
	switch desc.Type {
	case TypeBool:
		if value != "true" && value != "false" {
			return bizerror.ErrInvalidArguments
		}
	case TypeInteger:
		if _, err := strconv.Atoi(value); err != nil {
			return bizerror.ErrInvalidArguments
		}
	}
	return nil
}

// FlushSettingCache drops all cached values. Tests rely on it between cases.
func FlushSettingCache() {
	settingCache.Flush()
}
