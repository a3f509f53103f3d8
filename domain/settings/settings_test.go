package settings_test

import (
	"context"
	"testing"

	"clubhouse/auditlog"
	"clubhouse/authority"
	"clubhouse/bizerror"
	"clubhouse/domain/settings"
	"clubhouse/persistence"
	"clubhouse/testinfra"

	. "github.com/onsi/gomega"
)

func setup(t *testing.T, testDatabase **testinfra.TestDatabase) {
	db := testinfra.StartMysqlTestDatabase("clubhouse")
	*testDatabase = db
	Expect(db.DS.GormDB(context.TODO()).AutoMigrate(&settings.Setting{}, &auditlog.ActionLog{}).Error).To(BeNil())

	persistence.ActiveDataSourceManager = db.DS
	settings.FlushSettingCache()
}

func teardown(t *testing.T, testDatabase *testinfra.TestDatabase) {
	settings.FlushSettingCache()
	if testDatabase != nil {
		testinfra.StopMysqlTestDatabase(testDatabase)
	}
}

func TestGetSetting(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should reject unknown setting names", func(t *testing.T) {
		s := testinfra.BuildSecCtx(10, authority.RoleAdmin)
		_, err := settings.GetSetting("NoSuchSetting", s)
		Expect(err).To(Equal(bizerror.ErrUnknownSetting))
	})

	t.Run("should fall back to the described default", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		s := testinfra.BuildSecCtx(10, authority.RoleAdmin)
		value, err := settings.GetSetting(settings.SignInForceEnabled, s)
		Expect(err).To(BeNil())
		Expect(value).To(Equal("false"))

		enabled, err := settings.GetBoolSetting(settings.TimesheetCorrectionEnable, s)
		Expect(err).To(BeNil())
		Expect(enabled).To(BeTrue())

		year, err := settings.GetIntSetting(settings.TimesheetCorrectionYear, s)
		Expect(err).To(BeNil())
		Expect(year).To(BeZero())
	})

	t.Run("should serve cached value until invalidated by update", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		s := testinfra.BuildSecCtx(10, authority.RoleAdmin)
		value, err := settings.GetSetting(settings.SignInForceEnabled, s)
		Expect(err).To(BeNil())
		Expect(value).To(Equal("false"))

		// a raw row change is invisible while the cache entry lives
		db := testDatabase.DS.GormDB(context.TODO())
		Expect(db.Save(&settings.Setting{Name: settings.SignInForceEnabled, Value: "true"}).Error).To(BeNil())
		value, err = settings.GetSetting(settings.SignInForceEnabled, s)
		Expect(err).To(BeNil())
		Expect(value).To(Equal("false"))

		// update invalidates and the next read hits storage
		_, err = settings.UpdateSetting(settings.SignInForceEnabled,
			&settings.SettingUpdating{Value: "true"}, s)
		Expect(err).To(BeNil())
		value, err = settings.GetSetting(settings.SignInForceEnabled, s)
		Expect(err).To(BeNil())
		Expect(value).To(Equal("true"))
	})
}

func TestUpdateSetting(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should be blocked when session lack of permission", func(t *testing.T) {
		s := testinfra.BuildSecCtx(10, authority.RoleManage)
		v, err := settings.UpdateSetting(settings.SignInForceEnabled, &settings.SettingUpdating{Value: "true"}, s)
		Expect(v).To(BeNil())
		Expect(err).To(Equal(bizerror.ErrForbidden))
	})

	t.Run("should validate value against the described type", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		s := testinfra.BuildSecCtx(10, authority.RoleAdmin)
		_, err := settings.UpdateSetting(settings.SignInForceEnabled, &settings.SettingUpdating{Value: "yes"}, s)
		Expect(err).To(Equal(bizerror.ErrInvalidArguments))

		_, err = settings.UpdateSetting(settings.TimesheetCorrectionYear, &settings.SettingUpdating{Value: "20x1"}, s)
		Expect(err).To(Equal(bizerror.ErrInvalidArguments))

		_, err = settings.UpdateSetting("NoSuchSetting", &settings.SettingUpdating{Value: "1"}, s)
		Expect(err).To(Equal(bizerror.ErrUnknownSetting))
	})

	t.Run("should store value and log the change", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		s := testinfra.BuildSecCtx(10, authority.RoleAdmin)
		v, err := settings.UpdateSetting(settings.TimesheetCorrectionYear, &settings.SettingUpdating{Value: "2021"}, s)
		Expect(err).To(BeNil())
		Expect(v.Value).To(Equal("2021"))
		Expect(v.Type).To(Equal(settings.TypeInteger))

		logs, err := auditlog.QueryForPerson(0, auditlog.EventSettingUpdate,
			testDatabase.DS.GormDB(context.TODO()))
		Expect(err).To(BeNil())
		Expect(len(logs)).To(Equal(1))
		Expect(logs[0].Payload).To(Equal(auditlog.Payload{
			"name": settings.TimesheetCorrectionYear, "old": "0", "new": "2021"}))

		// idempotent update is not logged again
		_, err = settings.UpdateSetting(settings.TimesheetCorrectionYear, &settings.SettingUpdating{Value: "2021"}, s)
		Expect(err).To(BeNil())
		logs, err = auditlog.QueryForPerson(0, auditlog.EventSettingUpdate,
			testDatabase.DS.GormDB(context.TODO()))
		Expect(err).To(BeNil())
		Expect(len(logs)).To(Equal(1))
	})
}

func TestQuerySettings(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should list described settings with effective values", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		s := testinfra.BuildSecCtx(10, authority.RoleAdmin)
		_, err := settings.UpdateSetting(settings.SignInForceEnabled, &settings.SettingUpdating{Value: "true"}, s)
		Expect(err).To(BeNil())

		values, err := settings.QuerySettings(s)
		Expect(err).To(BeNil())
		Expect(len(values)).To(Equal(3))
		Expect(values[0].Name).To(Equal(settings.SignInForceEnabled))
		Expect(values[0].Value).To(Equal("true"))
		Expect(values[1].Name).To(Equal(settings.TimesheetCorrectionEnable))
		Expect(values[1].Value).To(Equal("true"))
		Expect(values[2].Name).To(Equal(settings.TimesheetCorrectionYear))
		Expect(values[2].Value).To(Equal("0"))
	})
}
