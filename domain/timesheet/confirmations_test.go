package timesheet_test

import (
	"context"
	"testing"

	"clubhouse/authority"
	"clubhouse/bizerror"
	"clubhouse/domain"
	"clubhouse/domain/timesheet"
	"clubhouse/testinfra"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/gomega"
)

func TestConfirm(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should be blocked when session is neither manager nor the person", func(t *testing.T) {
		info, err := timesheet.Confirm(10, true, testinfra.BuildSecCtx(20, authority.RoleShiftManagement))
		Expect(info).To(BeNil())
		Expect(err).To(Equal(bizerror.ErrForbidden))
	})

	t.Run("should create the event row lazily and log the confirmation", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		s := testinfra.BuildSecCtx(10, "self_10")
		info, err := timesheet.Confirm(10, true, s)
		Expect(err).To(BeNil())
		Expect(info.PersonID).To(Equal(types.ID(10)))
		Expect(info.Confirmed).To(BeTrue())
		Expect(info.ConfirmTime.IsZero()).To(BeFalse())

		db := testDatabase.DS.GormDB(context.TODO())
		logs := []domain.TimesheetLog{}
		Expect(db.Where(&domain.TimesheetLog{PersonID: 10, Year: info.Year}).
			Find(&logs).Error).To(BeNil())
		Expect(len(logs)).To(Equal(1))
		Expect(logs[0].Action).To(Equal(domain.TimesheetLogConfirmed))
		Expect(logs[0].TimesheetID).To(BeZero())
	})

	t.Run("should answer a repeated confirmation without a new log", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		s := testinfra.BuildSecCtx(10, "self_10")
		first, err := timesheet.Confirm(10, true, s)
		Expect(err).To(BeNil())

		second, err := timesheet.Confirm(10, true, s)
		Expect(err).To(BeNil())
		Expect(second.Confirmed).To(BeTrue())
		Expect(second.ConfirmTime).To(Equal(first.ConfirmTime))

		db := testDatabase.DS.GormDB(context.TODO())
		var count int
		Expect(db.Model(&domain.TimesheetLog{}).Where("person_id = ?", 10).
			Count(&count).Error).To(BeNil())
		Expect(count).To(Equal(1))
	})

	t.Run("should drop the flag on request and log the unconfirm", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		s := testinfra.BuildSecCtx(10, "self_10")
		_, err := timesheet.Confirm(10, true, s)
		Expect(err).To(BeNil())

		info, err := timesheet.Confirm(10, false, s)
		Expect(err).To(BeNil())
		Expect(info.Confirmed).To(BeFalse())
		Expect(info.ConfirmTime.IsZero()).To(BeTrue())

		db := testDatabase.DS.GormDB(context.TODO())
		logs := []domain.TimesheetLog{}
		Expect(db.Where(&domain.TimesheetLog{PersonID: 10}).
			Order("create_time ASC").Find(&logs).Error).To(BeNil())
		Expect(len(logs)).To(Equal(2))
		Expect(logs[1].Action).To(Equal(domain.TimesheetLogUnconfirmed))
	})

	t.Run("should not create the event row when unconfirming a blank year", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		s := testinfra.BuildSecCtx(10, "self_10")
		info, err := timesheet.Confirm(10, false, s)
		Expect(err).To(BeNil())
		Expect(info.Confirmed).To(BeFalse())

		db := testDatabase.DS.GormDB(context.TODO())
		var count int
		Expect(db.Model(&domain.PersonEvent{}).Count(&count).Error).To(BeNil())
		Expect(count).To(BeZero())
	})

	t.Run("should drop the flag and log unconfirmed when a timesheet changes", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		s := testinfra.BuildSecCtx(10, "self_10")
		info, err := timesheet.Confirm(10, true, s)
		Expect(err).To(BeNil())
		Expect(info.Confirmed).To(BeTrue())

		_, err = timesheet.SignIn(&timesheet.TimesheetSignIn{PersonID: 10, PositionID: 100}, s)
		Expect(err).To(BeNil())

		after, err := timesheet.ConfirmationInfo(10, s)
		Expect(err).To(BeNil())
		Expect(after.Confirmed).To(BeFalse())

		db := testDatabase.DS.GormDB(context.TODO())
		logs := []domain.TimesheetLog{}
		Expect(db.Where("person_id = ? AND timesheet_id = 0", 10).
			Order("create_time ASC").Find(&logs).Error).To(BeNil())
		Expect(len(logs)).To(Equal(2))
		Expect(logs[1].Action).To(Equal(domain.TimesheetLogUnconfirmed))
		Expect(logs[1].Payload["reason"]).To(Equal("new entry - signed in"))
	})
}

func TestConfirmationInfo(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should be blocked without person view permission", func(t *testing.T) {
		info, err := timesheet.ConfirmationInfo(10, testinfra.BuildSecCtx(20, "self_20"))
		Expect(info).To(BeNil())
		Expect(err).To(Equal(bizerror.ErrForbidden))
	})

	t.Run("should answer unconfirmed without creating the event row", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		s := testinfra.BuildSecCtx(10, "self_10")
		info, err := timesheet.ConfirmationInfo(10, s)
		Expect(err).To(BeNil())
		Expect(info.Confirmed).To(BeFalse())
		Expect(info.ConfirmTime.IsZero()).To(BeTrue())

		db := testDatabase.DS.GormDB(context.TODO())
		var count int
		Expect(db.Model(&domain.PersonEvent{}).Count(&count).Error).To(BeNil())
		Expect(count).To(BeZero())
	})
}
