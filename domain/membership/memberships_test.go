package membership_test

import (
	"context"
	"testing"

	"clubhouse/account"
	"clubhouse/auditlog"
	"clubhouse/authority"
	"clubhouse/bizerror"
	"clubhouse/domain"
	"clubhouse/domain/membership"
	"clubhouse/persistence"
	"clubhouse/testinfra"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	. "github.com/onsi/gomega"
)

func setup(t *testing.T, testDatabase **testinfra.TestDatabase) {
	db := testinfra.StartMysqlTestDatabase("clubhouse")
	*testDatabase = db
	Expect(db.DS.GormDB(context.TODO()).AutoMigrate(&account.Person{}, &domain.PersonPosition{},
		&domain.PersonRole{}, &auditlog.ActionLog{}).Error).To(BeNil())

	persistence.ActiveDataSourceManager = db.DS

	Expect(db.DS.GormDB(context.TODO()).Save(&account.Person{ID: 10, Callsign: "Dusty",
		Status: account.StatusActive, CreateTime: types.CurrentTimestamp()}).Error).To(BeNil())
}

func teardown(t *testing.T, testDatabase *testinfra.TestDatabase) {
	if testDatabase != nil {
		testinfra.StopMysqlTestDatabase(testDatabase)
	}
}

func TestReconcile(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should be blocked when session lack of permission", func(t *testing.T) {
		r, err := membership.Reconcile(10, []types.ID{1}, membership.TablePositions,
			testinfra.BuildSecCtx(20, authority.RoleTimesheetManagement))
		Expect(r).To(BeNil())
		Expect(err).To(Equal(bizerror.ErrForbidden))
	})

	t.Run("should reject an unknown membership table", func(t *testing.T) {
		r, err := membership.Reconcile(10, []types.ID{1}, membership.MembershipTable("no-such-table"),
			testinfra.BuildSecCtx(20, authority.RoleAdmin))
		Expect(r).To(BeNil())
		Expect(err).To(Equal(bizerror.ErrInvalidArguments))
	})

	t.Run("should raise record not found error for absent person", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		r, err := membership.Reconcile(404, []types.ID{1}, membership.TablePositions,
			testinfra.BuildSecCtx(20, authority.RoleAdmin))
		Expect(r).To(BeNil())
		Expect(err).To(Equal(gorm.ErrRecordNotFound))
	})

	t.Run("should apply exactly the delta and log it once", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		db := testDatabase.DS.GormDB(context.TODO())
		Expect(db.Save(&domain.PersonPosition{PersonID: 10, PositionID: 2}).Error).To(BeNil())
		Expect(db.Save(&domain.PersonPosition{PersonID: 10, PositionID: 3}).Error).To(BeNil())
		Expect(db.Save(&domain.PersonPosition{PersonID: 10, PositionID: 4}).Error).To(BeNil())

		s := testinfra.BuildSecCtx(20, authority.RoleManage)
		r, err := membership.Reconcile(10, []types.ID{1, 2, 3}, membership.TablePositions, s)
		Expect(err).To(BeNil())
		Expect(r.Added).To(Equal([]types.ID{1}))
		Expect(r.Removed).To(Equal([]types.ID{4}))
		Expect(r.Members).To(ConsistOf(types.ID(1), types.ID(2), types.ID(3)))

		logs, err := auditlog.QueryForPerson(10, auditlog.EventPersonPosition, db)
		Expect(err).To(BeNil())
		Expect(len(logs)).To(Equal(1))
		Expect(logs[0].Payload).To(Equal(auditlog.Payload{
			"add": []interface{}{"1"}, "remove": []interface{}{"4"}}))
		Expect(logs[0].CreatorID).To(Equal(s.Identity.ID))
	})

	t.Run("should not log when the delta is empty", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		db := testDatabase.DS.GormDB(context.TODO())
		s := testinfra.BuildSecCtx(20, authority.RoleManage)
		r, err := membership.Reconcile(10, []types.ID{1, 2, 3}, membership.TablePositions, s)
		Expect(err).To(BeNil())
		Expect(r.Added).To(Equal([]types.ID{1, 2, 3}))

		r, err = membership.Reconcile(10, []types.ID{3, 2, 1}, membership.TablePositions, s)
		Expect(err).To(BeNil())
		Expect(r.Added).To(BeEmpty())
		Expect(r.Removed).To(BeEmpty())
		Expect(r.Members).To(ConsistOf(types.ID(1), types.ID(2), types.ID(3)))

		logs, err := auditlog.QueryForPerson(10, auditlog.EventPersonPosition, db)
		Expect(err).To(BeNil())
		Expect(len(logs)).To(Equal(1))
	})

	t.Run("should tolerate duplicate target ids", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		s := testinfra.BuildSecCtx(20, authority.RoleManage)
		r, err := membership.Reconcile(10, []types.ID{1, 1, 2, 2}, membership.TablePositions, s)
		Expect(err).To(BeNil())
		Expect(r.Added).To(Equal([]types.ID{1, 2}))
		Expect(r.Members).To(ConsistOf(types.ID(1), types.ID(2)))
	})

	t.Run("should run the same reconciliation for the roles table", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		db := testDatabase.DS.GormDB(context.TODO())
		Expect(db.Save(&domain.PersonRole{PersonID: 10, RoleID: 7}).Error).To(BeNil())

		s := testinfra.BuildSecCtx(20, authority.RoleAdmin)
		r, err := membership.Reconcile(10, []types.ID{8}, membership.TableRoles, s)
		Expect(err).To(BeNil())
		Expect(r.Added).To(Equal([]types.ID{8}))
		Expect(r.Removed).To(Equal([]types.ID{7}))
		Expect(r.Members).To(Equal([]types.ID{8}))

		logs, err := auditlog.QueryForPerson(10, auditlog.EventPersonRole, db)
		Expect(err).To(BeNil())
		Expect(len(logs)).To(Equal(1))
		Expect(logs[0].Payload).To(Equal(auditlog.Payload{
			"add": []interface{}{"8"}, "remove": []interface{}{"7"}}))
	})
}
