package asset_test

import (
	"context"
	"testing"
	"time"

	"clubhouse/account"
	"clubhouse/authority"
	"clubhouse/bizerror"
	"clubhouse/domain/asset"
	"clubhouse/persistence"
	"clubhouse/testinfra"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/gomega"
)

func setup(t *testing.T, testDatabase **testinfra.TestDatabase) {
	db := testinfra.StartMysqlTestDatabase("clubhouse")
	*testDatabase = db
	Expect(db.DS.GormDB(context.TODO()).AutoMigrate(&account.Person{},
		&asset.Asset{}, &asset.AssetCheckout{}).Error).To(BeNil())

	persistence.ActiveDataSourceManager = db.DS

	Expect(db.DS.GormDB(context.TODO()).Save(&account.Person{ID: 10, Callsign: "Dusty",
		Status: account.StatusActive, CreateTime: types.CurrentTimestamp()}).Error).To(BeNil())
}

func teardown(t *testing.T, testDatabase *testinfra.TestDatabase) {
	if testDatabase != nil {
		testinfra.StopMysqlTestDatabase(testDatabase)
	}
}

func TestCreateAsset(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should be blocked without manage permission", func(t *testing.T) {
		r, err := asset.CreateAsset(&asset.AssetCreation{Barcode: "R-1", Year: 2026, Type: "radio"},
			testinfra.BuildSecCtx(20, authority.RoleShiftManagement))
		Expect(r).To(BeNil())
		Expect(err).To(Equal(bizerror.ErrForbidden))
	})

	t.Run("should create an asset record", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		r, err := asset.CreateAsset(&asset.AssetCreation{Barcode: "R-1", Year: 2026,
			Type: "radio", Description: "handheld"}, testinfra.BuildSecCtx(20, authority.RoleManage))
		Expect(err).To(BeNil())
		Expect(r.ID).NotTo(BeZero())
		Expect(r.Barcode).To(Equal("R-1"))
		Expect(r.Year).To(Equal(2026))
		Expect(r.Type).To(Equal("radio"))
	})

	t.Run("should reject a duplicated barcode within the same year", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		s := testinfra.BuildSecCtx(20, authority.RoleManage)
		_, err := asset.CreateAsset(&asset.AssetCreation{Barcode: "R-1", Year: 2026, Type: "radio"}, s)
		Expect(err).To(BeNil())
		_, err = asset.CreateAsset(&asset.AssetCreation{Barcode: "R-1", Year: 2026, Type: "radio"}, s)
		Expect(err).NotTo(BeNil())

		_, err = asset.CreateAsset(&asset.AssetCreation{Barcode: "R-1", Year: 2027, Type: "radio"}, s)
		Expect(err).To(BeNil())
	})
}

func TestQueryAssets(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should filter by barcode, year and type", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		s := testinfra.BuildSecCtx(20, authority.RoleManage)
		_, err := asset.CreateAsset(&asset.AssetCreation{Barcode: "R-1", Year: 2026, Type: "radio"}, s)
		Expect(err).To(BeNil())
		_, err = asset.CreateAsset(&asset.AssetCreation{Barcode: "V-1", Year: 2026, Type: "vest"}, s)
		Expect(err).To(BeNil())
		_, err = asset.CreateAsset(&asset.AssetCreation{Barcode: "R-1", Year: 2025, Type: "radio"}, s)
		Expect(err).To(BeNil())

		records, err := asset.QueryAssets(asset.AssetQuery{Year: 2026}, s)
		Expect(err).To(BeNil())
		Expect(len(records)).To(Equal(2))

		records, err = asset.QueryAssets(asset.AssetQuery{Type: "radio"}, s)
		Expect(err).To(BeNil())
		Expect(len(records)).To(Equal(2))

		records, err = asset.QueryAssets(asset.AssetQuery{Exclude: "radio"}, s)
		Expect(err).To(BeNil())
		Expect(len(records)).To(Equal(1))
		Expect(records[0].Barcode).To(Equal("V-1"))

		records, err = asset.QueryAssets(asset.AssetQuery{Barcode: "R-1", Year: 2025}, s)
		Expect(err).To(BeNil())
		Expect(len(records)).To(Equal(1))
	})

	t.Run("should find only outstanding assets when asked", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		s := testinfra.BuildSecCtx(20, authority.RoleManage, authority.RoleShiftManagement)
		out, err := asset.CreateAsset(&asset.AssetCreation{Barcode: "R-1", Year: time.Now().Year(), Type: "radio"}, s)
		Expect(err).To(BeNil())
		_, err = asset.CreateAsset(&asset.AssetCreation{Barcode: "R-2", Year: time.Now().Year(), Type: "radio"}, s)
		Expect(err).To(BeNil())

		_, err = asset.CheckOut(&asset.AssetCheckoutRequest{Barcode: "R-1", PersonID: 10}, s)
		Expect(err).To(BeNil())

		records, err := asset.QueryAssets(asset.AssetQuery{CheckedOut: true}, s)
		Expect(err).To(BeNil())
		Expect(len(records)).To(Equal(1))
		Expect(records[0].ID).To(Equal(out.ID))
	})
}

func TestCheckOut(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should be blocked without shift management permission", func(t *testing.T) {
		r, err := asset.CheckOut(&asset.AssetCheckoutRequest{Barcode: "R-1", PersonID: 10},
			testinfra.BuildSecCtx(20, authority.RoleManage))
		Expect(r).To(BeNil())
		Expect(err).To(Equal(bizerror.ErrForbidden))
	})

	t.Run("should answer not-found for an unknown barcode", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		s := testinfra.BuildSecCtx(20, authority.RoleShiftManagement)
		r, err := asset.CheckOut(&asset.AssetCheckoutRequest{Barcode: "nope", PersonID: 10}, s)
		Expect(err).To(BeNil())
		Expect(r.Status).To(Equal(asset.CheckoutStatusNotFound))
	})

	t.Run("should hand the asset out and answer checked-out with the holder afterwards", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		manager := testinfra.BuildSecCtx(20, authority.RoleManage, authority.RoleShiftManagement)
		created, err := asset.CreateAsset(&asset.AssetCreation{Barcode: "R-1",
			Year: time.Now().Year(), Type: "radio"}, manager)
		Expect(err).To(BeNil())

		r, err := asset.CheckOut(&asset.AssetCheckoutRequest{Barcode: "R-1", PersonID: 10}, manager)
		Expect(err).To(BeNil())
		Expect(r.Status).To(Equal(asset.CheckoutStatusSuccess))
		Expect(r.AssetID).To(Equal(created.ID))
		Expect(r.CheckedOut.IsZero()).To(BeFalse())

		again, err := asset.CheckOut(&asset.AssetCheckoutRequest{Barcode: "R-1", PersonID: 11}, manager)
		Expect(err).To(BeNil())
		Expect(again.Status).To(Equal(asset.CheckoutStatusCheckedOut))
		Expect(again.PersonID).To(Equal(types.ID(10)))
		Expect(again.Callsign).To(Equal("Dusty"))
	})

	t.Run("should name a deleted holder by id", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		manager := testinfra.BuildSecCtx(20, authority.RoleManage, authority.RoleShiftManagement)
		_, err := asset.CreateAsset(&asset.AssetCreation{Barcode: "R-1",
			Year: time.Now().Year(), Type: "radio"}, manager)
		Expect(err).To(BeNil())
		_, err = asset.CheckOut(&asset.AssetCheckoutRequest{Barcode: "R-1", PersonID: 999}, manager)
		Expect(err).To(BeNil())

		again, err := asset.CheckOut(&asset.AssetCheckoutRequest{Barcode: "R-1", PersonID: 10}, manager)
		Expect(err).To(BeNil())
		Expect(again.Status).To(Equal(asset.CheckoutStatusCheckedOut))
		Expect(again.Callsign).To(Equal("Deleted #999"))
	})
}

func TestCheckIn(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should raise not checked out error for an idle asset", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		manager := testinfra.BuildSecCtx(20, authority.RoleManage, authority.RoleShiftManagement)
		created, err := asset.CreateAsset(&asset.AssetCreation{Barcode: "R-1",
			Year: time.Now().Year(), Type: "radio"}, manager)
		Expect(err).To(BeNil())

		_, err = asset.CheckIn(created.ID, manager)
		Expect(err).To(Equal(bizerror.ErrNotCheckedOut))
	})

	t.Run("should close the open row and allow another checkout", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		manager := testinfra.BuildSecCtx(20, authority.RoleManage, authority.RoleShiftManagement)
		created, err := asset.CreateAsset(&asset.AssetCreation{Barcode: "R-1",
			Year: time.Now().Year(), Type: "radio"}, manager)
		Expect(err).To(BeNil())
		_, err = asset.CheckOut(&asset.AssetCheckoutRequest{Barcode: "R-1", PersonID: 10}, manager)
		Expect(err).To(BeNil())

		r, err := asset.CheckIn(created.ID, manager)
		Expect(err).To(BeNil())
		Expect(r.Status).To(Equal(asset.CheckoutStatusSuccess))
		Expect(r.CheckedIn.IsZero()).To(BeFalse())

		next, err := asset.CheckOut(&asset.AssetCheckoutRequest{Barcode: "R-1", PersonID: 10}, manager)
		Expect(err).To(BeNil())
		Expect(next.Status).To(Equal(asset.CheckoutStatusSuccess))
	})
}

func TestCheckoutHistory(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should list possession intervals in order with callsigns", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		manager := testinfra.BuildSecCtx(20, authority.RoleManage, authority.RoleShiftManagement)
		created, err := asset.CreateAsset(&asset.AssetCreation{Barcode: "R-1",
			Year: time.Now().Year(), Type: "radio"}, manager)
		Expect(err).To(BeNil())

		_, err = asset.CheckOut(&asset.AssetCheckoutRequest{Barcode: "R-1", PersonID: 10}, manager)
		Expect(err).To(BeNil())
		_, err = asset.CheckIn(created.ID, manager)
		Expect(err).To(BeNil())
		_, err = asset.CheckOut(&asset.AssetCheckoutRequest{Barcode: "R-1", PersonID: 999}, manager)
		Expect(err).To(BeNil())

		history, err := asset.CheckoutHistory(created.ID, manager)
		Expect(err).To(BeNil())
		Expect(len(history)).To(Equal(2))
		Expect(history[0].Callsign).To(Equal("Dusty"))
		Expect(history[0].CheckedIn.IsZero()).To(BeFalse())
		Expect(history[1].Callsign).To(Equal("Deleted #999"))
		Expect(history[1].CheckedIn.IsZero()).To(BeTrue())
	})
}
