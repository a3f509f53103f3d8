package asset

import (
	"fmt"
	"time"

	"clubhouse/account"
	"clubhouse/authority"
	"clubhouse/bizerror"
	"clubhouse/common"
	"clubhouse/persistence"
	"clubhouse/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

// AssetCheckout records one possession interval of an asset.
type AssetCheckout struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	AssetID  types.ID `json:"assetId" gorm:"unique_index:uni_asset_open" sql:"type:BIGINT UNSIGNED NOT NULL"`
	PersonID types.ID `json:"personId"`

	CheckedOut types.Timestamp `json:"checkedOut" sql:"type:DATETIME(6) NOT NULL"`
	CheckedIn  types.Timestamp `json:"checkedIn" sql:"type:DATETIME(6)"`

	// CheckedOutOpen is 1 while the asset is out and NULL after checkin, so
	// the unique key (asset_id, checked_out_open) admits at most one open row.
	CheckedOutOpen *int8 `json:"-" gorm:"unique_index:uni_asset_open"`
}

func (r *AssetCheckout) TableName() string {
	return "asset_checkouts"
}

const (
	CheckoutStatusSuccess    = "success"
	CheckoutStatusNotFound   = "not-found"
	CheckoutStatusCheckedOut = "checked-out"
)

type AssetCheckoutRequest struct {
	Barcode  string   `json:"barcode" binding:"required"`
	PersonID types.ID `json:"personId" binding:"required"`
	Year     int      `json:"year"`
}

// CheckoutResult reports the not-found and checked-out conflicts as statuses.
// On a conflict it carries the current holder.
type CheckoutResult struct {
	Status string `json:"status"`

	AssetID    types.ID        `json:"assetId,omitempty"`
	PersonID   types.ID        `json:"personId,omitempty"`
	Callsign   string          `json:"callsign,omitempty"`
	CheckedOut types.Timestamp `json:"checkedOut,omitempty"`
	CheckedIn  types.Timestamp `json:"checkedIn,omitempty"`
}

// CheckoutHistoryEntry joins the holder's callsign onto the checkout row.
type CheckoutHistoryEntry struct {
	AssetCheckout
	Callsign string `json:"callsign"`
}

var (
	checkoutIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CheckOutFunc        = CheckOut
	CheckInFunc         = CheckIn
	CheckoutHistoryFunc = CheckoutHistory
)

// CheckOut hands the asset of the barcode and year to a person. The year
// defaults to the current one since barcodes are reissued yearly.
func CheckOut(c *AssetCheckoutRequest, s *session.Session) (*CheckoutResult, error) {
	if !s.Perms.HasShiftManagePerm() {
		return nil, bizerror.ErrForbidden
	}

	year := c.Year
	if year == 0 {
		year = time.Now().Year()
	}

	result := CheckoutResult{}
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		record := Asset{}
		err := tx.Where("barcode = ? AND year = ?", c.Barcode, year).First(&record).Error
		if err != nil {
			if gorm.IsRecordNotFoundError(err) {
				result = CheckoutResult{Status: CheckoutStatusNotFound}
				return nil
			}
			return err
		}

		holder, err := findOpenCheckout(tx, record.ID)
		if err != nil {
			return err
		}
		if holder != nil {
			result = CheckoutResult{Status: CheckoutStatusCheckedOut, AssetID: record.ID,
				PersonID: holder.PersonID, Callsign: holderCallsign(tx, holder.PersonID),
				CheckedOut: holder.CheckedOut}
			return nil
		}

		open1 := int8(1)
		row := AssetCheckout{ID: common.NextId(checkoutIdWorker), AssetID: record.ID,
			PersonID: c.PersonID, CheckedOut: types.CurrentTimestamp(), CheckedOutOpen: &open1}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		result = CheckoutResult{Status: CheckoutStatusSuccess, AssetID: record.ID,
			PersonID: row.PersonID, CheckedOut: row.CheckedOut}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// CheckIn closes the open checkout row of the asset.
func CheckIn(assetId types.ID, s *session.Session) (*CheckoutResult, error) {
	if !s.Perms.HasShiftManagePerm() {
		return nil, bizerror.ErrForbidden
	}

	result := CheckoutResult{}
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		holder, err := findOpenCheckout(tx, assetId)
		if err != nil {
			return err
		}
		if holder == nil {
			return bizerror.ErrNotCheckedOut
		}

		checkedIn := types.CurrentTimestamp()
		err = tx.Model(&AssetCheckout{}).Where("id = ?", holder.ID).
			Update(map[string]interface{}{"checked_in": checkedIn, "checked_out_open": nil}).Error
		if err != nil {
			return err
		}
		result = CheckoutResult{Status: CheckoutStatusSuccess, AssetID: assetId,
			PersonID: holder.PersonID, CheckedOut: holder.CheckedOut, CheckedIn: checkedIn}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// CheckoutHistory lists all possession intervals of the asset.
func CheckoutHistory(assetId types.ID, s *session.Session) ([]CheckoutHistoryEntry, error) {
	if !s.Perms.HasAnyRole(authority.RoleAdmin, authority.RoleManage,
		authority.RoleTimesheetManagement, authority.RoleShiftManagement) {
		return nil, bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	rows := []AssetCheckout{}
	err := db.Where("asset_id = ?", assetId).Order("checked_out ASC").Find(&rows).Error
	if err != nil {
		return nil, err
	}

	history := make([]CheckoutHistoryEntry, 0, len(rows))
	for _, row := range rows {
		history = append(history, CheckoutHistoryEntry{AssetCheckout: row,
			Callsign: holderCallsign(db, row.PersonID)})
	}
	return history, nil
}

func findOpenCheckout(tx *gorm.DB, assetId types.ID) (*AssetCheckout, error) {
	row := AssetCheckout{}
	err := tx.Where("asset_id = ? AND checked_out_open = 1", assetId).First(&row).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// holderCallsign tolerates deleted persons in old checkout rows.
func holderCallsign(tx *gorm.DB, personId types.ID) string {
	person := account.Person{ID: personId}
	if err := tx.Where(&person).First(&person).Error; err != nil {
		return fmt.Sprintf("Deleted #%s", personId.String())
	}
	return person.Callsign
}
