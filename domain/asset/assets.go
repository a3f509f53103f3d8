package asset

import (
	"clubhouse/authority"
	"clubhouse/bizerror"
	"clubhouse/common"
	"clubhouse/persistence"
	"clubhouse/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

// Asset is a piece of checkable equipment like a radio. Barcodes are reissued
// every year, so the barcode is only unique within its year.
type Asset struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	Barcode string `json:"barcode" gorm:"unique_index:uni_barcode_year"`
	Year    int    `json:"year" gorm:"unique_index:uni_barcode_year"`
	Type    string `json:"type"`

	Description string `json:"description"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

func (r *Asset) TableName() string {
	return "assets"
}

type AssetCreation struct {
	Barcode string `json:"barcode" binding:"required"`
	Year    int    `json:"year" binding:"required"`
	Type    string `json:"type" binding:"required"`

	Description string `json:"description"`
}

type AssetUpdating struct {
	Type        string `json:"type" binding:"required"`
	Description string `json:"description"`
}

type AssetQuery struct {
	Barcode    string `json:"barcode" form:"barcode"`
	Year       int    `json:"year" form:"year"`
	Type       string `json:"type" form:"type"`
	Exclude    string `json:"exclude" form:"exclude"`
	CheckedOut bool   `json:"checkedOut" form:"checkedOut"`
}

var (
	assetIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateAssetFunc = CreateAsset
	QueryAssetsFunc = QueryAssets
	DetailAssetFunc = DetailAsset
	UpdateAssetFunc = UpdateAsset
	DeleteAssetFunc = DeleteAsset
)

func CreateAsset(c *AssetCreation, s *session.Session) (*Asset, error) {
	if !s.Perms.HasAnyRole(authority.RoleAdmin, authority.RoleManage) {
		return nil, bizerror.ErrForbidden
	}

	record := Asset{ID: common.NextId(assetIdWorker), Barcode: c.Barcode, Year: c.Year,
		Type: c.Type, Description: c.Description, CreateTime: types.CurrentTimestamp()}
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if err := db.Create(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func QueryAssets(q AssetQuery, s *session.Session) ([]Asset, error) {
	if !s.Perms.HasAnyRole(authority.RoleAdmin, authority.RoleManage,
		authority.RoleTimesheetManagement, authority.RoleShiftManagement) {
		return nil, bizerror.ErrForbidden
	}

	records := []Asset{}
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	query := db.Model(&Asset{})
	if q.Barcode != "" {
		query = query.Where("barcode = ?", q.Barcode)
	}
	if q.Year != 0 {
		query = query.Where("year = ?", q.Year)
	}
	if q.Type != "" {
		query = query.Where("type = ?", q.Type)
	}
	if q.Exclude != "" {
		query = query.Where("type <> ?", q.Exclude)
	}
	if q.CheckedOut {
		query = query.Where("id IN (SELECT asset_id FROM asset_checkouts WHERE checked_out_open = 1)")
	}
	if err := query.Order("barcode ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func DetailAsset(id types.ID, s *session.Session) (*Asset, error) {
	if !s.Perms.HasAnyRole(authority.RoleAdmin, authority.RoleManage,
		authority.RoleTimesheetManagement, authority.RoleShiftManagement) {
		return nil, bizerror.ErrForbidden
	}

	record := Asset{ID: id}
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if err := db.Where(&record).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func UpdateAsset(id types.ID, u *AssetUpdating, s *session.Session) (*Asset, error) {
	if !s.Perms.HasAnyRole(authority.RoleAdmin, authority.RoleManage) {
		return nil, bizerror.ErrForbidden
	}

	record := Asset{}
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Asset{ID: id}).
			Update(map[string]interface{}{"type": u.Type, "description": u.Description}).Error; err != nil {
			return err
		}
		return tx.Where(&Asset{ID: id}).First(&record).Error
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// DeleteAsset removes the asset together with its checkout rows.
func DeleteAsset(id types.ID, s *session.Session) error {
	if !s.Perms.HasAnyRole(authority.RoleAdmin, authority.RoleManage) {
		return bizerror.ErrForbidden
	}

	return persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(Asset{}, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(AssetCheckout{}, "asset_id = ?", id).Error
	})
}
