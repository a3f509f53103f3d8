package account

import (
	"context"
	"errors"
	"os"

	"clubhouse/authority"
	"clubhouse/domain"
	"clubhouse/persistence"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	adminRole = domain.Role{ID: 1, Title: authority.RoleAdmin}
)

var (
	LoadPermFunc = loadPerms
)

func LoadPermFuncReset() {
	LoadPermFunc = loadPerms
}

// DefaultSecurityConfiguration seeds the admin role and the initial admin account.
func DefaultSecurityConfiguration() error {
	db := persistence.ActiveDataSourceManager.GormDB(context.Background())
	if err := db.Save(&adminRole).Error; err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		admin := Person{}
		err := tx.Model(&Person{}).Where(&Person{ID: 1}).First(&admin).Error
		if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
			initialAdminPassword := os.ExpandEnv("${INITIAL_ADMIN_PASSWORD}")
			if initialAdminPassword == "" {
				initialAdminPassword = "admin123"
			}
			secret, err := HashSecret(initialAdminPassword)
			if err != nil {
				return err
			}
			if err := tx.Save(&Person{ID: 1, Callsign: "admin", Status: StatusActive,
				Secret: secret, CreateTime: types.CurrentTimestamp()}).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		return tx.Save(&domain.PersonRole{PersonID: 1, RoleID: adminRole.ID}).Error
	})
}

// loadPerms resolves the permission strings of a person: the titles of the granted
// roles plus the self marker.
func loadPerms(uid types.ID, ctx context.Context) authority.Permissions {
	db := persistence.ActiveDataSourceManager.GormDB(ctx)

	var roleIds []types.ID
	if err := db.Model(&domain.PersonRole{}).Where(&domain.PersonRole{PersonID: uid}).
		Pluck("role_id", &roleIds).Error; err != nil {
		panic(err)
	}

	perms := authority.Permissions{}
	if len(roleIds) > 0 {
		var titles []string
		if err := db.Model(&domain.Role{}).Where("id IN (?)", roleIds).
			Pluck("title", &titles).Error; err != nil {
			panic(err)
		}
		perms = append(perms, titles...)
	}
	perms = append(perms, authority.SelfPermPrefix+uid.String())
	return perms
}
