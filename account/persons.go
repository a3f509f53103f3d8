package account

import (
	"clubhouse/auditlog"
	"clubhouse/authority"
	"clubhouse/bizerror"
	"clubhouse/common"
	"clubhouse/persistence"
	"clubhouse/search"
	"clubhouse/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
	"golang.org/x/crypto/bcrypt"
)

var (
	personIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreatePersonFunc          = CreatePerson
	QueryPersonsFunc          = QueryPersons
	DetailPersonFunc          = DetailPerson
	UpdatePersonFunc          = UpdatePerson
	UpdatePersonStatusFunc    = UpdatePersonStatus
	UpdateBasicAuthSecretFunc = UpdateBasicAuthSecret
	VerifyCredentialsFunc     = VerifyCredentials
)

func HashSecret(raw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func VerifySecret(hash, raw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)) == nil
}

func CreatePerson(c *PersonCreation, s *session.Session) (*Person, error) {
	if !s.Perms.HasAdminPerm() {
		return nil, bizerror.ErrForbidden
	}

	secret, err := HashSecret(c.Secret)
	if err != nil {
		return nil, err
	}
	status := c.Status
	if status == "" {
		status = StatusProspective
	}
	person := Person{ID: common.NextId(personIdWorker), Callsign: c.Callsign,
		FirstName: c.FirstName, LastName: c.LastName, Email: c.Email,
		Status: status, Secret: secret, CreateTime: types.CurrentTimestamp()}
	if err := persistence.ActiveDataSourceManager.GormDB(s.Context).Create(&person).Error; err != nil {
		return nil, err
	}

	indexPerson(&person, s)
	return &person, nil
}

func QueryPersons(q PersonQuery, s *session.Session) ([]Person, error) {
	if !s.Perms.HasAnyRole(authority.RoleAdmin, authority.RoleManage,
		authority.RoleTimesheetManagement, authority.RoleShiftManagement) {
		return nil, bizerror.ErrForbidden
	}

	persons := []Person{}
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	query := db.Model(&Person{})
	if q.Status != "" {
		query = query.Where(&Person{Status: q.Status})
	}
	if err := query.Order("callsign ASC").Find(&persons).Error; err != nil {
		return nil, err
	}
	return persons, nil
}

func DetailPerson(id types.ID, s *session.Session) (*Person, error) {
	if !s.Perms.HasPersonViewPerm(id) {
		return nil, bizerror.ErrForbidden
	}

	person := Person{ID: id}
	if err := persistence.ActiveDataSourceManager.GormDB(s.Context).Where(&person).First(&person).Error; err != nil {
		return nil, err
	}
	return &person, nil
}

func UpdatePerson(id types.ID, u *PersonUpdating, s *session.Session) (*Person, error) {
	if !s.Perms.HasAdminPerm() && !s.Perms.IsSelf(id) {
		return nil, bizerror.ErrForbidden
	}

	person := Person{ID: id}
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(&Person{ID: id}).First(&person).Error; err != nil {
			return err
		}
		changes := map[string]interface{}{
			"first_name": u.FirstName, "last_name": u.LastName, "email": u.Email,
		}
		if err := tx.Model(&person).Update(changes).Error; err != nil {
			return err
		}
		return tx.Where(&Person{ID: id}).First(&person).Error
	})
	if err != nil {
		return nil, err
	}

	indexPerson(&person, s)
	return &person, nil
}

func UpdatePersonStatus(id types.ID, u *PersonStatusUpdating, s *session.Session) (*Person, error) {
	if !s.Perms.HasAnyRole(authority.RoleAdmin, authority.RoleManage) {
		return nil, bizerror.ErrForbidden
	}

	person := Person{ID: id}
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(&Person{ID: id}).First(&person).Error; err != nil {
			return err
		}
		if person.Status == u.Status {
			return nil
		}
		oldStatus := person.Status
		if err := tx.Model(&person).Update(&Person{Status: u.Status}).Error; err != nil {
			return err
		}
		person.Status = u.Status
		return auditlog.Record(auditlog.EventPersonStatus, "person status changed", id,
			auditlog.Payload{"old": oldStatus, "new": u.Status}, &s.Identity, tx)
	})
	if err != nil {
		return nil, err
	}

	indexPerson(&person, s)
	return &person, nil
}

func UpdateBasicAuthSecret(u *BasicAuthUpdating, s *session.Session) error {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	person := Person{ID: s.Identity.ID}
	if err := db.Where(&person).First(&person).Error; err != nil {
		return err
	}
	if !VerifySecret(person.Secret, u.OriginalSecret) {
		return bizerror.ErrInvalidSecret
	}

	secret, err := HashSecret(u.NewSecret)
	if err != nil {
		return err
	}
	return db.Model(&Person{}).Where(&Person{ID: s.Identity.ID}).Update(&Person{Secret: secret}).Error
}

// VerifyCredentials checks the callsign/secret pair for login. The same error is
// returned for an unknown callsign and a wrong secret.
func VerifyCredentials(callsign, secret string, s *session.Session) (*Person, error) {
	person := Person{}
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if err := db.Where(&Person{Callsign: callsign}).First(&person).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, bizerror.ErrUnauthenticated
		}
		return nil, err
	}
	if !VerifySecret(person.Secret, secret) {
		return nil, bizerror.ErrUnauthenticated
	}
	return &person, nil
}

func indexPerson(p *Person, s *session.Session) {
	doc := search.PersonDocument{ID: p.ID, Callsign: p.Callsign,
		FirstName: p.FirstName, LastName: p.LastName, Status: string(p.Status)}
	if err := search.IndexPersonsFunc([]search.PersonDocument{doc}, s); err != nil {
		common.Log.Warnf("failed to index person %d: %v", p.ID, err)
	}
}
