package domain

import (
	"github.com/fundwit/go-commons/types"
)

type Role struct {
	ID    types.ID `json:"id" gorm:"primary_key"`
	Title string   `json:"title" gorm:"unique_index"`
}
