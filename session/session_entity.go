package session

import (
	"clubhouse/authority"
	"context"
	"time"

	"github.com/fundwit/go-commons/types"
)

type Identity struct {
	ID       types.ID `json:"id"`
	Callsign string   `json:"callsign"`
}

type Session struct {
	Token    string                `json:"token"`
	Identity Identity              `json:"identity"`
	Perms    authority.Permissions `json:"perms"`

	SigningTime time.Time       `json:"-"`
	Context     context.Context `json:"-"`
}

func (s *Session) Clone() Session {
	c := *s
	c.Perms = append(authority.Permissions{}, s.Perms...)
	return c
}
