package sessions

import (
	"net/http"
	"time"

	"clubhouse/account"
	"clubhouse/bizerror"
	"clubhouse/session"

	"github.com/gin-gonic/gin"
)

var PathSession = "/v1/session"

func RegisterSessionHandler(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathSession, middleWares...)
	g.GET("", DetailSessionSecurityContext)
}

// DetailSessionSecurityContext refreshes the cached permissions of the current
// token without extending its lifetime.
func DetailSessionSecurityContext(c *gin.Context) {
	sec := session.ExtractSessionFromGinContext(c)
	if sec.Token == "" {
		panic(bizerror.ErrUnauthenticated)
	}

	now := time.Now()
	ttl := session.TokenExpiration - now.Sub(sec.SigningTime)
	if ttl <= 0 {
		panic(bizerror.ErrUnauthenticated)
	}

	perms := account.LoadPermFunc(sec.Identity.ID, c.Request.Context())
	securityContext := session.Session{Token: sec.Token, Identity: sec.Identity,
		Perms: perms, SigningTime: sec.SigningTime}
	session.TokenCache.Set(sec.Token, &securityContext, ttl)
	c.JSON(http.StatusOK, &securityContext)
}
