package sessions

import (
	"net/http"
	"time"

	"clubhouse/account"
	"clubhouse/bizerror"
	"clubhouse/common"
	"clubhouse/session"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

var PathSessions = "/v1/sessions"

func RegisterSessionsHandler(r *gin.Engine) {
	g := r.Group(PathSessions)
	g.POST("", SimpleLoginHandler)
	g.DELETE("", SimpleLogoutHandler)
}

func SimpleLogoutHandler(c *gin.Context) {
	token, _ := c.Cookie(session.KeySecToken) // ErrNoCookie
	if token != "" {
		session.TokenCache.Delete(token)
	}
	c.SetCookie(session.KeySecToken, "", -1, "/", "", false, false)
	c.AbortWithStatus(http.StatusNoContent)
}

func SimpleLoginHandler(c *gin.Context) {
	login := session.LoginRequest{}
	if err := c.ShouldBindBodyWith(&login, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "common.bad_param", Message: err.Error()})
		return
	}

	anonymous := session.Session{Context: c.Request.Context()}
	person, err := account.VerifyCredentialsFunc(login.Callsign, login.Password, &anonymous)
	if err != nil {
		if err == bizerror.ErrUnauthenticated {
			panic(err)
		}
		c.JSON(http.StatusInternalServerError, &common.ErrorBody{Code: "common.internal_server_error", Message: err.Error()})
		return
	}

	token := uuid.New().String()
	perms := account.LoadPermFunc(person.ID, c.Request.Context())
	securityContext := session.Session{Token: token,
		Identity: session.Identity{ID: person.ID, Callsign: person.Callsign},
		Perms:    perms, SigningTime: time.Now()}
	session.TokenCache.Set(token, &securityContext, cache.DefaultExpiration)

	c.SetCookie(session.KeySecToken, token, int(session.TokenExpiration/time.Second), "/", "", false, false)
	c.JSON(http.StatusOK, &securityContext)
}
