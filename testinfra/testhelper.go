package testinfra

import (
	"context"
	"io/ioutil"
	"net/http"
	"net/http/httptest"

	"clubhouse/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	. "github.com/onsi/gomega"
)

// BuildSecCtx build a signed session for service level tests.
func BuildSecCtx(uid types.ID, perms ...string) *session.Session {
	return &session.Session{
		Token:    uuid.New().String(),
		Identity: session.Identity{ID: uid, Callsign: "callsign-" + uid.String()},
		Perms:    perms,
		Context:  context.Background(),
	}
}

// ExecuteRequest run the request through the router and drain the response.
func ExecuteRequest(req *http.Request, router *gin.Engine) (int, string, *http.Response) {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	res := w.Result()
	defer res.Body.Close()
	bodyBytes, err := ioutil.ReadAll(res.Body)
	Expect(err).To(BeNil())
	return res.StatusCode, string(bodyBytes), res
}
