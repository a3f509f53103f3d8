package servehttp_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"clubhouse/servehttp"
	"clubhouse/testinfra"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
)

func TestRateLimit(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should reject requests above the bucket burst", func(t *testing.T) {
		router := gin.New()
		router.Use(servehttp.RateLimit(1, 2))
		router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

		status, _, _ := testinfra.ExecuteRequest(httptest.NewRequest(http.MethodGet, "/ping", nil), router)
		Expect(status).To(Equal(http.StatusOK))
		status, _, _ = testinfra.ExecuteRequest(httptest.NewRequest(http.MethodGet, "/ping", nil), router)
		Expect(status).To(Equal(http.StatusOK))
		status, _, _ = testinfra.ExecuteRequest(httptest.NewRequest(http.MethodGet, "/ping", nil), router)
		Expect(status).To(Equal(http.StatusTooManyRequests))
	})
}
