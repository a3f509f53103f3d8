package search

import (
	"net/http"

	"clubhouse/common"
	"clubhouse/session"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var (
	PathPersonSearch = "/v1/person-search"
)

func RegisterPersonSearchRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathPersonSearch, middleWares...)
	g.GET("", handleSearchPersons)
}

func handleSearchPersons(c *gin.Context) {
	query := PersonSearchQuery{}
	err := c.MustBindWith(&query, binding.Query)
	if err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	docs, err := SearchPersonsFunc(query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, docs)
}
