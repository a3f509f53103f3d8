package account

import (
	"net/http"

	"clubhouse/common"
	"clubhouse/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var (
	PathPersons           = "/v1/persons"
	PathSessionUserSecret = "/v1/session-users/basic-auths"
)

func RegisterPersonsRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathPersons, middleWares...)
	g.POST("", handleCreatePerson)
	g.GET("", handleQueryPersons)
	g.GET(":id", handleDetailPerson)
	g.PUT(":id", handleUpdatePerson)
	g.PUT(":id/status", handleUpdatePersonStatus)

	s := r.Group(PathSessionUserSecret, middleWares...)
	s.PUT("", handleUpdateBasicAuthSecret)
}

func handleCreatePerson(c *gin.Context) {
	creation := PersonCreation{}
	err := c.ShouldBindBodyWith(&creation, binding.JSON)
	if err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	record, err := CreatePersonFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func handleQueryPersons(c *gin.Context) {
	query := PersonQuery{}
	err := c.MustBindWith(&query, binding.Query)
	if err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	records, err := QueryPersonsFunc(query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, records)
}

func handleDetailPerson(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	record, err := DetailPersonFunc(id, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func handleUpdatePerson(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	updating := PersonUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	record, err := UpdatePersonFunc(id, &updating, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func handleUpdatePersonStatus(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	updating := PersonStatusUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	record, err := UpdatePersonStatusFunc(id, &updating, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func handleUpdateBasicAuthSecret(c *gin.Context) {
	updating := BasicAuthUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	if err := UpdateBasicAuthSecretFunc(&updating, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusOK)
}
