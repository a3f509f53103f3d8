package settings

import (
	"net/http"

	"clubhouse/common"
	"clubhouse/session"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var (
	PathSettings = "/v1/settings"
)

func RegisterSettingsRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathSettings, middleWares...)
	g.GET("", handleQuerySettings)
	g.PUT(":name", handleUpdateSetting)
}

func handleQuerySettings(c *gin.Context) {
	records, err := QuerySettingsFunc(session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, records)
}

func handleUpdateSetting(c *gin.Context) {
	updating := SettingUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	record, err := UpdateSettingFunc(c.Param("name"), &updating, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}
