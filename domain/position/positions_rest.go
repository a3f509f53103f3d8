package position

import (
	"net/http"

	"clubhouse/common"
	"clubhouse/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var (
	PathPositions = "/v1/positions"
	PathSlots     = "/v1/slots"
)

func RegisterPositionsRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathPositions, middleWares...)
	g.POST("", handleCreatePosition)
	g.GET("", handleQueryPositions)
	g.GET(":id", handleDetailPosition)
	g.PUT(":id", handleUpdatePosition)

	sg := r.Group(PathSlots, middleWares...)
	sg.POST("", handleCreateSlot)
	sg.GET("", handleQuerySlots)
	sg.DELETE(":id", handleDeleteSlot)
}

func handleCreatePosition(c *gin.Context) {
	creation := PositionCreation{}
	err := c.ShouldBindBodyWith(&creation, binding.JSON)
	if err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	record, err := CreatePositionFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func handleQueryPositions(c *gin.Context) {
	query := PositionQuery{}
	err := c.MustBindWith(&query, binding.Query)
	if err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	records, err := QueryPositionsFunc(query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, records)
}

func handleDetailPosition(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	record, err := DetailPositionFunc(id, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func handleUpdatePosition(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	updating := PositionUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	record, err := UpdatePositionFunc(id, &updating, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func handleCreateSlot(c *gin.Context) {
	creation := SlotCreation{}
	err := c.ShouldBindBodyWith(&creation, binding.JSON)
	if err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	record, err := CreateSlotFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func handleQuerySlots(c *gin.Context) {
	query := SlotQuery{}
	err := c.MustBindWith(&query, binding.Query)
	if err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	records, err := QuerySlotsFunc(query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, records)
}

func handleDeleteSlot(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	if err := DeleteSlotFunc(id, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusNoContent)
}
