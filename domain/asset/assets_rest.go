package asset

import (
	"net/http"

	"clubhouse/common"
	"clubhouse/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var (
	PathAssets        = "/v1/assets"
	PathAssetCheckout = "/v1/asset-checkouts"
)

func RegisterAssetsRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathAssets, middleWares...)
	g.POST("", handleCreateAsset)
	g.GET("", handleQueryAssets)
	g.GET(":id", handleDetailAsset)
	g.PUT(":id", handleUpdateAsset)
	g.DELETE(":id", handleDeleteAsset)
	g.GET(":id/history", handleCheckoutHistory)
	g.POST(":id/checkin", handleCheckIn)

	cg := r.Group(PathAssetCheckout, middleWares...)
	cg.POST("", handleCheckOut)
}

func handleCreateAsset(c *gin.Context) {
	creation := AssetCreation{}
	err := c.ShouldBindBodyWith(&creation, binding.JSON)
	if err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	record, err := CreateAssetFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func handleQueryAssets(c *gin.Context) {
	query := AssetQuery{}
	err := c.MustBindWith(&query, binding.Query)
	if err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	records, err := QueryAssetsFunc(query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, records)
}

func handleDetailAsset(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	record, err := DetailAssetFunc(id, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func handleUpdateAsset(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	updating := AssetUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	record, err := UpdateAssetFunc(id, &updating, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func handleDeleteAsset(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	if err := DeleteAssetFunc(id, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusNoContent)
}

func handleCheckoutHistory(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	history, err := CheckoutHistoryFunc(id, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, history)
}

func handleCheckOut(c *gin.Context) {
	request := AssetCheckoutRequest{}
	if err := c.ShouldBindBodyWith(&request, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	result, err := CheckOutFunc(&request, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, result)
}

func handleCheckIn(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	result, err := CheckInFunc(id, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, result)
}
