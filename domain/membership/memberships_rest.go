package membership

import (
	"net/http"

	"clubhouse/common"
	"clubhouse/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var (
	PathPersonMemberships = "/v1/persons"
)

func RegisterMembershipsRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathPersonMemberships, middleWares...)
	g.PUT(":id/positions", handleReconcilePositions)
	g.PUT(":id/roles", handleReconcileRoles)
}

func handleReconcilePositions(c *gin.Context) {
	handleReconcile(c, TablePositions)
}

func handleReconcileRoles(c *gin.Context) {
	handleReconcile(c, TableRoles)
}

func handleReconcile(c *gin.Context, table MembershipTable) {
	personId, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	updating := MembershipUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	result, err := ReconcileFunc(personId, updating.TargetIds, table, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, result)
}
