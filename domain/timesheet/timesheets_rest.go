package timesheet

import (
	"net/http"

	"clubhouse/common"
	"clubhouse/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var (
	PathTimesheets            = "/v1/timesheets"
	PathTimesheetLogs         = "/v1/timesheet-logs"
	PathTimesheetConfirmation = "/v1/timesheet-confirmations"
)

func RegisterTimesheetsRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathTimesheets, middleWares...)
	g.POST("", handleSignIn)
	g.GET("", handleQueryTimesheets)
	g.PUT(":id", handleUpdateTimesheet)
	g.DELETE(":id", handleDeleteTimesheet)
	g.POST(":id/sign-off", handleSignOff)
	g.POST(":id/re-signin", handleReSignIn)
	g.PUT(":id/position", handleChangePosition)

	lg := r.Group(PathTimesheetLogs, middleWares...)
	lg.GET("", handleListLogs)

	cg := r.Group(PathTimesheetConfirmation, middleWares...)
	cg.GET(":personId", handleConfirmationInfo)
	cg.POST(":personId", handleConfirm)
}

func handleSignIn(c *gin.Context) {
	creation := TimesheetSignIn{}
	err := c.ShouldBindBodyWith(&creation, binding.JSON)
	if err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	result, err := SignInFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, result)
}

func handleQueryTimesheets(c *gin.Context) {
	query := TimesheetQuery{}
	err := c.MustBindWith(&query, binding.Query)
	if err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	records, err := QueryTimesheetsFunc(query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, records)
}

func handleUpdateTimesheet(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	updating := TimesheetUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	record, err := UpdateTimesheetFunc(id, &updating, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func handleDeleteTimesheet(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	if err := DeleteTimesheetFunc(id, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusNoContent)
}

func handleSignOff(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	result, err := SignOffFunc(id, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, result)
}

type reSignInRequest struct {
	PersonID types.ID `json:"personId" binding:"required"`
}

func handleReSignIn(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	request := reSignInRequest{}
	if err := c.ShouldBindBodyWith(&request, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	result, err := ReSignInFunc(id, request.PersonID, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, result)
}

type positionChangeRequest struct {
	PositionID types.ID `json:"positionId" binding:"required"`
}

func handleChangePosition(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	request := positionChangeRequest{}
	if err := c.ShouldBindBodyWith(&request, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	result, err := ChangePositionFunc(id, request.PositionID, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, result)
}

type logsQuery struct {
	PersonID types.ID `form:"personId" binding:"required"`
	Year     int      `form:"year" binding:"required"`
}

func handleListLogs(c *gin.Context) {
	query := logsQuery{}
	if err := c.MustBindWith(&query, binding.Query); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	book, err := ListLogsFunc(query.PersonID, query.Year, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, book)
}

func handleConfirmationInfo(c *gin.Context) {
	personId, err := types.ParseID(c.Param("personId"))
	if err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	info, err := ConfirmationInfoFunc(personId, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, info)
}

type confirmRequest struct {
	Confirmed *bool `json:"confirmed" binding:"required"`
}

func handleConfirm(c *gin.Context) {
	personId, err := types.ParseID(c.Param("personId"))
	if err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	request := confirmRequest{}
	if err := c.ShouldBindBodyWith(&request, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	info, err := ConfirmFunc(personId, *request.Confirmed, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, info)
}
