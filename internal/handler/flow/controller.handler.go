package flow

import (
	"context"
	"errors"
	"net/http"

	"go-checkout/internal/common/enum"
	types "go-checkout/internal/common/type"
	"go-checkout/internal/pkg/helper"
	flowService "go-checkout/internal/service/flow"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	ctx         context.Context
	flowService flowService.IService
}

type IHandler interface {
	NewRoutes(e *gin.RouterGroup)
}

func NewHandler(ctx context.Context, flowService flowService.IService) IHandler {
	return &Handler{
		ctx:         ctx,
		flowService: flowService,
	}
}

type StartFlowRequest struct {
	Vertical string `json:"vertical" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

type DispatchRequest struct {
	Event   string                    `json:"event" binding:"required"`
	Payload *flowService.EventPayload `json:"payload"`
}

// StartFlow godoc
// @Summary      Start a checkout flow
// @Description  Creates a fresh flow context for one checkout session
// @Tags         Flows
// @Accept       json
// @Produce      json
// @Param        request  body      StartFlowRequest  true  "Flow start request"
// @Success      201      {object}  types.ResponseAPI{data=flowService.FlowContext}
// @Failure      400      {object}  types.ResponseAPI
// @Router       /v1/flows [post]
func (h *Handler) StartFlow(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))

	var req StartFlowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		send(helper.ParseResponse(&types.Response{
			Code:    http.StatusBadRequest,
			Message: "Invalid request body",
			Error:   err,
		}))
		return
	}

	fc, err := h.flowService.StartFlow(enum.VerticalEnum(req.Vertical), enum.RoleEnum(req.Role))
	if err != nil {
		send(helper.ParseResponse(&types.Response{
			Code:    http.StatusBadRequest,
			Message: "Could not start flow",
			Error:   err,
		}))
		return
	}

	send(helper.ParseResponse(&types.Response{
		Code:    http.StatusCreated,
		Message: "Flow started",
		Data:    fc,
	}))
}

// GetFlow godoc
// @Summary      Get flow state
// @Description  Returns the current context of a checkout flow
// @Tags         Flows
// @Produce      json
// @Param        flow_id  path      string  true  "Flow ID"
// @Success      200      {object}  types.ResponseAPI{data=flowService.FlowContext}
// @Failure      404      {object}  types.ResponseAPI
// @Router       /v1/flows/{flow_id} [get]
func (h *Handler) GetFlow(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))

	fc, err := h.flowService.Get(c.Param("flow_id"))
	if err != nil {
		send(helper.ParseResponse(&types.Response{
			Code:    http.StatusNotFound,
			Message: "Flow not found",
			Error:   err,
		}))
		return
	}

	send(helper.ParseResponse(&types.Response{
		Code:    http.StatusOK,
		Message: "OK",
		Data:    fc,
	}))
}

// DispatchEvent godoc
// @Summary      Dispatch a flow event
// @Description  Feeds one named event into the flow state machine and returns the settled context
// @Tags         Flows
// @Accept       json
// @Produce      json
// @Param        flow_id  path      string           true  "Flow ID"
// @Param        request  body      DispatchRequest  true  "Event to dispatch"
// @Success      200      {object}  types.ResponseAPI{data=flowService.FlowContext}
// @Failure      400      {object}  types.ResponseAPI
// @Failure      404      {object}  types.ResponseAPI
// @Failure      409      {object}  types.ResponseAPI
// @Router       /v1/flows/{flow_id}/events [post]
func (h *Handler) DispatchEvent(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))

	var req DispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		send(helper.ParseResponse(&types.Response{
			Code:    http.StatusBadRequest,
			Message: "Invalid request body",
			Error:   err,
		}))
		return
	}

	fc, err := h.flowService.Dispatch(c.Param("flow_id"), flowService.Event(req.Event), req.Payload)
	if err != nil {
		send(helper.ParseResponse(dispatchErrorResponse(err)))
		return
	}

	send(helper.ParseResponse(&types.Response{
		Code:    http.StatusOK,
		Message: "OK",
		Data:    fc,
	}))
}

func dispatchErrorResponse(err error) *types.Response {
	switch {
	case errors.Is(err, flowService.ErrFlowNotFound):
		return &types.Response{Code: http.StatusNotFound, Message: "Flow not found", Error: err}
	case errors.Is(err, flowService.ErrFlowCompleted):
		return &types.Response{Code: http.StatusGone, Message: "Flow already completed", Error: err}
	case errors.Is(err, flowService.ErrEventNotAllowed):
		return &types.Response{Code: http.StatusConflict, Message: "Event not allowed in current state", Error: err}
	default:
		return &types.Response{Code: http.StatusInternalServerError, Message: "Failed to process event", Error: err}
	}
}
