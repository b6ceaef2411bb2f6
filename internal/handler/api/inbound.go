package api

import (
	"log/slog"
	"net/http"

	reqdto "voicedesk/internal/handler/dto/request"
	resdto "voicedesk/internal/handler/dto/response"
	"voicedesk/internal/handler/httperr"
	"voicedesk/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

// InboundHandler answers the ring-time webhook that stamps tenant metadata
// onto the call before the conversation starts.
type InboundHandler struct {
	tenants queries.TenantQueries
}

func NewInboundHandler(tenants queries.TenantQueries) *InboundHandler {
	return &InboundHandler{tenants: tenants}
}

func (h *InboundHandler) Inbound(c *gin.Context) {
	var req reqdto.InboundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid inbound payload", nil)
		return
	}

	biz, reason, err := h.tenants.ResolveInbound(c.Request.Context(), req.PickToNumber(), req.PickAgentID())
	if err != nil {
		httperr.AbortWithError(c, http.StatusNotFound, err, "No business mapping found for inbound request", nil)
		return
	}

	resp := resdto.NewInboundResponse(biz, reason)
	slog.Info("inbound call routed",
		"business_id", biz.ID(),
		"routing_reason", reason,
		"business_ref", resp.Metadata.InternalCustomerID,
	)
	c.JSON(http.StatusOK, resp)
}
