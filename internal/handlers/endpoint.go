package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Request DTO for changing the device endpoint.
type endpointRequest struct {
	Base *string `json:"base" binding:"required"`
}

// UpdateEndpointRequest is an exported model for Swagger docs of the endpoint payload.
type UpdateEndpointRequest struct {
	// Device address: host, host:port or full http(s) URL. Empty clears the override.
	Base string `json:"base" example:"192.168.1.50"`
}

// @Summary      Get device endpoint
// @Tags         endpoint
// @Produce      json
// @Success      200  {object}  service.EndpointView
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/endpoint [get]
// @Security     BearerAuth
func (h *Handler) getEndpoint(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Endpoint.Current())
}

// @Summary      Set device endpoint
// @Description  The address is normalized; unparseable input clears the override. The proxy is notified and the device polled at the new address.
// @Tags         endpoint
// @Accept       json
// @Produce      json
// @Param        body  body   UpdateEndpointRequest  true  "Endpoint payload"
// @Success      200   {object}  service.EndpointUpdate
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/endpoint [put]
// @Security     BearerAuth
func (h *Handler) updateEndpoint(c *gin.Context) {
	var req endpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	out := h.services.Endpoint.Update(c.Request.Context(), *req.Base)
	if h.log != nil && len(out.Notices) > 0 {
		h.log.Warnw("endpoint_update_notices", "notices", out.Notices)
	}
	c.JSON(http.StatusOK, out)
}

// @Summary      Reset device endpoint
// @Description  Clears the override; calls go to the deployment default or this server's origin.
// @Tags         endpoint
// @Produce      json
// @Success      200  {object}  service.EndpointUpdate
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/endpoint [delete]
// @Security     BearerAuth
func (h *Handler) resetEndpoint(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Endpoint.Reset(c.Request.Context()))
}
