package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/stratumlab/sowforge/internal/model"
	"github.com/stratumlab/sowforge/internal/pkg/errcode"
	"github.com/stratumlab/sowforge/internal/pkg/response"
	"github.com/stratumlab/sowforge/internal/service"
)

type SOWHandler struct {
	sows   *service.SOWService
	export *service.ExportService
}

func NewSOWHandler(sows *service.SOWService, export *service.ExportService) *SOWHandler {
	return &SOWHandler{sows: sows, export: export}
}

func (h *SOWHandler) Generate(c *gin.Context) {
	var req model.SOWRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if req.ProjectID == "" {
		response.Error(c, errcode.ErrInvalid, "project_id is required")
		return
	}
	sow, err := h.sows.Generate(c.Request.Context(), getUserID(c), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, sow)
}

func (h *SOWHandler) Get(c *gin.Context) {
	sow, err := h.sows.Get(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, sow)
}

func (h *SOWHandler) List(c *gin.Context) {
	offset, _ := strconv.Atoi(c.Query("offset"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	sows, err := h.sows.List(c.Request.Context(), getUserID(c), offset, limit)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"items": sows})
}

func (h *SOWHandler) Export(c *gin.Context) {
	switch c.DefaultQuery("format", "html") {
	case "html":
		_, html, err := h.export.ExportHTML(c.Request.Context(), getUserID(c), c.Param("id"))
		if err != nil {
			handleError(c, err)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
	case "markdown":
		sow, err := h.sows.Get(c.Request.Context(), getUserID(c), c.Param("id"))
		if err != nil {
			handleError(c, err)
			return
		}
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(sow.Body))
	default:
		response.Error(c, errcode.ErrInvalid, "format must be html or markdown")
	}
}
