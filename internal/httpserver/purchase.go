package httpserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storecatalog/internal/logger"
)

type purchaseRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1,max=10000"`
}

type purchaseHandler struct {
	recorder purchaseRecorder
	logger   *logger.Logger
	now      func() time.Time
}

func (h *purchaseHandler) record(c *gin.Context) {
	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if isValidationErr(err) {
			writeError(c, h.logger, err)
			return
		}
		c.JSON(http.StatusBadRequest, errorBody{Error: errorDetail{Code: "validation_failed", Message: "malformed request body"}})
		return
	}
	if err := h.recorder.Record(c.Request.Context(), req.ProductID, req.Quantity, h.now()); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}
