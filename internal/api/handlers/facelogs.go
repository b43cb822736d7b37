package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/facelog/internal/models"
	"github.com/your-org/facelog/internal/storage"
	"github.com/your-org/facelog/pkg/dto"
)

type FaceLogReader interface {
	RecentFaceLogs(ctx context.Context, q storage.FaceLogQuery) ([]models.FaceLog, error)
}

type FaceLogHandler struct {
	db FaceLogReader
}

func NewFaceLogHandler(db FaceLogReader) *FaceLogHandler {
	return &FaceLogHandler{db: db}
}

// List returns recent face logs, newest first.
func (h *FaceLogHandler) List(c *gin.Context) {
	var q dto.FaceLogQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	logs, err := h.db.RecentFaceLogs(c.Request.Context(), storage.FaceLogQuery{
		Limit:    q.Limit,
		Known:    q.Known,
		ZoneName: q.Zone,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.FaceLogResponse, 0, len(logs))
	for i := range logs {
		resp = append(resp, dto.FaceLogFromModel(&logs[i]))
	}

	c.JSON(http.StatusOK, dto.FaceLogListResponse{FaceLogs: resp, Total: len(resp)})
}
