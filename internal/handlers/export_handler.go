package handlers

import (
	"errors"
	"net/http"

	"github.com/borjaoskins/raffle-backend/internal/models"
	"github.com/borjaoskins/raffle-backend/internal/services"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExportHandler serves the plain-text sales report
type ExportHandler struct {
	exportService services.ExportService
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(exportService services.ExportService) *ExportHandler {
	return &ExportHandler{exportService: exportService}
}

// Export handles POST /raffles/:id/export
func (h *ExportHandler) Export(c *gin.Context) {
	raffleID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.String(http.StatusBadRequest, "Raffle ID required")
		return
	}
	report, err := h.exportService.BuildReport(c.Request.Context(), raffleID)
	if err != nil {
		if errors.Is(err, models.ErrRaffleNotFound) {
			c.String(http.StatusNotFound, "Raffle not found")
		} else {
			c.String(http.StatusInternalServerError, "Erro ao gerar exportação")
		}
		return
	}
	c.String(http.StatusOK, report)
}
