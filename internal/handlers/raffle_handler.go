package handlers

import (
	"errors"
	"net/http"

	"github.com/borjaoskins/raffle-backend/internal/models"
	"github.com/borjaoskins/raffle-backend/internal/services"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RaffleHandler handles raffle-related HTTP requests
type RaffleHandler struct {
	raffleService services.RaffleService
}

// NewRaffleHandler creates a new RaffleHandler
func NewRaffleHandler(raffleService services.RaffleService) *RaffleHandler {
	return &RaffleHandler{raffleService: raffleService}
}

// ListActive handles GET /raffles
func (h *RaffleHandler) ListActive(c *gin.Context) {
	raffles, err := h.raffleService.ListActive(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list raffles"})
		return
	}
	c.JSON(http.StatusOK, raffles)
}

// ListAll handles GET /admin listing, including inactive raffles.
// ?archived=true also includes archived ones.
func (h *RaffleHandler) ListAll(c *gin.Context) {
	includeArchived := c.Query("archived") == "true"
	raffles, err := h.raffleService.ListAll(c.Request.Context(), includeArchived)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list raffles"})
		return
	}
	c.JSON(http.StatusOK, raffles)
}

// GetByID handles GET /raffles/:id
func (h *RaffleHandler) GetByID(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	raffle, err := h.raffleService.GetRaffle(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrRaffleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Raffle not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve raffle"})
		}
		return
	}
	c.JSON(http.StatusOK, raffle)
}

// Create handles POST /raffles
func (h *RaffleHandler) Create(c *gin.Context) {
	var req models.CreateRaffleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	raffle, err := h.raffleService.CreateRaffle(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, raffle)
}

// Update handles PUT /raffles/:id
func (h *RaffleHandler) Update(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	var req models.UpdateRaffleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	raffle, err := h.raffleService.UpdateRaffle(c.Request.Context(), id, &req)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrRaffleNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Raffle not found"})
		case errors.Is(err, models.ErrRaffleFinished):
			c.JSON(http.StatusConflict, gin.H{"error": "Raffle has a winner, reactivate it instead"})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, raffle)
}

// Delete handles DELETE /raffles/:id
func (h *RaffleHandler) Delete(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	if err := h.raffleService.DeleteRaffle(c.Request.Context(), id); err != nil {
		if errors.Is(err, models.ErrRaffleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Raffle not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete raffle"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Finalize handles POST /raffles/:id/finalize
func (h *RaffleHandler) Finalize(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	var req models.FinalizeRaffleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	raffle, err := h.raffleService.Finalize(c.Request.Context(), id, req.Number)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrRaffleNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Raffle not found"})
		case errors.Is(err, models.ErrNumberOutOfRange):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, models.ErrNoSaleForNumber):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "No confirmed sale holds this number"})
		case errors.Is(err, models.ErrRaffleInactive):
			c.JSON(http.StatusConflict, gin.H{"error": "Raffle is already finalized"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to finalize raffle"})
		}
		return
	}
	c.JSON(http.StatusOK, raffle)
}

// Reactivate handles POST /raffles/:id/reactivate
func (h *RaffleHandler) Reactivate(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	raffle, err := h.raffleService.Reactivate(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrRaffleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Raffle not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reactivate raffle"})
		}
		return
	}
	c.JSON(http.StatusOK, raffle)
}

// Archive handles POST /raffles/:id/archive
func (h *RaffleHandler) Archive(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	if err := h.raffleService.Archive(c.Request.Context(), id); err != nil {
		if errors.Is(err, models.ErrRaffleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Raffle not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to archive raffle"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
