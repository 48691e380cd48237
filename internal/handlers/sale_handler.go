package handlers

import (
	"errors"
	"net/http"

	"github.com/borjaoskins/raffle-backend/internal/models"
	"github.com/borjaoskins/raffle-backend/internal/services"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SaleHandler handles purchase-related HTTP requests
type SaleHandler struct {
	saleService services.SaleService
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(saleService services.SaleService) *SaleHandler {
	return &SaleHandler{saleService: saleService}
}

// Create handles POST /raffles/:id/sales
func (h *SaleHandler) Create(c *gin.Context) {
	raffleID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid raffle ID format"})
		return
	}
	var req models.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sale, err := h.saleService.CreateSale(c.Request.Context(), raffleID, &req)
	if err != nil {
		var unavailable *models.NumbersUnavailableError
		switch {
		case errors.As(err, &unavailable):
			c.JSON(http.StatusConflict, gin.H{
				"error":               "Some numbers are no longer available",
				"conflicting_numbers": unavailable.Numbers,
			})
		case errors.Is(err, models.ErrRaffleNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Raffle not found"})
		case errors.Is(err, models.ErrRaffleInactive):
			c.JSON(http.StatusConflict, gin.H{"error": "Raffle is not accepting purchases"})
		case errors.Is(err, models.ErrNumberOutOfRange), errors.Is(err, models.ErrNoNumbers):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create sale"})
		}
		return
	}
	c.JSON(http.StatusCreated, sale)
}

// GetByID handles GET /sales/:id, polled by the payment screen
func (h *SaleHandler) GetByID(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	sale, err := h.saleService.GetSale(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrSaleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Sale not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve sale"})
		}
		return
	}
	c.JSON(http.StatusOK, sale)
}

// TakenNumbers handles GET /raffles/:id/numbers/taken, which feeds the picker grid
func (h *SaleHandler) TakenNumbers(c *gin.Context) {
	raffleID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid raffle ID format"})
		return
	}
	numbers, err := h.saleService.TakenNumbers(c.Request.Context(), raffleID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve taken numbers"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"numbers": numbers})
}

// ListByRaffle handles GET /raffles/:id/sales for the admin detail screen
func (h *SaleHandler) ListByRaffle(c *gin.Context) {
	raffleID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid raffle ID format"})
		return
	}
	sales, err := h.saleService.SalesByRaffle(c.Request.Context(), raffleID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list sales"})
		return
	}
	c.JSON(http.StatusOK, sales)
}
