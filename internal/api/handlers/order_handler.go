package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alexander-kastil/talk-low-code-process/internal/models"
	"github.com/alexander-kastil/talk-low-code-process/internal/services"
)

// OrderHandler handles order placement.
type OrderHandler struct {
	orderService services.IOrderService
}

func NewOrderHandler(orderService services.IOrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// PlaceOrder handles POST /v1/order/placeOrder
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var order models.Order
	if err := c.ShouldBindJSON(&order); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	confirmation, err := h.orderService.PlaceOrder(c.Request.Context(), order)
	if err != nil {
		respondError(c, err, "Failed to place order")
		return
	}
	c.JSON(http.StatusOK, confirmation)
}
