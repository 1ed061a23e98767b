package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alexander-kastil/talk-low-code-process/internal/models"
	"github.com/alexander-kastil/talk-low-code-process/internal/services"
)

// InquiryHandler handles the offer endpoints.
type InquiryHandler struct {
	inquiryService services.IInquiryService
}

func NewInquiryHandler(inquiryService services.IInquiryService) *InquiryHandler {
	return &InquiryHandler{inquiryService: inquiryService}
}

// RequestOffer handles POST /v1/inquiry/requestOffer
func (h *InquiryHandler) RequestOffer(c *gin.Context) {
	var req models.OfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	offer, err := h.inquiryService.RequestOffer(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Failed to create offer")
		return
	}
	c.JSON(http.StatusOK, offer)
}

// GetOfferByID handles GET /v1/inquiry/getOfferById/:offerId
func (h *InquiryHandler) GetOfferByID(c *gin.Context) {
	offer, err := h.inquiryService.GetOfferByID(c.Request.Context(), c.Param("offerId"))
	if err != nil {
		respondError(c, err, "Failed to retrieve offer")
		return
	}
	c.JSON(http.StatusOK, offer)
}
