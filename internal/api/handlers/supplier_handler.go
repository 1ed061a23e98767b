package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/alexander-kastil/talk-low-code-process/internal/services"
)

// SupplierHandler handles the read-only supplier endpoints.
type SupplierHandler struct {
	supplierService services.ISupplierService
}

func NewSupplierHandler(supplierService services.ISupplierService) *SupplierHandler {
	return &SupplierHandler{supplierService: supplierService}
}

// GetSuppliers handles GET /v1/suppliers/getSuppliers
func (h *SupplierHandler) GetSuppliers(c *gin.Context) {
	suppliers, err := h.supplierService.GetSuppliers(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to retrieve suppliers")
		return
	}
	c.JSON(http.StatusOK, suppliers)
}

// GetSupplierByID handles GET /v1/suppliers/getSupplierByID/:id
func (h *SupplierHandler) GetSupplierByID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Supplier id must be a number."})
		return
	}

	supplier, err := h.supplierService.GetSupplierByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to retrieve supplier")
		return
	}
	c.JSON(http.StatusOK, supplier)
}

// GetSuppliersByName handles GET /v1/suppliers/getSupplierByName/:name
func (h *SupplierHandler) GetSuppliersByName(c *gin.Context) {
	suppliers, err := h.supplierService.GetSuppliersByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondError(c, err, "Failed to retrieve suppliers")
		return
	}
	c.JSON(http.StatusOK, suppliers)
}

// GetSuppliersForProduct handles GET /v1/suppliers/getSupplierFor/:product
func (h *SupplierHandler) GetSuppliersForProduct(c *gin.Context) {
	suppliers, err := h.supplierService.GetSuppliersForProduct(c.Request.Context(), c.Param("product"))
	if err != nil {
		respondError(c, err, "Failed to retrieve suppliers")
		return
	}
	c.JSON(http.StatusOK, suppliers)
}
