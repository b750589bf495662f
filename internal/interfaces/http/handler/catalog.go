package handler

import (
	appcatalog "github.com/anchala/pos/internal/application/catalog"
	"github.com/gin-gonic/gin"
)

// CatalogHandler serves product lookups for the scan field
type CatalogHandler struct {
	BaseHandler
	lookup *appcatalog.InventoryLookupService
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(lookup *appcatalog.InventoryLookupService) *CatalogHandler {
	return &CatalogHandler{lookup: lookup}
}

// GetByCode resolves a scanned or typed product code
// GET /catalog/:code
func (h *CatalogHandler) GetByCode(c *gin.Context) {
	entry, err := h.lookup.FindByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, appcatalog.ToCatalogEntryResponse(entry))
}

// Refresh reloads the catalog from the purchase audit table
// POST /catalog/refresh
func (h *CatalogHandler) Refresh(c *gin.Context) {
	resp, err := h.lookup.Refresh(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}
