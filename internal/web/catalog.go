// README: Public catalog endpoints, keyed by salon slug.
package web

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"salonbot/internal/modules/catalog"
	"salonbot/internal/modules/salon"
	"salonbot/internal/types"
)

func (s *Server) handleSalon(c *gin.Context) {
	sal, err := s.salons.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		writeStoreError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, salonView(sal))
}

func (s *Server) handleCategories(c *gin.Context) {
	sal, err := s.salons.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		writeStoreError(c, err)
		return
	}
	categories, err := s.catalog.Categories(c.Request.Context(), sal.ID)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	out := make([]gin.H, 0, len(categories))
	for _, cat := range categories {
		out = append(out, gin.H{"id": cat.ID, "name": cat.Name})
	}
	writeJSON(c, http.StatusOK, gin.H{"categories": out})
}

// handleProducts lists the salon's products, optionally narrowed to one
// category via ?category_id=.
func (s *Server) handleProducts(c *gin.Context) {
	sal, err := s.salons.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		writeStoreError(c, err)
		return
	}

	var products []catalog.Product
	if raw := c.Query("category_id"); raw != "" {
		categoryID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid category_id")
			return
		}
		products, err = s.catalog.Products(c.Request.Context(), sal.ID, categoryID)
		if err != nil {
			writeStoreError(c, err)
			return
		}
	} else {
		products, err = s.catalog.AllProducts(c.Request.Context(), sal.ID)
		if err != nil {
			writeStoreError(c, err)
			return
		}
	}

	out := make([]gin.H, 0, len(products))
	for _, p := range products {
		out = append(out, gin.H{
			"id":          p.ID,
			"category_id": p.CategoryID,
			"name":        p.Name,
			"description": p.Description,
			"price":       p.Price.String(),
			"image":       p.Image,
		})
	}
	writeJSON(c, http.StatusOK, gin.H{"products": out, "currency": types.CurrencySymbol(sal.Currency)})
}

func salonView(sal *salon.Salon) gin.H {
	return gin.H{
		"id":       sal.ID,
		"name":     sal.Name,
		"slug":     sal.Slug,
		"currency": sal.Currency,
		"symbol":   types.CurrencySymbol(sal.Currency),
	}
}
