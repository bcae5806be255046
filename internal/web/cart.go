// README: Cart endpoints for authenticated mini-app sessions.
package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"salonbot/internal/modules/cart"
)

type cartLineReq struct {
	ProductID int64 `json:"product_id"`
}

func (s *Server) handleCart(c *gin.Context) {
	items, err := s.carts.List(c.Request.Context(), s.membershipID(c))
	if err != nil {
		writeStoreError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, cartView(items))
}

// handleCartAdd adds one unit. The store's cross-salon check makes adding a
// foreign product a silent no-op, same as in the bot.
func (s *Server) handleCartAdd(c *gin.Context) {
	var req cartLineReq
	if err := c.ShouldBindJSON(&req); err != nil || req.ProductID == 0 {
		writeError(c, http.StatusBadRequest, "missing product_id")
		return
	}
	membershipID := s.membershipID(c)
	if err := s.carts.Add(c.Request.Context(), membershipID, req.ProductID); err != nil {
		writeStoreError(c, err)
		return
	}
	items, err := s.carts.List(c.Request.Context(), membershipID)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, cartView(items))
}

func (s *Server) handleCartReduce(c *gin.Context) {
	var req cartLineReq
	if err := c.ShouldBindJSON(&req); err != nil || req.ProductID == 0 {
		writeError(c, http.StatusBadRequest, "missing product_id")
		return
	}
	membershipID := s.membershipID(c)
	stillPresent, err := s.carts.Reduce(c.Request.Context(), membershipID, req.ProductID)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	items, err := s.carts.List(c.Request.Context(), membershipID)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	view := cartView(items)
	view["removed"] = !stillPresent
	writeJSON(c, http.StatusOK, view)
}

func cartView(items []cart.Item) gin.H {
	lines := make([]gin.H, 0, len(items))
	for _, it := range items {
		lines = append(lines, gin.H{
			"product_id": it.ProductID,
			"name":       it.ProductName,
			"quantity":   it.Quantity,
			"price":      it.Price.String(),
			"subtotal":   it.Subtotal().String(),
		})
	}
	return gin.H{
		"items": lines,
		"total": cart.Total(items).StringFixed(2),
	}
}
