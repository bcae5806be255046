// README: Order creation over HTTP; mirrors the bot checkout invariants.
package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"salonbot/internal/geo"
	"salonbot/internal/modules/order"
)

type checkoutReq struct {
	DeliveryType string   `json:"delivery_type"`
	Address      string   `json:"address"`
	Phone        string   `json:"phone"`
	Comment      string   `json:"comment"`
	Lat          *float64 `json:"lat"`
	Lon          *float64 `json:"lon"`
}

// handleCheckout creates an order from the live cart. The same rules as the
// bot flow apply: empty carts are refused, the free-plan limit is enforced,
// the total is computed server-side and the salon group is notified.
func (s *Server) handleCheckout(c *gin.Context) {
	var req checkoutReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.DeliveryType != order.DeliveryCourier && req.DeliveryType != order.DeliveryPickup {
		writeError(c, http.StatusBadRequest, "unknown delivery_type")
		return
	}
	if req.Phone == "" {
		writeError(c, http.StatusBadRequest, "missing phone")
		return
	}
	if req.DeliveryType == order.DeliveryCourier && req.Address == "" {
		writeError(c, http.StatusBadRequest, "missing address")
		return
	}

	ctx := c.Request.Context()
	membershipID := s.membershipID(c)

	mem, err := s.users.GetMembership(ctx, membershipID)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	sal, err := s.salons.GetByID(ctx, mem.SalonID)
	if err != nil {
		writeStoreError(c, err)
		return
	}

	items, err := s.carts.List(ctx, membershipID)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	if len(items) == 0 {
		writeStoreError(c, order.ErrEmptyCart)
		return
	}

	if sal.FreePlan {
		count, err := s.orders.CountBySalon(ctx, sal.ID)
		if err != nil {
			writeStoreError(c, err)
			return
		}
		if count >= sal.OrderLimit {
			writeStoreError(c, ErrOrderLimit)
			return
		}
	}

	var deliveryCost int64
	var distanceKm *float64
	if req.DeliveryType == order.DeliveryCourier && req.Lat != nil && req.Lon != nil {
		if loc := sal.Location(); loc != nil {
			km := geo.HaversineKm(loc.Lat, loc.Lon, *req.Lat, *req.Lon)
			deliveryCost = geo.DeliveryCost(km)
			distanceKm = &km
		}
	}

	o, err := s.orders.Create(ctx, order.CreateCommand{
		MembershipID:  membershipID,
		Name:          mem.DisplayName(),
		Phone:         req.Phone,
		Address:       req.Address,
		DeliveryType:  req.DeliveryType,
		PaymentMethod: order.DefaultPaymentMethod(req.DeliveryType),
		Comment:       req.Comment,
		DeliveryCost:  deliveryCost,
		Items:         items,
	})
	if err != nil {
		writeStoreError(c, err)
		return
	}

	if sal.GroupChatID != nil && s.notifier != nil {
		text := order.Summary(items, order.SummaryView{
			DeliveryType: req.DeliveryType,
			DeliveryCost: deliveryCost,
			Address:      req.Address,
			DistanceKm:   distanceKm,
			Currency:     sal.Currency,
		}, true)
		s.notifier.NotifyOrder(ctx, *sal.GroupChatID, text, mem)
	}

	if err := s.carts.Clear(ctx, membershipID); err != nil {
		s.log.WithError(err).Error("clearing cart after web order failed")
	}

	writeJSON(c, http.StatusCreated, gin.H{
		"order_id": o.ID,
		"status":   o.Status,
		"total":    o.Total.StringFixed(2),
	})
}
