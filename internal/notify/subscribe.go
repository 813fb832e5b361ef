package notify

import (
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/events"
)

// Subscribe routes order status changes to the owning user and stock alerts to everyone.
func Subscribe(h *Hub, bus *events.Bus) error {
	if err := bus.SubscribeOrderStatusChanged(func(e domain.OrderStatusChanged) {
		h.SendToUser(e.UserID, OrderStatusMessage{
			Type:    TypeOrderStatusChanged,
			OrderID: e.OrderID,
			Status:  e.Status.String(),
			UserID:  e.UserID,
		})
	}); err != nil {
		return err
	}

	return bus.SubscribeStockAlert(func(e domain.StockAlert) {
		h.Broadcast(StockAlertMessage{
			Type:        TypeStockAlert,
			ProductID:   e.ProductID,
			ProductName: e.ProductName,
			Stock:       e.Stock,
		})
	})
}
