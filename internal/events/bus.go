// Package events carries domain events between services and the notification hub.
package events

import (
	"fmt"

	"github.com/asaskevich/EventBus"
	"github.com/fjod/go_cart/storefront/internal/domain"
)

// Bus is a synchronous in-process publish/subscribe channel.
type Bus struct {
	bus EventBus.Bus
}

func NewBus() *Bus {
	return &Bus{bus: EventBus.New()}
}

func (b *Bus) PublishOrderStatusChanged(e domain.OrderStatusChanged) {
	b.bus.Publish(domain.TopicOrderStatusChanged, e)
}

func (b *Bus) PublishStockAlert(e domain.StockAlert) {
	b.bus.Publish(domain.TopicStockAlert, e)
}

func (b *Bus) SubscribeOrderStatusChanged(fn func(domain.OrderStatusChanged)) error {
	if err := b.bus.Subscribe(domain.TopicOrderStatusChanged, fn); err != nil {
		return fmt.Errorf("subscribe %s: %w", domain.TopicOrderStatusChanged, err)
	}
	return nil
}

func (b *Bus) SubscribeStockAlert(fn func(domain.StockAlert)) error {
	if err := b.bus.Subscribe(domain.TopicStockAlert, fn); err != nil {
		return fmt.Errorf("subscribe %s: %w", domain.TopicStockAlert, err)
	}
	return nil
}
