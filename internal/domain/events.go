package domain

const (
	TopicOrderStatusChanged = "order:status_changed"
	TopicStockAlert         = "product:stock_alert"
)

type OrderStatusChanged struct {
	OrderID string
	Status  OrderStatus
	UserID  string
}

type StockAlert struct {
	ProductID   string
	ProductName string
	Stock       int
}
