package notify

const (
	TypeConnection         = "connection"
	TypeJoin               = "join"
	TypeJoined             = "joined"
	TypeLowStock           = "lowStock"
	TypeStockAlert         = "stockAlert"
	TypeOrderStatusChanged = "orderStatusChanged"
)

// Inbound is any message a client may send. Fields are populated by type.
type Inbound struct {
	Type        string `json:"type"`
	UserID      string `json:"userId,omitempty"`
	ProductID   string `json:"productId,omitempty"`
	ProductName string `json:"productName,omitempty"`
	Stock       int    `json:"stock,omitempty"`
}

type ConnectionMessage struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	ClientID string `json:"clientId"`
}

type JoinedMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type StockAlertMessage struct {
	Type        string `json:"type"`
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Stock       int    `json:"stock"`
}

type OrderStatusMessage struct {
	Type    string `json:"type"`
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
	UserID  string `json:"userId"`
}
