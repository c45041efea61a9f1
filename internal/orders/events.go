package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderStatusChanged            = "OrderStatusChanged"
	EventShippingNotificationRequested = "ShippingNotificationRequested"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

type StatusChangedPayload struct {
	OrderID string `json:"order_id"`
	From    Status `json:"from"`
	To      Status `json:"to"`
	ActorID string `json:"actor_id"`
	Reason  string `json:"reason,omitempty"`
}

type ShippingNotificationPayload struct {
	OrderID         string `json:"order_id"`
	OrderCode       string `json:"order_code"`
	RecipientName   string `json:"recipient_name"`
	RecipientPhone  string `json:"recipient_phone"`
	ShippingCompany string `json:"shipping_company"`
	TrackingNumber  string `json:"tracking_number"`
}
