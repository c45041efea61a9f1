package orders

import "time"

type Order struct {
	ID             string `json:"id"`
	OrderCode      string `json:"order_code"`
	CustomerName   string `json:"customer_name"`
	CustomerEmail  string `json:"customer_email"`
	CustomerPhone  string `json:"customer_phone"`
	RecipientName  string `json:"recipient_name"`
	RecipientPhone string `json:"recipient_phone"`
	PostalCode     string `json:"postal_code"`
	Address        string `json:"address"`
	AddressDetail  string `json:"address_detail"`
	ShippingMemo   string `json:"shipping_memo"`

	TotalAmount    int  `json:"total_amount"` // stored at checkout, never recomputed here
	ShippingFee    *int `json:"shipping_fee"`
	CouponDiscount *int `json:"coupon_discount"`
	UsedPoints     *int `json:"used_points"`

	Status          Status     `json:"consultation_status"`
	AssignedAdminID *string    `json:"assigned_admin_id"`
	HandlerAdminID  *string    `json:"handler_admin_id"`
	HandledAt       *time.Time `json:"handled_at"`
	AdminMemo       *string    `json:"admin_memo"`

	ShippingCompany *string    `json:"shipping_company"`
	TrackingNumber  *string    `json:"tracking_number"`
	ShippedAt       *time.Time `json:"shipped_at"`
	PaymentID       *string    `json:"payment_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type OptionSetting struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type OrderItem struct {
	ID             string          `json:"id"`
	OrderID        string          `json:"order_id"`
	ProductID      string          `json:"product_id"`
	ProductName    string          `json:"product_name"`
	ProductPrice   int             `json:"product_price"`
	Quantity       int             `json:"quantity"`
	OptionID       *string         `json:"option_id"`
	OptionName     *string         `json:"option_name"`
	OptionSettings []OptionSetting `json:"selected_option_settings"`
}

// Incomplete reports an item that references an option but has no chosen settings.
func (it OrderItem) Incomplete() bool {
	return it.OptionID != nil && len(it.OptionSettings) == 0
}

type OrderDetail struct {
	Order
	Items []OrderItem `json:"items"`
}

// ShippingInfo is what an admin records when handing an order to a courier.
type ShippingInfo struct {
	Company        string `json:"shipping_company"`
	TrackingNumber string `json:"tracking_number"`
}

// StatusUpdate is one conditional status write. An empty From matches any
// status; a non-empty FromAnyOf further restricts the rows to those statuses.
type StatusUpdate struct {
	OrderIDs  []string
	From      Status
	FromAnyOf []Status
	To        Status
	ActorID   string
	Reason    string
}

// Matches reports whether an order currently in st is written by u.
func (u StatusUpdate) Matches(st Status) bool {
	if u.From != "" && st != u.From {
		return false
	}
	if len(u.FromAnyOf) == 0 {
		return true
	}
	for _, s := range u.FromAnyOf {
		if s == st {
			return true
		}
	}
	return false
}

// StatusChange is one row actually moved by a StatusUpdate.
type StatusChange struct {
	OrderID string `json:"order_id"`
	From    Status `json:"from"`
	To      Status `json:"to"`
}

const (
	SortCreatedAt   = "created_at"
	SortUpdatedAt   = "updated_at"
	SortTotalAmount = "total_amount"

	AssignedNone = "unassigned"

	DefaultPageSize = 20
	MaxPageSize     = 100
)

type ListFilter struct {
	Status   *Status    `json:"status,omitempty"`
	Assigned string     `json:"assigned,omitempty"` // admin id, AssignedNone, or empty for any
	Search   string     `json:"q,omitempty"`
	From     *time.Time `json:"from,omitempty"`
	To       *time.Time `json:"to,omitempty"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
	Sort     string     `json:"sort"`
	Desc     bool       `json:"desc"`
}

// Normalize fills defaults and clamps paging so equal queries share a cache key.
func (f ListFilter) Normalize() ListFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	switch f.Sort {
	case SortCreatedAt, SortUpdatedAt, SortTotalAmount:
	default:
		f.Sort = SortCreatedAt
		f.Desc = true
	}
	return f
}

type Page struct {
	Orders   []Order `json:"orders"`
	Total    int     `json:"total"`
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
}
