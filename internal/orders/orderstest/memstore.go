// Package orderstest provides in-memory collaborators for testing code built
// on the orders service.
package orderstest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ariefcatur/go-admin-orders/internal/admins"
	"github.com/ariefcatur/go-admin-orders/internal/orders"
	kafkago "github.com/segmentio/kafka-go"
)

type History struct {
	OrderID string
	From    orders.Status
	To      orders.Status
	ActorID string
	Reason  string
}

// MemStore implements orders.Store with the same write rules as the SQL repo.
type MemStore struct {
	mu      sync.Mutex
	orders  map[string]*orders.Order
	items   map[string][]orders.OrderItem
	History []History

	// StatusWrites counts UpdateStatus calls that reached the store.
	StatusWrites int
	// FailUpdate, when set, is returned by every UpdateStatus call.
	FailUpdate error
}

var _ orders.Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		orders: map[string]*orders.Order{},
		items:  map[string][]orders.OrderItem{},
	}
}

func (m *MemStore) Add(o orders.Order, items ...orders.OrderItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().Add(time.Duration(len(m.orders)) * time.Second)
	}
	o.UpdatedAt = o.CreatedAt
	for i := range items {
		items[i].OrderID = o.ID
	}
	m.orders[o.ID] = &o
	m.items[o.ID] = items
}

// Order returns a copy of the stored order.
func (m *MemStore) Order(id string) orders.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.orders[id]; ok {
		return *o
	}
	return orders.Order{}
}

func (m *MemStore) GetOrderStatus(_ context.Context, id string) (orders.Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return "", orders.ErrOrderNotFound
	}
	return o.Status, nil
}

func (m *MemStore) GetOrder(ctx context.Context, id string) (orders.OrderDetail, error) {
	ds, _ := m.GetOrdersWithItems(ctx, []string{id})
	if len(ds) == 0 {
		return orders.OrderDetail{}, orders.ErrOrderNotFound
	}
	return ds[0], nil
}

func (m *MemStore) GetOrdersWithItems(_ context.Context, ids []string) ([]orders.OrderDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []orders.OrderDetail
	for _, id := range ids {
		if o, ok := m.orders[id]; ok {
			out = append(out, orders.OrderDetail{
				Order: *o,
				Items: append([]orders.OrderItem(nil), m.items[id]...),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemStore) ListOptionItems(_ context.Context, ids []string) ([]orders.OrderItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []orders.OrderItem
	for _, id := range ids {
		for _, it := range m.items[id] {
			if it.OptionID != nil {
				out = append(out, it)
			}
		}
	}
	return out, nil
}

func (m *MemStore) ListOrders(_ context.Context, f orders.ListFilter) (orders.Page, error) {
	f = f.Normalize()
	m.mu.Lock()
	defer m.mu.Unlock()

	q := strings.ToLower(strings.TrimSpace(f.Search))
	var match []orders.Order
	for _, o := range m.orders {
		if f.Status != nil && o.Status != *f.Status {
			continue
		}
		switch {
		case f.Assigned == "":
		case f.Assigned == orders.AssignedNone:
			if o.AssignedAdminID != nil {
				continue
			}
		default:
			if o.AssignedAdminID == nil || *o.AssignedAdminID != f.Assigned {
				continue
			}
		}
		if q != "" && !containsAny(q, o.OrderCode, o.CustomerEmail, o.CustomerName, o.CustomerPhone) {
			continue
		}
		if f.From != nil && o.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && !o.CreatedAt.Before(*f.To) {
			continue
		}
		match = append(match, *o)
	}
	less := func(a, b orders.Order) bool {
		switch f.Sort {
		case orders.SortUpdatedAt:
			return a.UpdatedAt.Before(b.UpdatedAt)
		case orders.SortTotalAmount:
			return a.TotalAmount < b.TotalAmount
		}
		return a.CreatedAt.Before(b.CreatedAt)
	}
	sort.Slice(match, func(i, j int) bool {
		if f.Desc {
			return less(match[j], match[i])
		}
		return less(match[i], match[j])
	})

	p := orders.Page{Orders: []orders.Order{}, Total: len(match), Page: f.Page, PageSize: f.PageSize}
	start := (f.Page - 1) * f.PageSize
	if start < len(match) {
		end := start + f.PageSize
		if end > len(match) {
			end = len(match)
		}
		p.Orders = append(p.Orders, match[start:end]...)
	}
	return p, nil
}

func containsAny(q string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

func (m *MemStore) CountByStatus(context.Context) (map[orders.Status]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[orders.Status]int{}
	for _, s := range orders.AllStatuses {
		out[s] = 0
	}
	for _, o := range m.orders {
		out[o.Status]++
	}
	return out, nil
}

func (m *MemStore) UpdateStatus(_ context.Context, u orders.StatusUpdate) ([]orders.StatusChange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailUpdate != nil {
		return nil, m.FailUpdate
	}
	m.StatusWrites++

	var changes []orders.StatusChange
	for _, id := range u.OrderIDs {
		o, ok := m.orders[id]
		if !ok || !u.Matches(o.Status) {
			continue
		}
		c := orders.StatusChange{OrderID: id, From: o.Status, To: u.To}
		o.Status = u.To
		o.UpdatedAt = time.Now()
		changes = append(changes, c)
		if c.From != c.To {
			m.History = append(m.History, History{OrderID: id, From: c.From, To: c.To, ActorID: u.ActorID, Reason: u.Reason})
		}
	}
	return changes, nil
}

func (m *MemStore) update(id string, fn func(o *orders.Order)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return orders.ErrOrderNotFound
	}
	fn(o)
	o.UpdatedAt = time.Now()
	return nil
}

func (m *MemStore) SetAssignedAdmin(_ context.Context, id string, adminID *string) error {
	return m.update(id, func(o *orders.Order) { o.AssignedAdminID = adminID })
}

func (m *MemStore) SetHandlerAdmin(_ context.Context, id string, adminID *string) error {
	return m.update(id, func(o *orders.Order) {
		if adminID != nil && (o.HandlerAdminID == nil || *o.HandlerAdminID != *adminID) {
			now := time.Now()
			o.HandledAt = &now
		}
		o.HandlerAdminID = adminID
	})
}

func (m *MemStore) SetAdminMemo(_ context.Context, id string, memo *string) error {
	return m.update(id, func(o *orders.Order) { o.AdminMemo = memo })
}

func (m *MemStore) SaveShipping(_ context.Context, id string, info orders.ShippingInfo) (orders.Order, error) {
	var out orders.Order
	err := m.update(id, func(o *orders.Order) {
		if (o.TrackingNumber == nil || *o.TrackingNumber == "") && info.TrackingNumber != "" {
			now := time.Now()
			o.ShippedAt = &now
		}
		company, tracking := info.Company, info.TrackingNumber
		o.ShippingCompany = &company
		o.TrackingNumber = &tracking
		out = *o
	})
	return out, err
}

// Admins is an in-memory admins.Store.
type Admins map[string]admins.Admin

func (a Admins) GetAdmin(_ context.Context, id string) (admins.Admin, error) {
	if v, ok := a[id]; ok {
		return v, nil
	}
	return admins.Admin{}, admins.ErrNotFound
}

func (a Admins) ListActive(context.Context) ([]admins.Admin, error) {
	var out []admins.Admin
	for _, v := range a {
		if v.Active {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayName < out[j].DisplayName })
	return out, nil
}

func (a Admins) SetActive(_ context.Context, id string, active bool) error {
	v, ok := a[id]
	if !ok {
		return admins.ErrNotFound
	}
	v.Active = active
	a[id] = v
	return nil
}

// Recorder is a kafka.Publisher that keeps what it was given.
type Recorder struct {
	mu       sync.Mutex
	Messages []kafkago.Message
}

func (r *Recorder) Publish(key, value []byte, headers ...kafkago.Header) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Messages = append(r.Messages, kafkago.Message{Key: key, Value: value, Headers: headers})
}

func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Messages)
}

// Payments is a PaymentCanceller that records calls and returns Err.
type Payments struct {
	Err   error
	Calls []string
}

func (p *Payments) Cancel(_ context.Context, paymentID, reason string) error {
	p.Calls = append(p.Calls, paymentID+":"+reason)
	return p.Err
}
