package orders_test

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/ariefcatur/go-admin-orders/internal/admins"
	"github.com/ariefcatur/go-admin-orders/internal/orders"
	"github.com/ariefcatur/go-admin-orders/internal/orders/orderstest"
	"github.com/ariefcatur/go-admin-orders/internal/redisx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	actor   = admins.Admin{ID: "adm-1", Username: "kim", DisplayName: "Kim", Role: admins.RoleAdmin, Active: true}
	optID   = "opt-4w"
	setting = []orders.OptionSetting{{Label: "기간", Value: "4주"}}
)

type fixture struct {
	store    *orderstest.MemStore
	events   *orderstest.Recorder
	notices  *orderstest.Recorder
	payments *orderstest.Payments
	cache    *redisx.ListCache
	svc      *orders.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	f := &fixture{
		store:    orderstest.NewMemStore(),
		events:   &orderstest.Recorder{},
		notices:  &orderstest.Recorder{},
		payments: &orderstest.Payments{},
		cache:    redisx.NewListCache(rdb, 0),
	}
	f.svc = &orders.Service{
		Store: f.store,
		Admins: orderstest.Admins{
			actor.ID:  actor,
			"adm-2":   {ID: "adm-2", DisplayName: "Lee", Role: admins.RoleMaster, Active: true},
			"adm-off": {ID: "adm-off", DisplayName: "Park", Role: admins.RoleAdmin, Active: false},
		},
		Cache:       f.cache,
		Events:      f.events,
		Notices:     f.notices,
		Payments:    f.payments,
		Log:         zap.NewNop(),
		ServiceName: "admin-api-test",
	}
	return f
}

func (f *fixture) add(id string, st orders.Status, items ...orders.OrderItem) {
	f.store.Add(orders.Order{
		ID:             id,
		OrderCode:      "ORD-" + id,
		CustomerName:   "고객 " + id,
		CustomerEmail:  id + "@example.com",
		RecipientName:  "수령인 " + id,
		RecipientPhone: "010-0000-0000",
		TotalAmount:    30000,
		Status:         st,
	}, items...)
}

func completeItem() orders.OrderItem {
	return orders.OrderItem{ID: "it-c", ProductName: "다이어트 상담 4주", ProductPrice: 30000, Quantity: 1, OptionID: &optID, OptionSettings: setting}
}

func incompleteItem() orders.OrderItem {
	return orders.OrderItem{ID: "it-i", ProductName: "다이어트 상담 4주", ProductPrice: 30000, Quantity: 1, OptionID: &optID}
}

func plainItem() orders.OrderItem {
	return orders.OrderItem{ID: "it-p", ProductName: "쉐이크", ProductPrice: 15000, Quantity: 2}
}
