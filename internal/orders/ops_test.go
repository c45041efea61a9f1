package orders_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ariefcatur/go-admin-orders/internal/orders"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func TestHandlerSetsHandledAtAndKeepsItOnClear(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.add("D", orders.StatusConsultationRequired)
	require.Nil(t, f.store.Order("D").HandledAt)

	require.NoError(t, f.svc.SetHandler(ctx, actor, "D", strp("adm-2")))
	d := f.store.Order("D")
	require.NotNil(t, d.HandledAt)
	first := *d.HandledAt

	require.NoError(t, f.svc.SetHandler(ctx, actor, "D", nil))
	d = f.store.Order("D")
	assert.Nil(t, d.HandlerAdminID)
	require.NotNil(t, d.HandledAt)
	assert.Equal(t, first, *d.HandledAt)
}

func TestAssignAdminValidatesAdmin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.add("G", orders.StatusChattingRequired)

	assert.ErrorIs(t, f.svc.AssignAdmin(ctx, actor, "G", strp("ghost")), orders.ErrAdminNotFound)
	assert.ErrorIs(t, f.svc.AssignAdmin(ctx, actor, "G", strp("adm-off")), orders.ErrAdminNotFound)
	assert.ErrorIs(t, f.svc.AssignAdmin(ctx, actor, "missing", strp("adm-2")), orders.ErrOrderNotFound)

	require.NoError(t, f.svc.AssignAdmin(ctx, actor, "G", strp(" adm-2 ")))
	assert.Equal(t, "adm-2", *f.store.Order("G").AssignedAdminID)

	require.NoError(t, f.svc.AssignAdmin(ctx, actor, "G", strp("")))
	assert.Nil(t, f.store.Order("G").AssignedAdminID)
}

func TestSetMemoBlankClears(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.add("H", orders.StatusOnHold)

	require.NoError(t, f.svc.SetMemo(ctx, actor, "H", strp("부재중, 재연락")))
	assert.Equal(t, "부재중, 재연락", *f.store.Order("H").AdminMemo)
	require.NoError(t, f.svc.SetMemo(ctx, actor, "H", strp("   ")))
	assert.Nil(t, f.store.Order("H").AdminMemo)
}

func TestSaveShippingNotifies(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.add("K", orders.StatusShipped)

	_, err := f.svc.SaveShipping(ctx, actor, "K", orders.ShippingInfo{Company: "CJ대한통운"})
	assert.ErrorIs(t, err, orders.ErrMissingField)
	assert.Zero(t, f.notices.Len())

	o, err := f.svc.SaveShipping(ctx, actor, "K", orders.ShippingInfo{Company: "CJ대한통운", TrackingNumber: " 6543210987 "})
	require.NoError(t, err)
	assert.Equal(t, "6543210987", *o.TrackingNumber)
	assert.NotNil(t, o.ShippedAt)

	require.Equal(t, 1, f.notices.Len())
	var env orders.Envelope
	require.NoError(t, json.Unmarshal(f.notices.Messages[0].Value, &env))
	assert.Equal(t, orders.EventShippingNotificationRequested, env.EventType)
	var p orders.ShippingNotificationPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, "ORD-K", p.OrderCode)
	assert.Equal(t, "6543210987", p.TrackingNumber)
}

func TestSaveShippingWithoutNotifierStillSaves(t *testing.T) {
	f := newFixture(t)
	f.svc.Notices = nil
	f.add("L", orders.StatusShipped)

	_, err := f.svc.SaveShipping(context.Background(), actor, "L", orders.ShippingInfo{Company: "한진", TrackingNumber: "1"})
	require.NoError(t, err)
	assert.Equal(t, "1", *f.store.Order("L").TrackingNumber)
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store.Add(orders.Order{ID: "P", OrderCode: "ORD-P", Status: orders.StatusConsultationRequired, PaymentID: strp("pay_123")})

	require.NoError(t, f.svc.Cancel(ctx, actor, "P", "고객 요청"))
	assert.Equal(t, []string{"pay_123:고객 요청"}, f.payments.Calls)
	assert.Equal(t, orders.StatusCancelled, f.store.Order("P").Status)
	require.Len(t, f.store.History, 1)
	assert.Equal(t, "고객 요청", f.store.History[0].Reason)

	assert.ErrorIs(t, f.svc.Cancel(ctx, actor, "P", "again"), orders.ErrAlreadyCancelled)
}

func TestCancelPaymentFailureLeavesStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store.Add(orders.Order{ID: "Q", OrderCode: "ORD-Q", Status: orders.StatusOnHold, PaymentID: strp("pay_9")})
	f.payments.Err = errors.New("gateway 500")

	err := f.svc.Cancel(ctx, actor, "Q", "중복 결제")
	assert.ErrorIs(t, err, orders.ErrPaymentCancel)
	assert.Equal(t, orders.StatusOnHold, f.store.Order("Q").Status)
	assert.Zero(t, f.store.StatusWrites)
}

func TestCancelValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.add("R", orders.StatusOnHold)

	assert.ErrorIs(t, f.svc.Cancel(ctx, actor, "R", " "), orders.ErrMissingField)
	assert.ErrorIs(t, f.svc.Cancel(ctx, actor, "R", "x"), orders.ErrNoPayment)
	assert.ErrorIs(t, f.svc.Cancel(ctx, actor, "none", "x"), orders.ErrOrderNotFound)
	assert.Empty(t, f.payments.Calls)
}

func TestGetDetail(t *testing.T) {
	f := newFixture(t)
	f.add("V", orders.StatusConsultationCompleted, completeItem())

	v, err := f.svc.Get(context.Background(), "V")
	require.NoError(t, err)
	assert.Len(t, v.Items, 1)
	assert.True(t, v.Pricing.Consistent)
	require.NotNil(t, v.Navigation.Next)
	assert.Equal(t, orders.StatusShipped, *v.Navigation.Next)

	_, err = f.svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, orders.ErrOrderNotFound)
}
