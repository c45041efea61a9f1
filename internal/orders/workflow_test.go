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

func TestBulkGuardSkipsIncompleteOptions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.add("A", orders.StatusConsultationRequired, completeItem(), plainItem())
	f.add("B", orders.StatusConsultationRequired, completeItem(), incompleteItem())

	res, err := f.svc.ApplyBulkTransition(ctx, actor, []string{"A", "B"},
		orders.StatusConsultationCompleted, orders.StatusConsultationRequired)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, []string{"B"}, res.SkippedIDs)
	assert.False(t, res.AllBlocked)
	assert.Equal(t, res.Requested, res.Updated+res.Skipped)

	assert.Equal(t, orders.StatusConsultationCompleted, f.store.Order("A").Status)
	assert.Equal(t, orders.StatusConsultationRequired, f.store.Order("B").Status)
}

func TestBulkGuardAllBlocked(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.add("B1", orders.StatusConsultationRequired, incompleteItem())
	f.add("B2", orders.StatusConsultationRequired, incompleteItem(), plainItem())

	res, err := f.svc.ApplyBulkTransition(ctx, actor, []string{"B1", "B2"},
		orders.StatusConsultationCompleted, orders.StatusConsultationRequired)
	require.NoError(t, err)
	assert.True(t, res.AllBlocked)
	assert.Zero(t, res.Updated)
	assert.Equal(t, 2, res.Skipped)
	assert.Zero(t, f.store.StatusWrites, "no write when everything is blocked")
	assert.Zero(t, f.events.Len())
}

func TestBulkEmptySelection(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ApplyBulkTransition(context.Background(), actor, []string{"", ""},
		orders.StatusShipped, orders.StatusConsultationCompleted)
	assert.ErrorIs(t, err, orders.ErrNothingSelected)
}

func TestBulkUnguardedEdgeUpdatesAll(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	// the guard only applies to consultation_required -> consultation_completed
	f.add("X", orders.StatusOnHold, incompleteItem())
	f.add("Y", orders.StatusOnHold, plainItem())

	res, err := f.svc.ApplyBulkTransition(ctx, actor, []string{"X", "Y", "X"},
		orders.StatusConsultationCompleted, orders.StatusOnHold)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Requested)
	assert.Equal(t, 2, res.Updated)
	assert.Zero(t, res.Skipped)
	assert.Zero(t, res.Stale)

	require.Len(t, f.store.History, 2)
	for _, h := range f.store.History {
		assert.Equal(t, orders.StatusOnHold, h.From)
		assert.Equal(t, orders.StatusConsultationCompleted, h.To)
		assert.Equal(t, actor.ID, h.ActorID)
	}

	require.Equal(t, 2, f.events.Len())
	var env orders.Envelope
	require.NoError(t, json.Unmarshal(f.events.Messages[0].Value, &env))
	assert.Equal(t, orders.EventOrderStatusChanged, env.EventType)
	var p orders.StatusChangedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, orders.StatusOnHold, p.From)
	assert.Equal(t, orders.StatusConsultationCompleted, p.To)
	assert.Equal(t, string(f.events.Messages[0].Key), p.OrderID)
}

func TestBulkRejectsEdgeOutsideGraph(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.add("Z", orders.StatusChattingRequired)

	_, err := f.svc.ApplyBulkTransition(ctx, actor, []string{"Z"}, orders.StatusShipped, orders.StatusChattingRequired)
	assert.ErrorIs(t, err, orders.ErrInvalidTransition)

	_, err = f.svc.ApplyBulkTransition(ctx, actor, []string{"Z"}, orders.StatusCancelled, orders.StatusChattingRequired)
	assert.ErrorIs(t, err, orders.ErrInvalidTransition)

	_, err = f.svc.ApplyBulkTransition(ctx, actor, []string{"Z"}, orders.Status("done"), orders.StatusChattingRequired)
	assert.ErrorIs(t, err, orders.ErrUnknownStatus)

	assert.Zero(t, f.store.StatusWrites)
	assert.Equal(t, orders.StatusChattingRequired, f.store.Order("Z").Status)
}

func TestBulkReapplyIsHarmless(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.add("S", orders.StatusConsultationCompleted)

	_, err := f.svc.ApplyBulkTransition(ctx, actor, []string{"S"}, orders.StatusShipped, orders.StatusConsultationCompleted)
	require.NoError(t, err)

	res, err := f.svc.ApplyBulkTransition(ctx, actor, []string{"S"}, orders.StatusShipped, orders.StatusConsultationCompleted)
	require.NoError(t, err)
	assert.Zero(t, res.Updated)
	assert.Equal(t, 1, res.Stale)
	assert.Equal(t, orders.StatusShipped, f.store.Order("S").Status)
	assert.Len(t, f.store.History, 1)
}

func TestBulkStorageFailure(t *testing.T) {
	f := newFixture(t)
	f.add("F", orders.StatusOnHold)
	boom := errors.New("connection reset")
	f.store.FailUpdate = boom

	_, err := f.svc.ApplyBulkTransition(context.Background(), actor, []string{"F"},
		orders.StatusShippingOnHold, orders.StatusOnHold)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, f.events.Len())
}

func TestBulkInvalidatesSourceAndTargetTabs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.add("T", orders.StatusOnHold)

	for _, tab := range []string{"on_hold", "shipping_on_hold", "shipped"} {
		require.NoError(t, f.cache.Set(ctx, tab, "q", 0, []byte("{}")))
	}

	_, err := f.svc.ApplyBulkTransition(ctx, actor, []string{"T"}, orders.StatusShippingOnHold, orders.StatusOnHold)
	require.NoError(t, err)

	for tab, want := range map[string]bool{"on_hold": false, "shipping_on_hold": false, "shipped": true} {
		_, _, ok, err := f.cache.Get(ctx, tab, "q")
		require.NoError(t, err)
		assert.Equal(t, want, ok, tab)
	}
}

func TestSingleTransitionShippingOnHoldToShipped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.add("C", orders.StatusShippingOnHold)

	require.NoError(t, f.svc.ApplySingleTransition(ctx, actor, "C", orders.StatusShipped))
	assert.Equal(t, orders.StatusShipped, f.store.Order("C").Status)
	assert.Equal(t, 1, f.events.Len())

	// same target again: unchanged, no error, no extra write
	require.NoError(t, f.svc.ApplySingleTransition(ctx, actor, "C", orders.StatusShipped))
	assert.Equal(t, orders.StatusShipped, f.store.Order("C").Status)
	assert.Equal(t, 1, f.store.StatusWrites)
}

func TestSingleTransitionErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.add("E", orders.StatusChattingRequired)

	assert.ErrorIs(t, f.svc.ApplySingleTransition(ctx, actor, "nope", orders.StatusShipped), orders.ErrOrderNotFound)
	assert.ErrorIs(t, f.svc.ApplySingleTransition(ctx, actor, "E", orders.StatusShipped), orders.ErrInvalidTransition)
	assert.ErrorIs(t, f.svc.ApplySingleTransition(ctx, actor, "E", orders.Status("x")), orders.ErrUnknownStatus)
	assert.ErrorIs(t, f.svc.ApplySingleTransition(ctx, actor, "", orders.StatusShipped), orders.ErrNothingSelected)
	assert.Equal(t, orders.StatusChattingRequired, f.store.Order("E").Status)
}

func TestMarkShipped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.add("M1", orders.StatusConsultationCompleted)
	f.add("M2", orders.StatusShippingOnHold)

	changes, err := f.svc.MarkShipped(ctx, actor, []string{"M1", "M2"}, "manifest")
	require.NoError(t, err)
	assert.Len(t, changes, 2)
	for _, id := range []string{"M1", "M2"} {
		assert.Equal(t, orders.StatusShipped, f.store.Order(id).Status)
	}
	assert.Equal(t, "manifest", f.store.History[0].Reason)
}

func TestMarkShippedLeavesUnshippableOrders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.add("ok", orders.StatusConsultationCompleted)
	f.add("gone", orders.StatusCancelled)
	f.add("early", orders.StatusChattingRequired)

	changes, err := f.svc.MarkShipped(ctx, actor, []string{"ok", "gone", "early"}, "manifest")
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "ok", changes[0].OrderID)
	assert.Equal(t, orders.StatusCancelled, f.store.Order("gone").Status)
	assert.Equal(t, orders.StatusChattingRequired, f.store.Order("early").Status)
	assert.Equal(t, 1, f.events.Len())
}
