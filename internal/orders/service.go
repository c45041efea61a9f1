package orders

import (
	"context"
	"time"

	"github.com/ariefcatur/go-admin-orders/internal/admins"
	kafkax "github.com/ariefcatur/go-admin-orders/internal/kafka"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ListCache is implemented by redisx.ListCache.
type ListCache interface {
	Get(ctx context.Context, tab, query string) (page []byte, version int64, ok bool, err error)
	Set(ctx context.Context, tab, query string, version int64, page []byte) error
	GetCounts(ctx context.Context) ([]byte, bool, error)
	SetCounts(ctx context.Context, counts []byte) error
	Invalidate(ctx context.Context, tabs ...string) error
}

type PaymentCanceller interface {
	Cancel(ctx context.Context, paymentID, reason string) error
}

type AdminLookup interface {
	GetAdmin(ctx context.Context, id string) (admins.Admin, error)
}

// Service holds the consultation workflow and the other admin operations on
// orders. Cache, Events, Notices and Payments are optional; a nil one turns
// the matching side effect off.
type Service struct {
	Store       Store
	Admins      AdminLookup
	Cache       ListCache
	Events      kafkax.Publisher // TopicStatusChanged
	Notices     kafkax.Publisher // TopicShippingNotify
	Payments    PaymentCanceller
	Log         *zap.Logger
	ServiceName string
}

func (s *Service) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

// writeStatus performs the status write and, when anything moved, its side
// effects: list cache invalidation for every touched tab and one event per order.
func (s *Service) writeStatus(ctx context.Context, u StatusUpdate) ([]StatusChange, error) {
	changes, err := s.Store.UpdateStatus(ctx, u)
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return changes, nil
	}

	tabs := []Status{u.To}
	if u.From != "" {
		tabs = append(tabs, u.From)
	}
	for _, c := range changes {
		tabs = append(tabs, c.From)
	}
	s.invalidate(ctx, tabs...)

	for _, c := range changes {
		if c.From == c.To {
			continue
		}
		s.publishStatusChanged(ctx, c, u.ActorID, u.Reason)
	}
	return changes, nil
}

func (s *Service) invalidate(ctx context.Context, tabs ...Status) {
	if s.Cache == nil {
		return
	}
	names := make([]string, 0, len(tabs))
	for _, t := range tabs {
		names = append(names, string(t))
	}
	if err := s.Cache.Invalidate(ctx, names...); err != nil {
		s.log().Warn("list cache invalidation failed", zap.Strings("tabs", names), zap.Error(err))
	}
}

func (s *Service) envelope(ctx context.Context, eventType, orderID string, payload any) Envelope {
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		TraceID:       middleware.GetReqID(ctx),
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
}

func (s *Service) publishStatusChanged(ctx context.Context, c StatusChange, actorID, reason string) {
	if s.Events == nil {
		return
	}
	ev := s.envelope(ctx, EventOrderStatusChanged, c.OrderID, StatusChangedPayload{
		OrderID: c.OrderID,
		From:    c.From,
		To:      c.To,
		ActorID: actorID,
		Reason:  reason,
	})
	s.Events.Publish(PartitionKey(c.OrderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(EventOrderStatusChanged)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (s *Service) publishShippingNotice(ctx context.Context, o Order) {
	if s.Notices == nil {
		return
	}
	p := ShippingNotificationPayload{
		OrderID:        o.ID,
		OrderCode:      o.OrderCode,
		RecipientName:  o.RecipientName,
		RecipientPhone: o.RecipientPhone,
	}
	if o.ShippingCompany != nil {
		p.ShippingCompany = *o.ShippingCompany
	}
	if o.TrackingNumber != nil {
		p.TrackingNumber = *o.TrackingNumber
	}
	ev := s.envelope(ctx, EventShippingNotificationRequested, o.ID, p)
	s.Notices.Publish(PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(EventShippingNotificationRequested)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
