// Package notify sends the "your order has shipped" message to customers.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	kafkax "github.com/ariefcatur/go-admin-orders/internal/kafka"
	"github.com/ariefcatur/go-admin-orders/internal/orders"
	"github.com/ariefcatur/go-admin-orders/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Sender interface {
	Send(ctx context.Context, m Message) error
}

type Service struct {
	Sender       Sender
	Redis        *redis.Client
	TemplateCode string
	ServiceName  string
	Log          *zap.Logger
}

// HandleShippingRequested is the consumer handler for TopicShippingNotify.
// Only undecodable input is returned as an error; provider failures are
// logged so the offset still gets committed.
func (s *Service) HandleShippingRequested(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if env.EventType != orders.EventShippingNotificationRequested {
		return nil
	}
	log := s.Log.With(zap.String("event_id", env.EventID), zap.String("order_id", env.CorrelationID))

	if s.Redis != nil {
		key := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
		first, err := redisx.MarkOnce(ctx, s.Redis, key, redisx.TTLDedup)
		if err != nil {
			log.Warn("dedup check failed, sending anyway", zap.Error(err))
		} else if !first {
			log.Debug("duplicate event skipped")
			return nil
		}
	}

	p, err := kafkax.UnwrapPayload[orders.ShippingNotificationPayload](env.Payload)
	if err != nil {
		return err
	}
	to := normalizePhone(p.RecipientPhone)
	if to == "" {
		log.Warn("no recipient phone, notification skipped")
		return nil
	}

	msg := Message{
		TemplateCode: s.TemplateCode,
		To:           to,
		Variables: map[string]string{
			"orderCode":       p.OrderCode,
			"recipientName":   p.RecipientName,
			"shippingCompany": p.ShippingCompany,
			"trackingNumber":  p.TrackingNumber,
		},
	}
	if err := s.Sender.Send(ctx, msg); err != nil {
		log.Warn("shipping notification failed", zap.Error(err))
		return nil
	}
	log.Info("shipping notification sent", zap.String("order_code", p.OrderCode))
	return nil
}

// normalizePhone keeps digits only: "010-1234-5678" -> "01012345678".
func normalizePhone(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
