package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ariefcatur/go-admin-orders/internal/admins"
	"go.uber.org/zap"
)

type DetailView struct {
	OrderDetail
	Pricing    Reconciliation `json:"pricing"`
	Navigation Navigation     `json:"navigation"`
}

func (s *Service) Get(ctx context.Context, orderID string) (DetailView, error) {
	d, err := s.Store.GetOrder(ctx, orderID)
	if err != nil {
		return DetailView{}, err
	}
	if d.Items == nil {
		d.Items = []OrderItem{}
	}
	return DetailView{
		OrderDetail: d,
		Pricing:     Reconcile(d),
		Navigation:  NavigationFor(d.Status),
	}, nil
}

func (s *Service) ensureAdmin(ctx context.Context, adminID *string) error {
	if adminID == nil {
		return nil
	}
	a, err := s.Admins.GetAdmin(ctx, *adminID)
	if errors.Is(err, admins.ErrNotFound) || (err == nil && !a.Active) {
		return ErrAdminNotFound
	}
	return err
}

func normalizeRef(id *string) *string {
	if id == nil {
		return nil
	}
	v := strings.TrimSpace(*id)
	if v == "" {
		return nil
	}
	return &v
}

// AssignAdmin sets or clears the intake admin of an order.
func (s *Service) AssignAdmin(ctx context.Context, actor admins.Admin, orderID string, adminID *string) error {
	adminID = normalizeRef(adminID)
	if err := s.ensureAdmin(ctx, adminID); err != nil {
		return err
	}
	if err := s.Store.SetAssignedAdmin(ctx, orderID, adminID); err != nil {
		return err
	}
	s.invalidate(ctx, AllStatuses...)
	s.log().Info("order assignee changed",
		zap.String("order_id", orderID), zap.String("actor", actor.ID), zap.Stringp("assignee", adminID))
	return nil
}

// SetHandler sets or clears the consultation handler. handled_at is stamped
// by the store when the handler changes to someone new and is kept on clear.
func (s *Service) SetHandler(ctx context.Context, actor admins.Admin, orderID string, adminID *string) error {
	adminID = normalizeRef(adminID)
	if err := s.ensureAdmin(ctx, adminID); err != nil {
		return err
	}
	if err := s.Store.SetHandlerAdmin(ctx, orderID, adminID); err != nil {
		return err
	}
	s.invalidate(ctx, AllStatuses...)
	s.log().Info("order handler changed",
		zap.String("order_id", orderID), zap.String("actor", actor.ID), zap.Stringp("handler", adminID))
	return nil
}

func (s *Service) SetMemo(ctx context.Context, actor admins.Admin, orderID string, memo *string) error {
	if memo != nil && strings.TrimSpace(*memo) == "" {
		memo = nil
	}
	if err := s.Store.SetAdminMemo(ctx, orderID, memo); err != nil {
		return err
	}
	s.invalidate(ctx, AllStatuses...)
	s.log().Debug("order memo saved", zap.String("order_id", orderID), zap.String("actor", actor.ID))
	return nil
}

// SaveShipping records courier and tracking number, then asks for a shipping
// notification. The notification is best-effort and never fails the save.
func (s *Service) SaveShipping(ctx context.Context, actor admins.Admin, orderID string, info ShippingInfo) (Order, error) {
	info.Company = strings.TrimSpace(info.Company)
	info.TrackingNumber = strings.TrimSpace(info.TrackingNumber)
	if info.Company == "" || info.TrackingNumber == "" {
		return Order{}, fmt.Errorf("%w: shipping_company and tracking_number", ErrMissingField)
	}
	o, err := s.Store.SaveShipping(ctx, orderID, info)
	if err != nil {
		return Order{}, err
	}
	s.invalidate(ctx, o.Status)
	s.publishShippingNotice(ctx, o)
	s.log().Info("shipping info saved",
		zap.String("order_id", orderID),
		zap.String("actor", actor.ID),
		zap.String("company", info.Company))
	return o, nil
}

// Cancel cancels the payment first and only then marks the order cancelled.
func (s *Service) Cancel(ctx context.Context, actor admins.Admin, orderID, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return fmt.Errorf("%w: reason", ErrMissingField)
	}
	d, err := s.Store.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if d.Status == StatusCancelled {
		return ErrAlreadyCancelled
	}
	if d.PaymentID == nil || *d.PaymentID == "" {
		return ErrNoPayment
	}
	if s.Payments == nil {
		return fmt.Errorf("%w: no payment client configured", ErrPaymentCancel)
	}

	log := s.log().With(zap.String("order_id", orderID), zap.String("actor", actor.ID))
	if err := s.Payments.Cancel(ctx, *d.PaymentID, reason); err != nil {
		log.Error("payment cancellation failed", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrPaymentCancel, err)
	}

	changes, err := s.writeStatus(ctx, StatusUpdate{
		OrderIDs: []string{orderID},
		From:     d.Status,
		To:       StatusCancelled,
		ActorID:  actor.ID,
		Reason:   reason,
	})
	if err != nil {
		log.Error("payment cancelled but status write failed", zap.Error(err))
		return fmt.Errorf("update status: %w", err)
	}
	if len(changes) == 0 {
		log.Error("payment cancelled but order status moved concurrently")
		return ErrStatusConflict
	}
	log.Info("order cancelled", zap.String("from", string(d.Status)))
	return nil
}
