package orders

import (
	"context"
	"fmt"

	"github.com/ariefcatur/go-admin-orders/internal/admins"
	"go.uber.org/zap"
)

// BulkResult reports a bulk transition. Skipped counts orders held back by the
// option guard; Stale counts orders that had already left the source status.
type BulkResult struct {
	Requested  int      `json:"requested"`
	Updated    int      `json:"updated"`
	Skipped    int      `json:"skipped"`
	Stale      int      `json:"stale"`
	AllBlocked bool     `json:"all_blocked"`
	SkippedIDs []string `json:"skipped_ids,omitempty"`
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func checkEdge(from, to Status) error {
	if !from.Valid() || !to.Valid() {
		return ErrUnknownStatus
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// ApplyBulkTransition moves the selected orders of the source tab to target.
// On consultation_required -> consultation_completed, orders with an item
// whose option is not configured are left where they are.
func (s *Service) ApplyBulkTransition(ctx context.Context, actor admins.Admin, orderIDs []string, target, source Status) (BulkResult, error) {
	ids := dedupe(orderIDs)
	if len(ids) == 0 {
		return BulkResult{}, ErrNothingSelected
	}
	if err := checkEdge(source, target); err != nil {
		return BulkResult{}, err
	}

	log := s.log().With(
		zap.String("actor", actor.ID),
		zap.String("from", string(source)),
		zap.String("to", string(target)),
	)
	res := BulkResult{Requested: len(ids)}

	eligible := ids
	if isGuardedEdge(source, target) {
		items, err := s.Store.ListOptionItems(ctx, ids)
		if err != nil {
			return BulkResult{}, fmt.Errorf("load option items: %w", err)
		}
		blocked := map[string]bool{}
		for _, it := range items {
			if it.Incomplete() {
				blocked[it.OrderID] = true
			}
		}
		eligible = make([]string, 0, len(ids))
		for _, id := range ids {
			if blocked[id] {
				res.SkippedIDs = append(res.SkippedIDs, id)
				continue
			}
			eligible = append(eligible, id)
		}
		res.Skipped = len(res.SkippedIDs)
		if len(eligible) == 0 {
			res.AllBlocked = true
			log.Info("bulk transition blocked by option guard", zap.Int("skipped", res.Skipped))
			return res, nil
		}
	}

	changes, err := s.writeStatus(ctx, StatusUpdate{
		OrderIDs: eligible,
		From:     source,
		To:       target,
		ActorID:  actor.ID,
	})
	if err != nil {
		log.Error("bulk transition failed", zap.Int("orders", len(eligible)), zap.Error(err))
		return BulkResult{}, fmt.Errorf("update status: %w", err)
	}
	res.Updated = len(changes)
	res.Stale = len(eligible) - len(changes)

	log.Info("bulk transition applied",
		zap.Int("updated", res.Updated),
		zap.Int("skipped", res.Skipped),
		zap.Int("stale", res.Stale))
	return res, nil
}

// ApplySingleTransition moves one order from its current status to target.
// Asking for the status the order already has is a no-op.
func (s *Service) ApplySingleTransition(ctx context.Context, actor admins.Admin, orderID string, target Status) error {
	if orderID == "" {
		return ErrNothingSelected
	}
	if !target.Valid() {
		return ErrUnknownStatus
	}
	current, err := s.Store.GetOrderStatus(ctx, orderID)
	if err != nil {
		return err
	}
	if current == target {
		return nil
	}
	if err := checkEdge(current, target); err != nil {
		return err
	}

	changes, err := s.writeStatus(ctx, StatusUpdate{
		OrderIDs: []string{orderID},
		From:     current,
		To:       target,
		ActorID:  actor.ID,
	})
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if len(changes) == 0 {
		return ErrStatusConflict
	}
	s.log().Info("order transitioned",
		zap.String("order_id", orderID),
		zap.String("actor", actor.ID),
		zap.String("from", string(current)),
		zap.String("to", string(target)))
	return nil
}

// MarkShipped moves the given orders to shipped. Only orders whose status at
// write time can move to shipped are written; an order that was cancelled or
// sent back after the caller checked it is left alone and missing from the
// returned changes.
func (s *Service) MarkShipped(ctx context.Context, actor admins.Admin, orderIDs []string, reason string) ([]StatusChange, error) {
	ids := dedupe(orderIDs)
	if len(ids) == 0 {
		return nil, ErrNothingSelected
	}
	changes, err := s.writeStatus(ctx, StatusUpdate{
		OrderIDs:  ids,
		FromAnyOf: SourcesOf(StatusShipped),
		To:        StatusShipped,
		ActorID:   actor.ID,
		Reason:    reason,
	})
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	return changes, nil
}
