// Package shipping builds the courier manifest for ready-to-ship orders.
package shipping

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ariefcatur/go-admin-orders/internal/admins"
	"github.com/ariefcatur/go-admin-orders/internal/orders"
	"go.uber.org/zap"
)

var ErrNotReadyToShip = errors.New("orders not ready to ship")

type OrderReader interface {
	GetOrdersWithItems(ctx context.Context, ids []string) ([]orders.OrderDetail, error)
}

// ShipMarker is implemented by *orders.Service.
type ShipMarker interface {
	MarkShipped(ctx context.Context, actor admins.Admin, orderIDs []string, reason string) ([]orders.StatusChange, error)
}

type Export struct {
	Filename string `json:"filename"`
	File     []byte `json:"file"`
	Count    int    `json:"count"`
	// Stale lists order codes that left a shippable status between the read
	// and the write. They are not in the file and were not shipped.
	Stale []string `json:"stale,omitempty"`
}

type Exporter struct {
	Orders   OrderReader
	Workflow ShipMarker
	Log      *zap.Logger
	Now      func() time.Time
}

func (e *Exporter) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

func (e *Exporter) log() *zap.Logger {
	if e.Log == nil {
		return zap.NewNop()
	}
	return e.Log
}

func (e *Exporter) load(ctx context.Context, orderIDs []string) ([]orders.OrderDetail, error) {
	if len(orderIDs) == 0 {
		return nil, orders.ErrNothingSelected
	}
	details, err := e.Orders.GetOrdersWithItems(ctx, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}
	if len(details) == 0 {
		return nil, orders.ErrOrdersNotFound
	}
	return details, nil
}

func (e *Exporter) render(details []orders.OrderDetail) (Export, error) {
	b, err := RenderManifest(details)
	if err != nil {
		return Export{}, err
	}
	return Export{
		Filename: fmt.Sprintf("shipping_%s.xlsx", e.now().Format("20060102_150405")),
		File:     b,
		Count:    len(details),
	}, nil
}

// ExportOnly renders the manifest without touching order status.
func (e *Exporter) ExportOnly(ctx context.Context, orderIDs []string) (Export, error) {
	details, err := e.load(ctx, orderIDs)
	if err != nil {
		return Export{}, err
	}
	return e.render(details)
}

// ExportAndAdvance renders the manifest and moves every exported order to
// shipped. No file is returned when the status write fails.
func (e *Exporter) ExportAndAdvance(ctx context.Context, actor admins.Admin, orderIDs []string) (Export, error) {
	details, err := e.load(ctx, orderIDs)
	if err != nil {
		return Export{}, err
	}

	var notReady []string
	ids := make([]string, 0, len(details))
	for _, d := range details {
		if !orders.CanTransition(d.Status, orders.StatusShipped) {
			notReady = append(notReady, d.OrderCode)
		}
		ids = append(ids, d.ID)
	}
	if len(notReady) > 0 {
		return Export{}, fmt.Errorf("%w: %s", ErrNotReadyToShip, strings.Join(notReady, ", "))
	}

	out, err := e.render(details)
	if err != nil {
		return Export{}, err
	}
	changes, err := e.Workflow.MarkShipped(ctx, actor, ids, "shipping manifest exported")
	if err != nil {
		e.log().Error("manifest rendered but status write failed", zap.Int("orders", len(ids)), zap.Error(err))
		return Export{}, err
	}

	if len(changes) < len(details) {
		moved := make(map[string]bool, len(changes))
		for _, c := range changes {
			moved[c.OrderID] = true
		}
		shipped := make([]orders.OrderDetail, 0, len(changes))
		var stale []string
		for _, d := range details {
			if moved[d.ID] {
				shipped = append(shipped, d)
			} else {
				stale = append(stale, d.OrderCode)
			}
		}
		e.log().Warn("orders changed status during export", zap.Strings("order_codes", stale))
		if len(shipped) == 0 {
			return Export{}, fmt.Errorf("%w: %s", orders.ErrStatusConflict, strings.Join(stale, ", "))
		}
		if out, err = e.render(shipped); err != nil {
			return Export{}, err
		}
		out.Stale = stale
	}

	e.log().Info("shipping manifest exported",
		zap.String("actor", actor.ID),
		zap.Int("orders", out.Count),
		zap.Int("advanced", len(changes)))
	return out, nil
}
