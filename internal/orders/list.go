package orders

import (
	"context"
	"encoding/json"

	kafkax "github.com/ariefcatur/go-admin-orders/internal/kafka"
	"github.com/ariefcatur/go-admin-orders/internal/redisx"
	"go.uber.org/zap"
)

func tabOf(f ListFilter) string {
	if f.Status == nil {
		return redisx.TabAll
	}
	return string(*f.Status)
}

// List serves a page of orders, from the list cache when possible.
// Cache errors are logged and fall through to the store.
func (s *Service) List(ctx context.Context, f ListFilter) (Page, error) {
	f = f.Normalize()
	if f.Status != nil && !f.Status.Valid() {
		return Page{}, ErrUnknownStatus
	}
	if s.Cache == nil {
		return s.Store.ListOrders(ctx, f)
	}

	tab := tabOf(f)
	query := string(kafkax.MustMarshal(f))
	b, ver, ok, cacheErr := s.Cache.Get(ctx, tab, query)
	if cacheErr != nil {
		s.log().Warn("list cache read failed", zap.String("tab", tab), zap.Error(cacheErr))
	} else if ok {
		var p Page
		if err := json.Unmarshal(b, &p); err == nil {
			return p, nil
		}
	}

	p, err := s.Store.ListOrders(ctx, f)
	if err != nil {
		return Page{}, err
	}
	// without a version there is nothing safe to write under
	if cacheErr != nil {
		return p, nil
	}
	if b, err := json.Marshal(p); err == nil {
		if err := s.Cache.Set(ctx, tab, query, ver, b); err != nil {
			s.log().Warn("list cache write failed", zap.String("tab", tab), zap.Error(err))
		}
	}
	return p, nil
}

// Counts returns the number of orders per status tab.
func (s *Service) Counts(ctx context.Context) (map[Status]int, error) {
	if s.Cache != nil {
		if b, ok, err := s.Cache.GetCounts(ctx); err == nil && ok {
			var m map[Status]int
			if json.Unmarshal(b, &m) == nil {
				return m, nil
			}
		}
	}
	m, err := s.Store.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	if s.Cache != nil {
		if err := s.Cache.SetCounts(ctx, kafkax.MustMarshal(m)); err != nil {
			s.log().Warn("counts cache write failed", zap.Error(err))
		}
	}
	return m, nil
}
