package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"storefront-service/internal/analytics"
	"storefront-service/internal/domain"
	"storefront-service/internal/infra"
	"storefront-service/internal/infra/metrics"
	"storefront-service/internal/repository"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// AnalyticsService serves per-artisan rollups. Each call reads one
// point-in-time snapshot of the artisan's products and orders. Results are
// cached under a per-artisan version that order writes bump.
type AnalyticsService struct {
	tx       repository.Transactor
	orders   repository.OrderRepository
	products repository.ProductRepository
	cache    infra.Cache
	ttl      time.Duration
	log      *logrus.Logger
	now      func() time.Time

	group singleflight.Group
}

var _ CacheInvalidator = (*AnalyticsService)(nil)

func NewAnalyticsService(
	tx repository.Transactor,
	orders repository.OrderRepository,
	products repository.ProductRepository,
	logger *logrus.Logger,
) *AnalyticsService {
	return &AnalyticsService{
		tx:       tx,
		orders:   orders,
		products: products,
		log:      logger,
		now:      time.Now,
	}
}

// SetCache enables result caching. A nil cache or non-positive ttl disables it.
func (s *AnalyticsService) SetCache(c infra.Cache, ttl time.Duration) {
	if c == nil || ttl <= 0 {
		s.cache, s.ttl = nil, 0
		return
	}
	s.cache, s.ttl = c, ttl
}

func (s *AnalyticsService) SalesTrend(ctx context.Context, actor domain.Actor, tf domain.TimeFrame) ([]analytics.TrendBucket, error) {
	return rollup(ctx, s, actor, analytics.RollupSalesTrend, tf, "", func(snap analytics.Snapshot) ([]analytics.TrendBucket, error) {
		return analytics.SalesTrend(snap, tf), nil
	})
}

func (s *AnalyticsService) TopProducts(ctx context.Context, actor domain.Actor, tf domain.TimeFrame, limit int) ([]analytics.ProductSales, error) {
	limit = analytics.ClampLimit(limit)
	return rollup(ctx, s, actor, analytics.RollupTopProducts, tf, strconv.Itoa(limit), func(snap analytics.Snapshot) ([]analytics.ProductSales, error) {
		return analytics.TopProducts(snap, tf, limit), nil
	})
}

// Categories covers all history regardless of any time frame.
func (s *AnalyticsService) Categories(ctx context.Context, actor domain.Actor) ([]analytics.CategoryShare, error) {
	return rollup(ctx, s, actor, analytics.RollupCategories, "all", "", func(snap analytics.Snapshot) ([]analytics.CategoryShare, error) {
		return analytics.CategoryPerformance(snap), nil
	})
}

func (s *AnalyticsService) Customers(ctx context.Context, actor domain.Actor, tf domain.TimeFrame) (analytics.CustomerInsights, error) {
	return rollup(ctx, s, actor, analytics.RollupCustomers, tf, "", func(snap analytics.Snapshot) (analytics.CustomerInsights, error) {
		return analytics.CustomerInsightsFor(snap, tf), nil
	})
}

func (s *AnalyticsService) Inventory(ctx context.Context, actor domain.Actor) ([]analytics.InventoryItem, error) {
	return rollup(ctx, s, actor, analytics.RollupInventory, "30days", "", func(snap analytics.Snapshot) ([]analytics.InventoryItem, error) {
		return analytics.InventoryInsights(snap), nil
	})
}

func (s *AnalyticsService) Overview(ctx context.Context, actor domain.Actor, tf domain.TimeFrame) (analytics.Overview, error) {
	return rollup(ctx, s, actor, analytics.RollupOverview, tf, "", func(snap analytics.Snapshot) (analytics.Overview, error) {
		return analytics.OverviewFor(snap, tf), nil
	})
}

// Dashboard computes every rollup from a single snapshot in parallel.
func (s *AnalyticsService) Dashboard(ctx context.Context, actor domain.Actor, tf domain.TimeFrame) (analytics.Dashboard, error) {
	return rollup(ctx, s, actor, analytics.RollupDashboard, tf, "", func(snap analytics.Snapshot) (analytics.Dashboard, error) {
		d := analytics.Dashboard{TimeFrame: tf}
		var g errgroup.Group
		g.Go(func() error { d.Overview = analytics.OverviewFor(snap, tf); return nil })
		g.Go(func() error { d.SalesTrend = analytics.SalesTrend(snap, tf); return nil })
		g.Go(func() error {
			d.TopProducts = analytics.TopProducts(snap, tf, analytics.DefaultTopProductsLimit)
			return nil
		})
		g.Go(func() error { d.Categories = analytics.CategoryPerformance(snap); return nil })
		g.Go(func() error { d.Customers = analytics.CustomerInsightsFor(snap, tf); return nil })
		g.Go(func() error { d.Inventory = analytics.InventoryInsights(snap); return nil })
		return d, g.Wait()
	})
}

// rollup serves one cached rollup. Concurrent misses on the same key share
// a single snapshot load.
func rollup[T any](
	ctx context.Context,
	s *AnalyticsService,
	actor domain.Actor,
	name string,
	tf domain.TimeFrame,
	variant string,
	compute func(analytics.Snapshot) (T, error),
) (T, error) {
	var zero T
	if !actor.IsArtisan() || actor.ID == 0 {
		return zero, domain.ErrForbidden
	}

	key := s.cacheKey(ctx, actor.ID, name, tf, variant)
	if key != "" {
		if b, err := s.cache.Get(ctx, key); err == nil {
			var out T
			if err := json.Unmarshal(b, &out); err == nil {
				metrics.RecordCacheLookup(name, true)
				return out, nil
			}
		} else if !errors.Is(err, infra.ErrCacheMiss) {
			s.log.WithField("key", key).Warnf("Analytics cache read failed: %v", err)
		}
		metrics.RecordCacheLookup(name, false)
	}

	flightKey := key
	if flightKey == "" {
		flightKey = fmt.Sprintf("%d:%s:%s:%s", actor.ID, name, tf, variant)
	}
	v, err, _ := s.group.Do(flightKey, func() (any, error) {
		// Callers share this load, so one caller's cancellation must not
		// fail the others.
		ctx := context.WithoutCancel(ctx)
		now := s.now()
		snap, err := s.loadSnapshot(ctx, actor.ID, analytics.LookbackFor(name, tf, now), now)
		if err != nil {
			return nil, err
		}
		out, err := compute(snap)
		if err != nil {
			return nil, err
		}
		if key != "" {
			s.store(ctx, key, out)
		}
		return out, nil
	})
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

func (s *AnalyticsService) loadSnapshot(ctx context.Context, artisanID uint64, since, now time.Time) (analytics.Snapshot, error) {
	snap := analytics.Snapshot{ArtisanID: artisanID, Now: now}
	err := s.tx.WithinReadSnapshot(ctx, func(ctx context.Context) error {
		products, err := s.products.FindByArtisan(ctx, artisanID)
		if err != nil {
			return fmt.Errorf("load products: %w", err)
		}
		orders, err := s.orders.FindByArtisan(ctx, artisanID, since)
		if err != nil {
			return fmt.Errorf("load orders: %w", err)
		}
		snap.Products, snap.Orders = products, orders
		return nil
	})
	return snap, err
}

func versionKey(artisanID uint64) string {
	return fmt.Sprintf("analytics:%d:version", artisanID)
}

// cacheKey returns "" when caching is off or the version cannot be read.
func (s *AnalyticsService) cacheKey(ctx context.Context, artisanID uint64, name string, tf domain.TimeFrame, variant string) string {
	if s.cache == nil {
		return ""
	}
	var version int64
	b, err := s.cache.Get(ctx, versionKey(artisanID))
	switch {
	case err == nil:
		version, err = strconv.ParseInt(string(b), 10, 64)
		if err != nil {
			return ""
		}
	case errors.Is(err, infra.ErrCacheMiss):
	default:
		s.log.WithField("artisan_id", artisanID).Warnf("Analytics cache version read failed: %v", err)
		return ""
	}
	return fmt.Sprintf("analytics:%d:v%d:%s:%s:%s", artisanID, version, name, tf, variant)
}

func (s *AnalyticsService) store(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		s.log.WithField("key", key).Warnf("Analytics cache encode failed: %v", err)
		return
	}
	if err := s.cache.Set(ctx, key, b, s.ttl); err != nil {
		s.log.WithField("key", key).Warnf("Analytics cache write failed: %v", err)
	}
}

// Invalidate bumps each artisan's cache version so later reads miss.
func (s *AnalyticsService) Invalidate(ctx context.Context, artisanIDs ...uint64) {
	if s.cache == nil {
		return
	}
	for _, id := range artisanIDs {
		if _, err := s.cache.Incr(ctx, versionKey(id)); err != nil {
			s.log.WithField("artisan_id", id).Warnf("Analytics cache invalidation failed: %v", err)
		}
	}
}
