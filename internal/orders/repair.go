package orders

import (
	"context"
	"time"
)

// RepairUncleared finishes the cart-clear step for orders created before
// cutoff that never recorded it. It returns how many orders were repaired.
// A failure on one order is logged and does not stop the sweep.
func (c *Composer) RepairUncleared(ctx context.Context, cutoff time.Time) (int, error) {
	pending, err := c.orders.ListUncleared(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	repaired := 0
	for _, order := range pending {
		if err := c.finishClear(ctx, order); err != nil {
			c.log.Error().Err(err).Str("orderId", order.ID.Hex()).Msg("repair failed")
			continue
		}
		repaired++
	}
	if repaired > 0 {
		c.log.Info().Int("repaired", repaired).Int("pending", len(pending)).Msg("uncleared orders repaired")
	}
	return repaired, nil
}

// RunRepair sweeps every interval until ctx is cancelled. Orders younger than
// grace are left alone so an in-flight PlaceOrder can finish on its own.
func (c *Composer) RunRepair(ctx context.Context, interval, grace time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepCtx, cancel := context.WithTimeout(ctx, interval)
			if _, err := c.RepairUncleared(sweepCtx, c.now().Add(-grace)); err != nil {
				c.log.Error().Err(err).Msg("repair sweep failed")
			}
			cancel()
		}
	}
}
