package stock

import (
	"context"

	"golang.org/x/sync/singleflight"
)

var ledgerPageGroup singleflight.Group

// singleflightLedger collapses concurrent identical ledger page reads into a
// single repository query. Dashboard refreshes tend to fan out the same page.
func singleflightLedger(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error, bool) {
	resultChan := ledgerPageGroup.DoChan(key, func() (any, error) {
		return fn(ctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err(), false
	case res := <-resultChan:
		return res.Val, res.Err, res.Shared
	}
}
