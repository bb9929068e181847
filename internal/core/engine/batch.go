package engine

import (
	"context"
	"sync"

	"auditor/internal/core/invoice"
	"auditor/internal/core/rules"
	"auditor/internal/platform/logger"
)

// AuditBatch runs AuditAll over a collection of invoices with a
// bounded worker pool. Results line up index-for-index with the input.
// Cancellation stops dispatching new invoices; workers already running
// finish their current invoice, and the context error is returned with
// the results produced so far
func (e *Engine) AuditBatch(ctx context.Context, invs []invoice.Invoice, rctx rules.Context) ([]AggregateResult, error) {
	out := make([]AggregateResult, len(invs))

	var wg sync.WaitGroup
	sem := make(chan struct{}, e.cfg.Workers)

	for i := range invs {
		select {
		case <-ctx.Done():
			wg.Wait()
			logger.C(ctx).Warn().Int("dispatched", i).Int("total", len(invs)).Msg("audit batch cancelled")
			return out[:i], ctx.Err()
		case sem <- struct{}{}:
		}
		// the select can win the semaphore while cancellation is
		// already pending
		if err := ctx.Err(); err != nil {
			<-sem
			wg.Wait()
			logger.C(ctx).Warn().Int("dispatched", i).Int("total", len(invs)).Msg("audit batch cancelled")
			return out[:i], err
		}
		wg.Add(1)
		go func(i int) {
			defer func() { <-sem; wg.Done() }()
			out[i] = e.AuditAll(invs[i], rctx)
		}(i)
	}
	wg.Wait()
	return out, nil
}
