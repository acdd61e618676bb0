package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"pocketbook/internal/amqp"
	applog "pocketbook/internal/log"
	"pocketbook/internal/ports"
	"pocketbook/internal/sheets"
)

// SyncWorker mirrors transaction events into a spreadsheet.
type SyncWorker struct {
	exporter    sheets.TransactionExporter
	concurrency int
}

func NewSyncWorker(exporter sheets.TransactionExporter, concurrency int) *SyncWorker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &SyncWorker{exporter: exporter, concurrency: concurrency}
}

// HandleEvent applies one event to the spreadsheet. It matches amqp.Handler.
func (w *SyncWorker) HandleEvent(ctx context.Context, event *amqp.TransactionEvent) error {
	t := event.Transaction

	switch event.Type {
	case amqp.TransactionCreated:
		ref, err := w.exporter.ExportTransaction(ctx, t)
		if err != nil {
			return fmt.Errorf("export transaction %s: %w", t.ID, err)
		}
		slog.InfoContext(ctx, "Transaction exported",
			append(applog.NewFields().WithTransaction(t).WithComponent(applog.ComponentSheets).ToSlice(),
				"sheets_ref", ref)...)
	case amqp.TransactionDeleted:
		if err := w.exporter.RemoveTransaction(ctx, t); err != nil {
			return fmt.Errorf("remove transaction %s: %w", t.ID, err)
		}
		slog.InfoContext(ctx, "Transaction removed from sheet",
			applog.NewFields().WithTransaction(t).WithComponent(applog.ComponentSheets).WithOperation(applog.OpDelete).ToSlice()...)
	default:
		return fmt.Errorf("unknown event type %q", event.Type)
	}
	return nil
}

// Backfill exports every stored transaction of every user. Exports are
// idempotent, so running it at startup recovers events missed while the
// worker was down.
func (w *SyncWorker) Backfill(ctx context.Context, users ports.UserStore, transactions ports.TransactionStore) (int, error) {
	ids, err := users.ListUserIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	var exported atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)

	for _, userID := range ids {
		g.Go(func() error {
			list, err := transactions.ListTransactions(gctx, userID)
			if err != nil {
				return fmt.Errorf("list transactions for %s: %w", userID, err)
			}
			for _, t := range list {
				if _, err := w.exporter.ExportTransaction(gctx, t); err != nil {
					return fmt.Errorf("export transaction %s: %w", t.ID, err)
				}
				exported.Add(1)
			}
			return nil
		})
	}

	err = g.Wait()
	slog.InfoContext(ctx, "Backfill finished", "users", len(ids), "exported", exported.Load(), "error", err)
	return int(exported.Load()), err
}
