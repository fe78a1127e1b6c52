package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/kikite/backend-order/internal/events"
	"github.com/kikite/backend-order/internal/postal"
)

// PostalImporter abstracts the batch insert used by the worker.
type PostalImporter interface {
	InsertBatch(ctx context.Context, addresses []postal.Address) (int64, error)
}

// Handler processes background tasks for the worker process.
type Handler struct {
	Postal PostalImporter
	Bus    *events.Bus
	Logger zerolog.Logger
}

// HandlePostalImport imports one batch of postal code rows.
func (h *Handler) HandlePostalImport(ctx context.Context, t *asynq.Task) error {
	var payload postal.ImportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("tasks: unmarshal postal import: %v: %w", err, asynq.SkipRetry)
	}
	inserted, err := h.Postal.InsertBatch(ctx, payload.Addresses)
	if err != nil {
		return fmt.Errorf("tasks: import postal batch: %w", err)
	}
	h.Logger.Info().
		Int("batch_size", len(payload.Addresses)).
		Int64("inserted", inserted).
		Msg("postal_batch_imported")
	if h.Bus != nil {
		_, _ = h.Bus.Emit(ctx, events.TopicPostalImported, uuid.New(), map[string]any{
			"batchSize": len(payload.Addresses),
			"inserted":  inserted,
		})
	}
	return nil
}

// Register mounts all task handlers on the given mux.
func (h *Handler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(postal.TypeImport, h.HandlePostalImport)
}
