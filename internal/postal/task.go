package postal

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// TypeImport is the asynq task type for postal import batches.
const TypeImport = "postal:import"

// ImportPayload carries one batch of postal code rows to import.
type ImportPayload struct {
	Addresses []Address `json:"addresses"`
}

// NewImportTask builds an asynq task for a postal import batch.
func NewImportTask(addresses []Address) (*asynq.Task, error) {
	payload, err := json.Marshal(ImportPayload{Addresses: addresses})
	if err != nil {
		return nil, fmt.Errorf("postal: marshal import payload: %w", err)
	}
	return asynq.NewTask(TypeImport, payload, asynq.MaxRetry(3)), nil
}
