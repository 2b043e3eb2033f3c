package pipeline

import (
	"github.com/ginjaninja78/inflightpayment/internal/logging"
	"github.com/ginjaninja78/inflightpayment/internal/types"
)

// PayloadJoiner builds the outbound payload from validated customers and
// purchases.
type PayloadJoiner struct {
	logger logging.Logger
}

// NewPayloadJoiner creates a PayloadJoiner.
func NewPayloadJoiner(logger logging.Logger) *PayloadJoiner {
	return &PayloadJoiner{logger: logger}
}

// Join emits one entry per customer id that has at least one valid purchase,
// in the order those ids first appeared in the purchases file. Ids without a
// valid customer record are skipped with a warning.
func (j *PayloadJoiner) Join(customers map[types.CustomerID]types.CustomerRecord, purchases *types.Buckets[types.PurchaseRecord]) []types.PayloadEntry {
	payload := make([]types.PayloadEntry, 0, purchases.Len())

	for _, id := range purchases.Keys() {
		customer, ok := customers[id]
		if !ok {
			j.logger.Warn("no valid customer for id %q; skipping its purchases", id)
			continue
		}
		list, _ := purchases.Get(id)

		// Copy so later appends to the bucket cannot alias the payload.
		ordered := make([]types.PurchaseRecord, len(list))
		copy(ordered, list)

		payload = append(payload, types.PayloadEntry{
			CustomerRecord: customer,
			Purchases:      [][]types.PurchaseRecord{ordered},
		})
	}

	return payload
}
