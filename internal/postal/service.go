package postal

import (
	"context"
	"fmt"
	"net/http"
	"regexp"

	"github.com/kikite/backend-order/internal/common"
	"github.com/kikite/backend-order/internal/obs"
)

var postalCodePattern = regexp.MustCompile(`^\d{7}$`)

// LocalStore abstracts the local postal table for the resolver.
type LocalStore interface {
	FindByCode(ctx context.Context, code string) ([]Address, error)
	InsertBatch(ctx context.Context, addresses []Address) (int64, error)
}

// RemoteLookup abstracts the external postal code API.
type RemoteLookup interface {
	Lookup(ctx context.Context, code string) ([]Address, error)
}

// Resolver looks up postal codes, preferring the local table and falling back
// to the zipcloud API. External hits are written back to the local table.
type Resolver struct {
	Store    LocalStore
	Zipcloud RemoteLookup
}

// Lookup resolves one 7-digit postal code to address candidates.
func (r *Resolver) Lookup(ctx context.Context, code string) ([]Address, error) {
	if !postalCodePattern.MatchString(code) {
		return nil, common.NewAppError("VALIDATION_ERROR", "postal code must be 7 digits", http.StatusBadRequest, nil)
	}

	local, err := r.Store.FindByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("postal: local lookup: %w", err)
	}
	if len(local) > 0 {
		if obs.PostalLookupsTotal != nil {
			obs.PostalLookupsTotal.WithLabelValues("local").Inc()
		}
		return local, nil
	}

	remote, err := r.Zipcloud.Lookup(ctx, code)
	if err != nil {
		return nil, common.NewAppError("POSTAL_LOOKUP_FAILED", "postal code lookup failed", http.StatusBadGateway, err)
	}
	if len(remote) == 0 {
		return nil, common.NewAppError("POSTAL_NOT_FOUND", "postal code not found", http.StatusNotFound, nil)
	}
	if obs.PostalLookupsTotal != nil {
		obs.PostalLookupsTotal.WithLabelValues("zipcloud").Inc()
	}
	// best effort write-back so the next lookup stays local
	_, _ = r.Store.InsertBatch(ctx, remote)
	return remote, nil
}
