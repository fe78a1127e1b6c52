package customer

import (
	"context"
	"net/http"
	"strings"

	"github.com/kikite/backend-order/internal/common"
)

const searchLimit = 20

// Searcher abstracts customer lookup for handlers.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]Customer, error)
}

// Handler exposes HTTP handlers for customer lookup.
type Handler struct {
	Store Searcher
}

// Search handles GET /api/v1/customers/search?q=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		common.JSON(w, http.StatusOK, map[string]any{"data": []Customer{}})
		return
	}
	customers, err := h.Store.Search(r.Context(), query, searchLimit)
	if err != nil {
		common.RenderError(w, err, http.StatusInternalServerError)
		return
	}
	if customers == nil {
		customers = []Customer{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": customers})
}
