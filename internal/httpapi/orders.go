package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/ezmobilemechanic/crm/internal/domain/customers"
	"github.com/ezmobilemechanic/crm/internal/domain/orders"
	"github.com/ezmobilemechanic/crm/internal/domain/products"
)

func registerOrderRoutes(mux *http.ServeMux, logger *slog.Logger, service orders.Service) {
	mux.HandleFunc("/v1/orders", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handleOrderList(w, r, logger, service)
		case http.MethodPost:
			var input orders.CreateInput
			if !decodeJSON(w, r, &input) {
				return
			}
			input.CustomerID = strings.TrimSpace(input.CustomerID)
			if input.CustomerID == "" {
				respondError(w, http.StatusBadRequest, "customer_id is required")
				return
			}
			order, err := service.Create(r.Context(), input)
			if err != nil {
				writeOrderError(w, logger, "create order", err)
				return
			}
			respondJSON(w, http.StatusCreated, order)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/v1/orders/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/orders/"), "/")
		if id == "" {
			respondError(w, http.StatusBadRequest, "missing order id")
			return
		}

		order, err := service.Get(r.Context(), id)
		if err != nil {
			writeOrderError(w, logger, "get order", err)
			return
		}
		respondJSON(w, http.StatusOK, order)
	})
}

// handleOrderList returns matching orders. since=<RFC3339|YYYY-MM-DD> keeps
// only those on or after it and takes precedence over the range filters.
func handleOrderList(w http.ResponseWriter, r *http.Request, logger *slog.Logger, service orders.Service) {
	var (
		list []orders.Order
		err  error
	)

	query := r.URL.Query()
	if v := query.Get("since"); v != "" {
		since, perr := parseSince(v)
		if perr != nil {
			respondError(w, http.StatusBadRequest, "invalid since parameter")
			return
		}
		list, err = service.ListSince(r.Context(), since)
	} else {
		offset, limit, ok := parsePage(w, query)
		if !ok {
			return
		}
		filter, ferr := parseOrderFilter(query)
		if ferr != nil {
			respondError(w, http.StatusBadRequest, ferr.Error())
			return
		}
		list, err = service.List(r.Context(), filter, offset, limit)
	}
	if err != nil {
		writeOrderError(w, logger, "list orders", err)
		return
	}
	respondList(w, list, len(list))
}

func parseSince(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, v)
}

func writeOrderError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	switch {
	case errors.Is(err, orders.ErrNoProducts):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, customers.ErrNotFound), errors.Is(err, products.ErrNotFound):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, orders.ErrNotFound):
		respondError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, orders.ErrNotImplemented):
		respondError(w, http.StatusNotImplemented, op+" not yet implemented")
	default:
		logger.Error(op+" failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
