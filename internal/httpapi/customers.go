package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"log/slog"

	"github.com/ezmobilemechanic/crm/internal/domain/customers"
	"github.com/ezmobilemechanic/crm/internal/domain/orders"
)

func registerCustomerRoutes(mux *http.ServeMux, logger *slog.Logger, service customers.Service, orderService orders.Service) {
	mux.HandleFunc("/v1/customers", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handleCustomerList(w, r, logger, service)
		case http.MethodPost:
			handleCustomerCreate(w, r, logger, service)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	// Serves /v1/customers/bulk, /v1/customers/{id} and /v1/customers/{id}/orders.
	mux.HandleFunc("/v1/customers/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/customers/"), "/")
		if rest == "" {
			respondError(w, http.StatusBadRequest, "missing customer id")
			return
		}

		if rest == "bulk" {
			if r.Method != http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			handleCustomerBulkCreate(w, r, logger, service)
			return
		}

		if id, ok := strings.CutSuffix(rest, "/orders"); ok {
			if r.Method != http.MethodGet {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			handleCustomerOrders(w, r, logger, service, orderService, id)
			return
		}

		if strings.Contains(rest, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		switch r.Method {
		case http.MethodGet:
			customer, err := service.Get(r.Context(), rest)
			if err != nil {
				writeCustomerError(w, logger, "get customer", err)
				return
			}
			respondJSON(w, http.StatusOK, customer)
		case http.MethodPatch:
			handleCustomerUpdate(w, r, logger, service, rest)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

func handleCustomerList(w http.ResponseWriter, r *http.Request, logger *slog.Logger, service customers.Service) {
	query := r.URL.Query()
	offset, limit, ok := parsePage(w, query)
	if !ok {
		return
	}

	filter, err := parseCustomerFilter(query)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	results, err := service.List(r.Context(), filter, offset, limit)
	if err != nil {
		writeCustomerError(w, logger, "list customers", err)
		return
	}
	respondList(w, results, len(results))
}

func handleCustomerCreate(w http.ResponseWriter, r *http.Request, logger *slog.Logger, service customers.Service) {
	var input customers.CreateInput
	if !decodeJSON(w, r, &input) {
		return
	}

	customer, err := service.Create(r.Context(), input)
	if err != nil {
		writeCustomerError(w, logger, "create customer", err)
		return
	}
	respondJSON(w, http.StatusCreated, customer)
}

func handleCustomerBulkCreate(w http.ResponseWriter, r *http.Request, logger *slog.Logger, service customers.Service) {
	var payload struct {
		Customers []customers.CreateInput `json:"customers"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}
	if len(payload.Customers) == 0 {
		respondError(w, http.StatusBadRequest, "customers list is required")
		return
	}

	result, err := service.BulkCreate(r.Context(), payload.Customers)
	if err != nil {
		writeCustomerError(w, logger, "bulk create customers", err)
		return
	}

	status := http.StatusCreated
	if len(result.Customers) == 0 {
		status = http.StatusBadRequest
	}
	respondJSON(w, status, result)
}

func handleCustomerUpdate(w http.ResponseWriter, r *http.Request, logger *slog.Logger, service customers.Service, id string) {
	var input customers.UpdateInput
	if !decodeJSON(w, r, &input) {
		return
	}

	customer, err := service.Update(r.Context(), id, input)
	if err != nil {
		writeCustomerError(w, logger, "update customer", err)
		return
	}
	respondJSON(w, http.StatusOK, customer)
}

func handleCustomerOrders(w http.ResponseWriter, r *http.Request, logger *slog.Logger, service customers.Service, orderService orders.Service, id string) {
	offset, limit, ok := parsePage(w, r.URL.Query())
	if !ok {
		return
	}

	if _, err := service.Get(r.Context(), id); err != nil {
		writeCustomerError(w, logger, "get customer", err)
		return
	}

	list, err := orderService.ListForCustomer(r.Context(), id, offset, limit)
	if err != nil {
		writeOrderError(w, logger, "list customer orders", err)
		return
	}
	respondList(w, list, len(list))
}

func writeCustomerError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	var verr *customers.ValidationError
	switch {
	case errors.As(err, &verr):
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": verr.Message, "field": verr.Field})
	case errors.Is(err, customers.ErrNotImplemented):
		respondError(w, http.StatusNotImplemented, op+" not yet implemented")
	case errors.Is(err, customers.ErrNotFound):
		respondError(w, http.StatusNotFound, "customer not found")
	case errors.Is(err, customers.ErrEmailExists):
		respondError(w, http.StatusConflict, "email already exists")
	default:
		logger.Error(op+" failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
