package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"log/slog"

	"github.com/ezmobilemechanic/crm/internal/domain/products"
)

func registerProductRoutes(mux *http.ServeMux, logger *slog.Logger, service products.Service) {
	mux.HandleFunc("/v1/products", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			offset, limit, ok := parsePage(w, r.URL.Query())
			if !ok {
				return
			}
			filter, err := parseProductFilter(r.URL.Query())
			if err != nil {
				respondError(w, http.StatusBadRequest, err.Error())
				return
			}
			list, err := service.List(r.Context(), filter, offset, limit)
			if err != nil {
				writeProductError(w, logger, "list products", err)
				return
			}
			respondList(w, list, len(list))
		case http.MethodPost:
			var input products.CreateInput
			if !decodeJSON(w, r, &input) {
				return
			}
			product, err := service.Create(r.Context(), input)
			if err != nil {
				writeProductError(w, logger, "create product", err)
				return
			}
			respondJSON(w, http.StatusCreated, product)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	// POST /v1/products/restock-low adds {"amount": n} (default 10) to every low-stock product.
	mux.HandleFunc("/v1/products/restock-low", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		input := struct {
			Amount *int `json:"amount"`
		}{}
		if r.ContentLength != 0 && !decodeJSON(w, r, &input) {
			return
		}
		amount := products.DefaultRestockAmount
		if input.Amount != nil {
			amount = *input.Amount
		}

		updated, err := service.RestockLow(r.Context(), amount)
		if err != nil {
			writeProductError(w, logger, "restock products", err)
			return
		}
		respondList(w, updated, len(updated))
	})

	mux.HandleFunc("/v1/products/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/products/"), "/")
		if id == "" {
			respondError(w, http.StatusBadRequest, "missing product id")
			return
		}

		product, err := service.Get(r.Context(), id)
		if err != nil {
			writeProductError(w, logger, "get product", err)
			return
		}
		respondJSON(w, http.StatusOK, product)
	})
}

func writeProductError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	switch {
	case errors.Is(err, products.ErrNameRequired),
		errors.Is(err, products.ErrInvalidPrice),
		errors.Is(err, products.ErrInvalidStock),
		errors.Is(err, products.ErrInvalidRestock):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, products.ErrNameExists):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, products.ErrNotFound):
		respondError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, products.ErrNotImplemented):
		respondError(w, http.StatusNotImplemented, op+" not yet implemented")
	default:
		logger.Error(op+" failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
