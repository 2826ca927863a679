package rest

import (
	"net/http"
	"strconv"

	"shopmall-be/internal/order"
	"shopmall-be/internal/utils"

	"github.com/go-chi/chi/v5"
)

type createOrderResponse struct {
	OrderNum string `json:"order_num"`
}

type deleteTempResponse struct {
	Deleted int `json:"deleted"`
}

func authIDOf(r *http.Request) string {
	id, _ := utils.GetAuthIDFromContext(r.Context())
	return id
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req order.CreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, "invalid order request")
		return
	}

	num, err := h.orders.Create(r.Context(), authIDOf(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createOrderResponse{OrderNum: num})
}

// ListOrders takes a 1-indexed ?page=, defaulting to the first page.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeBadRequest(w, r, "page must be a number")
			return
		}
		page = n
	}

	out, err := h.orders.ListMyOrders(r.Context(), authIDOf(r), page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) OrderDetail(w http.ResponseWriter, r *http.Request) {
	d, err := h.orders.Detail(r.Context(), chi.URLParam(r, "orderNum"), authIDOf(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// CancelOrder refunds a paid order before cancelling it.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	orderNum := chi.URLParam(r, "orderNum")
	if err := h.reconciler.CancelOrder(r.Context(), orderNum, authIDOf(r)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"order_num": orderNum, "status": string(order.StatusCancelled)})
}

func (h *Handler) DeleteTempOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.DeleteTempOrder(r.Context(), chi.URLParam(r, "orderNum"), authIDOf(r)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteTempOrders is called by the storefront when the payment window
// reports a failure.
func (h *Handler) DeleteTempOrders(w http.ResponseWriter, r *http.Request) {
	n, err := h.orders.DeleteAllTempOrders(r.Context(), authIDOf(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteTempResponse{Deleted: n})
}
