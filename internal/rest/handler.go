package rest

import (
	"net/http"

	"shopmall-be/internal/cart"
	"shopmall-be/internal/checkout"
	"shopmall-be/internal/middleware"
	"shopmall-be/internal/order"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	carts      cart.Service
	orders     order.Service
	reconciler checkout.Reconciler
}

func NewHandler(carts cart.Service, orders order.Service, reconciler checkout.Reconciler) *Handler {
	return &Handler{carts: carts, orders: orders, reconciler: reconciler}
}

// Routes mounts the storefront API. Cart endpoints accept anonymous shoppers;
// everything else needs a signed-in member.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api/cart", func(r chi.Router) {
		r.Post("/", h.AddCart)
		r.Put("/", h.ModifyCart)
		r.Get("/", h.GetCart)
		r.Delete("/", h.ClearCart)
		r.Get("/order-summary", h.OrderSummary)
		r.With(middleware.RequireMember).Post("/merge", h.MergeCart)
	})

	r.Route("/api/orders", func(r chi.Router) {
		r.Use(middleware.RequireMember)
		r.Post("/", h.CreateOrder)
		r.Get("/", h.ListOrders)
		r.Delete("/temp", h.DeleteTempOrders)
		r.Get("/{orderNum}", h.OrderDetail)
		r.Post("/{orderNum}/cancel", h.CancelOrder)
		r.Delete("/{orderNum}/temp", h.DeleteTempOrder)
	})

	r.With(middleware.RequireMember).Post("/api/payments/validate", h.ValidatePayment)
}

// Health reports liveness.
func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}
