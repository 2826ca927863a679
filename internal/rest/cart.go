package rest

import (
	"errors"
	"net/http"
	"time"

	"shopmall-be/internal/auth"
	"shopmall-be/internal/cart"
	"shopmall-be/internal/logger"
	"shopmall-be/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const cartCookieTTL = 30 * 24 * time.Hour

type cartRequest struct {
	Lines []cart.Line `json:"lines"`
}

// Reason values reported when nothing was merged for a known cause.
const reasonMemberCartNotFound = "MEMBER_CART_NOT_FOUND"

type mergeResponse struct {
	Merged bool   `json:"merged"`
	Reason string `json:"reason,omitempty"`
}

// ownerOf resolves whose cart the request touches. Anonymous shoppers
// without a cart id get a fresh one as a cookie when issue is set.
func ownerOf(w http.ResponseWriter, r *http.Request, issue bool) (cart.Owner, bool) {
	ctx := r.Context()
	if memberID, ok := utils.GetMemberIDFromContext(ctx); ok && memberID > 0 {
		return cart.MemberOwner(memberID), true
	}

	cookieID := utils.GetCartIDFromContext(ctx)
	if cookieID == "" {
		if !issue {
			return cart.Owner{}, false
		}
		cookieID = uuid.NewString()
		setCartCookie(w, cookieID, int(cartCookieTTL.Seconds()))
	}
	return cart.CookieOwner(cookieID), true
}

func setCartCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CartCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) AddCart(w http.ResponseWriter, r *http.Request) {
	var req cartRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, "invalid cart request")
		return
	}

	owner, _ := ownerOf(w, r, true)
	c, err := h.carts.AddCart(r.Context(), owner, req.Lines)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) ModifyCart(w http.ResponseWriter, r *http.Request) {
	var req cartRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, "invalid cart request")
		return
	}

	owner, ok := ownerOf(w, r, false)
	if !ok {
		writeError(w, r, cart.ErrCartNotFound)
		return
	}

	c, err := h.carts.ModifyCart(r.Context(), owner, req.Lines)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// GetCart answers an empty cart when the shopper has none yet.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	empty := &cart.View{Items: []cart.ViewItem{}}

	owner, ok := ownerOf(w, r, false)
	if !ok {
		writeJSON(w, http.StatusOK, empty)
		return
	}

	view, err := h.carts.GetCart(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if view == nil {
		view = empty
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerOf(w, r, false)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := h.carts.ClearCart(r.Context(), owner); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// OrderSummary turns the cart, or the single item given by ?item_id=, into
// the figures the order form shows.
func (h *Handler) OrderSummary(w http.ResponseWriter, r *http.Request) {
	var itemID *int64
	if raw := r.URL.Query().Get("item_id"); raw != "" {
		id, err := utils.ParseInt64(raw)
		if err != nil {
			writeBadRequest(w, r, "item_id must be a number")
			return
		}
		itemID = &id
	}

	owner, ok := ownerOf(w, r, false)
	if !ok {
		writeError(w, r, cart.ErrCartNotFound)
		return
	}

	summary, err := h.carts.ToOrderSummary(r.Context(), owner, itemID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// MergeCart folds the anonymous cart into the member's right after login.
// A member without a cart keeps the anonymous one and the reply says why,
// so the client can retry once the member cart exists.
func (h *Handler) MergeCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	memberID, _ := utils.GetMemberIDFromContext(ctx)
	cookieID := utils.GetCartIDFromContext(ctx)
	log := logger.For(ctx, "handler", "MergeCart").With(
		zap.Int64("member_id", memberID),
		zap.String("cookie_id", cookieID),
	)

	merged, err := h.carts.MergeOnLogin(ctx, cookieID, memberID)
	switch {
	case errors.Is(err, cart.ErrCartNotFound):
		log.Warn("member cart missing, anonymous cart kept")
		writeJSON(w, http.StatusOK, mergeResponse{Merged: false, Reason: reasonMemberCartNotFound})
		return
	case err != nil:
		writeError(w, r, err)
		return
	}

	if merged {
		setCartCookie(w, "", -1)
	}
	writeJSON(w, http.StatusOK, mergeResponse{Merged: merged})
}
