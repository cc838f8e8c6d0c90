// Package http exposes the cart engine over a JSON REST API.
package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/trusttec/cart-service/internal/domain"
	"github.com/trusttec/cart-service/internal/service"
	apperrors "github.com/trusttec/cart-service/pkg/errors"
	"github.com/trusttec/cart-service/pkg/validator"
)

// CartService is the engine surface the handler drives.
type CartService interface {
	AddItem(ctx context.Context, p service.ProductInput) (service.Outcome, error)
	UpdateQuantity(ctx context.Context, id string, requested float64) (service.Outcome, error)
	RemoveItem(ctx context.Context, id string) (service.Outcome, error)
	Clear(ctx context.Context) (service.Outcome, error)
	Totals(ctx context.Context) domain.CartTotals
	State(ctx context.Context) (domain.Cart, domain.CartTotals)
	OrderSummary() domain.OrderSummary
}

// CartHandler serves the cart endpoints.
type CartHandler struct {
	service   CartService
	orderLink *OrderLinkBuilder
}

func NewCartHandler(service CartService, orderLink *OrderLinkBuilder) *CartHandler {
	return &CartHandler{service: service, orderLink: orderLink}
}

func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.getCart)
		r.Delete("/", h.clearCart)
		r.Get("/totals", h.getTotals)
		r.Get("/order-link", h.getOrderLink)
		r.Route("/items", func(r chi.Router) {
			r.Post("/", h.addItem)
			r.Put("/{id}", h.updateQuantity)
			r.Delete("/{id}", h.removeItem)
		})
	})
}

type addItemRequest struct {
	ID       string  `json:"id" validate:"required"`
	Name     string  `json:"name" validate:"required"`
	Price    float64 `json:"price" validate:"min=0"`
	ImageURL string  `json:"img"`
}

type updateQuantityRequest struct {
	Quantity float64 `json:"quantity"`
}

type cartResponse struct {
	Items  domain.Cart       `json:"items"`
	Totals domain.CartTotals `json:"totals"`
}

type mutationResponse struct {
	Outcome service.Outcome   `json:"outcome"`
	Items   domain.Cart       `json:"items"`
	Totals  domain.CartTotals `json:"totals"`
	Warning string            `json:"warning,omitempty"`
}

type orderLinkResponse struct {
	URL        string  `json:"url"`
	TotalPrice float64 `json:"total_price"`
	Currency   string  `json:"currency"`
}

func (h *CartHandler) getCart(w http.ResponseWriter, r *http.Request) {
	items, totals := h.service.State(r.Context())
	respondJSON(w, http.StatusOK, cartResponse{
		Items:  items,
		Totals: totals,
	})
}

func (h *CartHandler) getTotals(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.service.Totals(r.Context()))
}

func (h *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req addItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	outcome, err := h.service.AddItem(ctx, service.ProductInput{
		ID:        req.ID,
		Name:      req.Name,
		UnitPrice: req.Price,
		ImageURL:  req.ImageURL,
	})

	status := http.StatusOK
	if outcome.Kind == service.OutcomeAdded {
		status = http.StatusCreated
	}
	h.finishMutation(ctx, w, status, outcome, err)
}

func (h *CartHandler) updateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req updateQuantityRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	outcome, err := h.service.UpdateQuantity(ctx, id, req.Quantity)
	h.finishMutation(ctx, w, http.StatusOK, outcome, err)
}

func (h *CartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	outcome, err := h.service.RemoveItem(ctx, chi.URLParam(r, "id"))
	h.finishMutation(ctx, w, http.StatusOK, outcome, err)
}

func (h *CartHandler) clearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	outcome, err := h.service.Clear(ctx)
	h.finishMutation(ctx, w, http.StatusOK, outcome, err)
}

func (h *CartHandler) getOrderLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	summary := h.service.OrderSummary()
	link, ok := h.orderLink.Build(summary)
	if !ok {
		respondError(ctx, w, &apperrors.AppError{
			Code:    "EMPTY_CART",
			Message: "cannot build an order link for an empty cart",
			Status:  http.StatusConflict,
			Err:     apperrors.ErrInvalidInput,
		})
		return
	}

	respondJSON(w, http.StatusOK, orderLinkResponse{
		URL:        link,
		TotalPrice: summary.TotalPrice,
		Currency:   h.orderLink.currency,
	})
}

// finishMutation returns the outcome together with the resulting cart so
// clients never need a follow-up read to refresh their view. A persistence
// failure does not undo the mutation, so it is reported as a warning on an
// otherwise successful response rather than as an error.
func (h *CartHandler) finishMutation(ctx context.Context, w http.ResponseWriter, status int, outcome service.Outcome, err error) {
	var warning string
	if err != nil {
		if !errors.Is(err, apperrors.ErrPersistence) {
			respondError(ctx, w, err)
			return
		}
		warning = "cart state was updated but could not be persisted"
	}

	items, totals := h.service.State(ctx)
	respondJSON(w, status, mutationResponse{
		Outcome: outcome,
		Items:   items,
		Totals:  totals,
		Warning: warning,
	})
}
