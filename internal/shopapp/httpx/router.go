package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/products", handler.ListProducts)
	r.Get("/cart", handler.GetCart)
	r.Post("/cart/items", handler.AddItem)
	r.Delete("/cart/items/{productID}", handler.RemoveItem)
	r.Post("/checkout", handler.Checkout)
	r.Get("/orders/{id}", handler.GetOrder)
	r.Get("/orders/{id}/confirmation", handler.GetOrderConfirmation)
	return r
}
