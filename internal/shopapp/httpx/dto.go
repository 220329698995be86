package httpx

import "time"

type AddItemRequest struct {
	ProductID   string `json:"product_id"`
	VariationID string `json:"variation_id,omitempty"`
	Quantity    int    `json:"quantity"`
}

type ProductResponse struct {
	ID       string `json:"id"`
	SKU      string `json:"sku"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Currency string `json:"currency"`
}

type CartItemResponse struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	VariationID string `json:"variation_id,omitempty"`
	Quantity    int    `json:"quantity"`
}

type CartResponse struct {
	ID    string             `json:"id"`
	Items []CartItemResponse `json:"items"`
}

type OrderItemResponse struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	VariationID string `json:"variation_id,omitempty"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Status      string `json:"status"`
}

type OrderResponse struct {
	ID       string              `json:"id"`
	Status   string              `json:"status"`
	Total    string              `json:"total"`
	Currency string              `json:"currency"`
	Items    []OrderItemResponse `json:"items"`
}

type ConfirmationResponse struct {
	OrderID       string    `json:"order_id"`
	Status        string    `json:"status"`
	CurrentStep   string    `json:"current_step,omitempty"`
	ErrorMessages string    `json:"error_messages,omitempty"`
	TraceID       string    `json:"trace_id,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
