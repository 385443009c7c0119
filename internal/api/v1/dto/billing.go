package dto

// CheckoutRequest starts a hosted checkout for a plan. Quantity is the seat
// count for per-seat plans and defaults to 1.
type CheckoutRequest struct {
	Plan     string `json:"plan" validate:"required"`
	Quantity int    `json:"quantity" validate:"omitempty,min=1,max=1000"`
}

// URLResponse carries the Stripe hosted page to redirect to.
type URLResponse struct {
	URL string `json:"url"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// WebhookResponse acknowledges a processed Stripe event.
type WebhookResponse struct {
	Received bool `json:"received"`
}
