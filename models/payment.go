package models

// AuthorizationRequest asks the payment gateway for a manual-capture
// hold on the customer's payment method.
type AuthorizationRequest struct {
	CustomerID     string
	Amount         float64
	Currency       string
	IdempotencyKey string
	Description    string
	Metadata       map[string]string
}

// PriceQuote is the computed price for a booking request.
type PriceQuote struct {
	Base     float64 `json:"base"`
	Travel   float64 `json:"travel,omitempty"`
	AddOns   float64 `json:"addOns,omitempty"`
	Total    float64 `json:"total"`
	Currency string  `json:"currency"`
}
