package domain

// Customer represents a customer record with optional contact details
type Customer struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
	Orders  []Order `json:"orders,omitempty"`
}
