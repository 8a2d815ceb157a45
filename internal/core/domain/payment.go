package domain

// CardDetails is the dummy payment form payload. Only transient; never
// persisted or logged.
type CardDetails struct {
	CardNumber string `json:"card_number" validate:"required,min=12,max=19"`
	Expiry     string `json:"expiry" validate:"required"`
	CVV        string `json:"cvv" validate:"required,len=3"`
}
