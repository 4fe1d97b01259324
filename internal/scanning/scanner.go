package scanning

import "context"

// Fields contains the normalized transaction data extracted from one
// payment screenshot.
type Fields struct {
	Date     string  `json:"date"` // YYYY-MM-DD
	Merchant string  `json:"merchant"`
	Amount   float64 `json:"amount"`
	Type     string  `json:"type"`     // income or expense
	Category string  `json:"category"` // member of Categories

	// Raw is the unparsed provider output that produced these fields,
	// kept for auditing.
	Raw string `json:"-"`
}

// Scanner defines the interface for payment screenshot recognition.
type Scanner interface {
	// ScanReceipt sends a screenshot to a vision model and extracts
	// normalized transaction fields.
	ScanReceipt(ctx context.Context, image []byte) (*Fields, error)
	// Close closes the scanner and releases resources
	Close() error
}
