package receipt

import "time"

// DateLayout is the canonical record date format.
const DateLayout = "2006-01-02"

// Kind classifies a record as money in or money out.
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

// ParseKind maps free-form input onto the closed kind set. Anything that
// is not exactly "income" becomes an expense, matching the normalization
// fallback on the AI path.
func ParseKind(s string) Kind {
	if s == string(KindIncome) {
		return KindIncome
	}
	return KindExpense
}

// Category is the closed spending taxonomy.
type Category string

const (
	CategoryFood          Category = "food"
	CategoryTransport     Category = "transport"
	CategoryShopping      Category = "shopping"
	CategoryEntertainment Category = "entertainment"
	CategoryMedical       Category = "medical"
	CategoryEducation     Category = "education"
	CategoryHousing       Category = "housing"
	CategoryCommunication Category = "communication"
	CategoryOther         Category = "other"
)

// AllCategories lists the closed category set in display order.
var AllCategories = []Category{
	CategoryFood,
	CategoryTransport,
	CategoryShopping,
	CategoryEntertainment,
	CategoryMedical,
	CategoryEducation,
	CategoryHousing,
	CategoryCommunication,
	CategoryOther,
}

// ParseCategory maps free-form input onto the closed category set;
// unrecognized values collapse to CategoryOther so raw model output never
// persists.
func ParseCategory(s string) Category {
	for _, c := range AllCategories {
		if s == string(c) {
			return c
		}
	}
	return CategoryOther
}

// Record is one recognized or manually entered income/expense event.
type Record struct {
	ID       uint64   `json:"id"`
	Date     string   `json:"date"` // YYYY-MM-DD
	Merchant string   `json:"merchant"`
	Amount   float64  `json:"amount"`
	Kind     Kind     `json:"type"`
	Category Category `json:"category"`

	// RawResponse keeps the unparsed provider output for debugging.
	// Empty for manually entered records.
	RawResponse string `json:"raw_response,omitempty"`

	// ImageHash is the MD5 of the source screenshot, unique across
	// records when set. Empty for manual entries.
	ImageHash string `json:"image_hash,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func validDate(s string) bool {
	t, err := time.Parse(DateLayout, s)
	return err == nil && t.Format(DateLayout) == s
}
