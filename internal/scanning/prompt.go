package scanning

import "strings"

// Categories is the closed spending taxonomy the model may choose from.
// The normalizer collapses anything outside this set to "other".
var Categories = []string{
	"food",
	"transport",
	"shopping",
	"entertainment",
	"medical",
	"education",
	"housing",
	"communication",
	"other",
}

// receiptPrompt is the shared instruction used by all vision providers. It
// pins the output to a single flat JSON object so the extractor's
// first-brace-span scan works even when the model wraps the reply in
// markdown fences or reasoning prose.
var receiptPrompt = `You are a bookkeeping assistant that reads payment confirmation screenshots.
Analyze the attached screenshot, extract the transaction and return it as a pure JSON object:
{
  "date": "transaction date in YYYY-MM-DD format",
  "merchant": "merchant or counterparty name",
  "amount": the amount as a number without any currency symbol,
  "type": "income or expense",
  "category": "exactly one of: ` + strings.Join(Categories, ", ") + `"
}
Rules:
1. Return ONLY the JSON object, no other text and no markdown code fences
2. The amount must be a bare number, never include currency marks such as ¥ or $
3. If the date cannot be read from the image, use today's date
4. Red envelopes, transfers received and refunds have type "income"
5. If the screenshot shows multiple transactions, extract only the one with the largest amount`
