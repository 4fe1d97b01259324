package receipt

import (
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/yikzero/snapledger/internal/scanning"
)

var (
	// ErrInvalidImage means the upload body was not decodable base64.
	ErrInvalidImage = errors.New("invalid base64 image data")

	// ErrInvalidInput means a manually supplied field failed validation.
	ErrInvalidInput = errors.New("invalid input")
)

// UploadResult carries the stored record plus whether the image had been
// recorded before. A duplicate is a successful outcome, not an error.
type UploadResult struct {
	Record    *Record
	Duplicate bool
}

// Service handles bookkeeping operations on top of the store and scanner.
type Service struct {
	db      Store
	scanner scanning.Scanner
	log     zerolog.Logger
}

// NewService creates a new Service
func NewService(db Store, scanner scanning.Scanner, log zerolog.Logger) *Service {
	return &Service{
		db:      db,
		scanner: scanner,
		log:     log,
	}
}

// Upload decodes a base64 payment screenshot, short-circuits when the
// exact image bytes have been recorded before, and otherwise runs the
// recognition pipeline and stores the result.
func (s *Service) Upload(ctx context.Context, imageBase64 string) (*UploadResult, error) {
	raw := imageBase64
	if i := strings.IndexByte(raw, ','); i >= 0 {
		// Strip a data:<mime>;base64, prefix when present.
		raw = raw[i+1:]
	}
	image, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	sum := md5.Sum(image)
	hash := hex.EncodeToString(sum[:])

	existing, err := s.db.FindRecordByImageHash(hash)
	if err == nil {
		s.log.Info().
			Uint64("id", existing.ID).
			Str("image_hash", hash).
			Msg("duplicate image upload")
		return &UploadResult{Record: existing, Duplicate: true}, nil
	}
	if !errors.Is(err, ErrRecordNotFound) {
		return nil, fmt.Errorf("looking up image hash: %w", err)
	}

	fields, err := s.scanner.ScanReceipt(ctx, image)
	if err != nil {
		s.log.Error().
			Err(err).
			Int("image_bytes", len(image)).
			Msg("receipt scan failed")
		return nil, err
	}

	rec := &Record{
		Date:        fields.Date,
		Merchant:    fields.Merchant,
		Amount:      fields.Amount,
		Kind:        ParseKind(fields.Type),
		Category:    ParseCategory(fields.Category),
		RawResponse: fields.Raw,
		ImageHash:   hash,
	}

	if err := s.db.InsertRecord(rec); err != nil {
		if errors.Is(err, ErrDuplicateImage) {
			// Lost a race with a concurrent upload of the same image.
			if existing, findErr := s.db.FindRecordByImageHash(hash); findErr == nil {
				return &UploadResult{Record: existing, Duplicate: true}, nil
			}
		}
		return nil, fmt.Errorf("inserting record: %w", err)
	}

	s.log.Info().
		Uint64("id", rec.ID).
		Str("merchant", rec.Merchant).
		Float64("amount", rec.Amount).
		Str("type", string(rec.Kind)).
		Str("category", string(rec.Category)).
		Msg("receipt recorded")

	return &UploadResult{Record: rec}, nil
}

// ManualInput are the fields accepted when adding a record without the AI
// pipeline. Type and Category may be empty and default to expense/other.
type ManualInput struct {
	Date     string
	Merchant string
	Amount   float64
	Type     string
	Category string
}

// ManualAdd inserts a record directly.
func (s *Service) ManualAdd(in ManualInput) (*Record, error) {
	if !validDate(in.Date) {
		return nil, fmt.Errorf("%w: date must be a valid YYYY-MM-DD date", ErrInvalidInput)
	}
	merchant := strings.TrimSpace(in.Merchant)
	if merchant == "" || len([]rune(merchant)) > 100 {
		return nil, fmt.Errorf("%w: merchant must be 1-100 characters", ErrInvalidInput)
	}
	if in.Amount < 0 {
		return nil, fmt.Errorf("%w: amount must not be negative", ErrInvalidInput)
	}

	rec := &Record{
		Date:     in.Date,
		Merchant: merchant,
		Amount:   round2(in.Amount),
		Kind:     ParseKind(in.Type),
		Category: ParseCategory(in.Category),
	}
	if err := s.db.InsertRecord(rec); err != nil {
		return nil, fmt.Errorf("inserting record: %w", err)
	}

	s.log.Info().
		Uint64("id", rec.ID).
		Str("merchant", rec.Merchant).
		Msg("manual record added")
	return rec, nil
}

// UpdateInput holds the optional fields of a partial update; nil means
// leave unchanged.
type UpdateInput struct {
	Date     *string
	Merchant *string
	Amount   *float64
	Type     *string
	Category *string
}

// Update applies a partial update to an existing record. Kind and
// category pass through the same closed-set coercion as the AI path, so
// invalid values never persist.
func (s *Service) Update(id uint64, in UpdateInput) (*Record, error) {
	rec, err := s.db.GetRecord(id)
	if err != nil {
		return nil, err
	}

	if in.Date != nil {
		if !validDate(*in.Date) {
			return nil, fmt.Errorf("%w: date must be a valid YYYY-MM-DD date", ErrInvalidInput)
		}
		rec.Date = *in.Date
	}
	if in.Merchant != nil {
		m := strings.TrimSpace(*in.Merchant)
		if m == "" || len([]rune(m)) > 100 {
			return nil, fmt.Errorf("%w: merchant must be 1-100 characters", ErrInvalidInput)
		}
		rec.Merchant = m
	}
	if in.Amount != nil {
		if *in.Amount < 0 {
			return nil, fmt.Errorf("%w: amount must not be negative", ErrInvalidInput)
		}
		rec.Amount = round2(*in.Amount)
	}
	if in.Type != nil {
		rec.Kind = ParseKind(*in.Type)
	}
	if in.Category != nil {
		rec.Category = ParseCategory(*in.Category)
	}

	if err := s.db.UpdateRecord(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Delete removes a record permanently.
func (s *Service) Delete(id uint64) error {
	if err := s.db.DeleteRecord(id); err != nil {
		return err
	}
	s.log.Info().Uint64("id", id).Msg("record deleted")
	return nil
}

// Get retrieves a record by id.
func (s *Service) Get(id uint64) (*Record, error) {
	return s.db.GetRecord(id)
}

// List returns one filtered, ordered page of records plus the total match
// count.
func (s *Service) List(f ListFilter) ([]*Record, int, error) {
	records, err := s.db.ListRecords()
	if err != nil {
		return nil, 0, fmt.Errorf("listing records: %w", err)
	}
	items, total := FilterRecords(records, f)
	return items, total, nil
}

// MonthlyStats aggregates one month, defaulting to the current one when
// year or month are zero.
func (s *Service) MonthlyStats(year, month int) (MonthStats, error) {
	now := time.Now()
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}

	records, err := s.db.ListRecordsByDatePrefix(fmt.Sprintf("%04d-%02d", year, month))
	if err != nil {
		return MonthStats{}, fmt.Errorf("listing month records: %w", err)
	}
	return AggregateMonth(records), nil
}

// YearlyStats aggregates one year, defaulting to the current one when
// year is zero.
func (s *Service) YearlyStats(year int) (YearStats, error) {
	if year == 0 {
		year = time.Now().Year()
	}

	records, err := s.db.ListRecordsByDatePrefix(fmt.Sprintf("%04d", year))
	if err != nil {
		return YearStats{}, fmt.Errorf("listing year records: %w", err)
	}
	return AggregateYear(year, records), nil
}
