package receipt

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/yikzero/snapledger/internal/scanning"
)

// recordView is the API shape of a record. The raw provider output and
// the image hash stay internal.
type recordView struct {
	ID        uint64  `json:"id"`
	Date      string  `json:"date"`
	Merchant  string  `json:"merchant"`
	Amount    float64 `json:"amount"`
	Type      string  `json:"type"`
	Category  string  `json:"category"`
	CreatedAt string  `json:"created_at,omitempty"`
}

func viewOf(r *Record) *recordView {
	v := &recordView{
		ID:       r.ID,
		Date:     r.Date,
		Merchant: r.Merchant,
		Amount:   r.Amount,
		Type:     string(r.Kind),
		Category: string(r.Category),
	}
	if !r.CreatedAt.IsZero() {
		v.CreatedAt = r.CreatedAt.Format(time.RFC3339)
	}
	return v
}

// uploadResponse is shared by the upload, manual-add and update
// endpoints.
type uploadResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    *recordView `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// statusForError maps the error taxonomy onto HTTP statuses: client
// mistakes are 4xx, unusable model output is 422, provider trouble is
// 502 and configuration or unexpected faults are 500.
func statusForError(err error) int {
	var (
		transportErr *scanning.TransportError
		parseErr     *scanning.JSONParseError
		missingErr   *scanning.MissingFieldError
		amountErr    *scanning.AmountParseError
	)
	switch {
	case errors.Is(err, ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidImage), errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, scanning.ErrMissingAPIKey):
		return http.StatusInternalServerError
	case errors.As(err, &transportErr):
		return http.StatusBadGateway
	case errors.Is(err, scanning.ErrEmptyResponse),
		errors.Is(err, scanning.ErrNoJSONFound),
		errors.As(err, &parseErr),
		errors.As(err, &missingErr),
		errors.As(err, &amountErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		// Unexpected faults stay opaque unless they are the known
		// configuration error.
		if !errors.Is(err, scanning.ErrMissingAPIKey) {
			writeError(w, status, "internal server error")
			return
		}
	}
	writeError(w, status, err.Error())
}

// handleUploadReceipt accepts a base64 payment screenshot, runs the
// recognition pipeline and stores the result.
func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ImageBase64 string `json:"image_base64"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ImageBase64 == "" {
		writeError(w, http.StatusBadRequest, "image_base64 is required")
		return
	}

	result, err := s.service.Upload(r.Context(), req.ImageBase64)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	rec := result.Record
	message := fmt.Sprintf("recorded: %s - %.2f (%s)", rec.Merchant, rec.Amount, rec.Kind)
	if result.Duplicate {
		message = fmt.Sprintf("already recorded: %s - %.2f", rec.Merchant, rec.Amount)
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Success: true,
		Message: message,
		Data:    viewOf(rec),
	})
}

// handleGetStats returns monthly totals, the category breakdown and the
// daily expense series.
func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	year, ok := intQuery(w, r, "year", 0, 9999)
	if !ok {
		return
	}
	month, ok := intQuery(w, r, "month", 1, 12)
	if !ok {
		return
	}

	stats, err := s.service.MonthlyStats(year, month)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleGetYearly returns the twelve-month rollup for one year.
func (s *Server) handleGetYearly(w http.ResponseWriter, r *http.Request) {
	year, ok := intQuery(w, r, "year", 0, 9999)
	if !ok {
		return
	}

	stats, err := s.service.YearlyStats(year)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleListReceipts returns one filtered page of records.
func (s *Server) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	page, ok := intQuery(w, r, "page", 1, 1<<30)
	if !ok {
		return
	}
	pageSize, ok := intQuery(w, r, "page_size", 1, maxPageSize)
	if !ok {
		return
	}
	if page == 0 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = defaultPageSize
	}

	q := r.URL.Query()
	filter := ListFilter{
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
		Category:  q.Get("category"),
		Kind:      q.Get("type"),
		Merchant:  q.Get("merchant"),
		Page:      page,
		PageSize:  pageSize,
	}

	items, total, err := s.service.List(filter)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	views := make([]*recordView, 0, len(items))
	for _, rec := range items {
		views = append(views, viewOf(rec))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total":     total,
		"page":      page,
		"page_size": pageSize,
		"items":     views,
	})
}

// handleUpdateReceipt applies a partial update to one record.
func (s *Server) handleUpdateReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req struct {
		Date     *string  `json:"date"`
		Merchant *string  `json:"merchant"`
		Amount   *float64 `json:"amount"`
		Type     *string  `json:"type"`
		Category *string  `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := s.service.Update(id, UpdateInput{
		Date:     req.Date,
		Merchant: req.Merchant,
		Amount:   req.Amount,
		Type:     req.Type,
		Category: req.Category,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Success: true,
		Message: fmt.Sprintf("updated: %s - %.2f", rec.Merchant, rec.Amount),
		Data:    viewOf(rec),
	})
}

// handleDeleteReceipt removes one record permanently.
func (s *Server) handleDeleteReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	rec, err := s.service.Get(id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.service.Delete(id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("deleted: %s", rec.Merchant),
	})
}

// handleManualAdd inserts a record without going through the AI pipeline.
func (s *Server) handleManualAdd(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date     string  `json:"date"`
		Merchant string  `json:"merchant"`
		Amount   float64 `json:"amount"`
		Type     string  `json:"type"`
		Category string  `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := s.service.ManualAdd(ManualInput{
		Date:     req.Date,
		Merchant: req.Merchant,
		Amount:   req.Amount,
		Type:     req.Type,
		Category: req.Category,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Success: true,
		Message: fmt.Sprintf("recorded manually: %s - %.2f (%s)", rec.Merchant, rec.Amount, rec.Kind),
		Data:    viewOf(rec),
	})
}

// handleGetNetWorth reports the running balance anchored to the user-set
// base.
func (s *Server) handleGetNetWorth(w http.ResponseWriter, r *http.Request) {
	nw, err := s.service.NetWorth()
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nw)
}

// handleSetNetWorth rebases the net-worth anchor.
func (s *Server) handleSetNetWorth(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentNetWorth *float64 `json:"current_net_worth"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CurrentNetWorth == nil {
		writeError(w, http.StatusBadRequest, "current_net_worth is required")
		return
	}

	nw, err := s.service.SetNetWorth(*req.CurrentNetWorth)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nw)
}

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// intQuery parses an optional integer query parameter, returning zero
// when absent and writing a 400 when present but out of range.
func intQuery(w http.ResponseWriter, r *http.Request, name string, min, max int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min || v > max {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s parameter", name))
		return 0, false
	}
	return v, true
}

func pathID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid record id")
		return 0, false
	}
	return id, true
}
