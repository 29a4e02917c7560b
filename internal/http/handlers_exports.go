// Package httpx provides the HTTP gateway for submitting and inspecting export jobs.
package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/target/async-export/internal/domain/model"
	apperrors "github.com/target/async-export/internal/errors"
	"github.com/target/async-export/internal/service"
)

// ResyncTrigger runs one re-sync pass on demand.
type ResyncTrigger interface {
	RunOnce(ctx context.Context) (service.ResyncResult, error)
}

// ExportHandlers provides HTTP handlers for export jobs.
type ExportHandlers struct {
	Svc    *service.ExportService
	Resync ResyncTrigger // Optional
}

// submitBody accepts both snake_case fields and the camelCase names used by
// older clients (userId, beanId, methodName, requestParams).
type submitBody struct {
	RequesterID   string          `json:"requester_id"`
	UserID        string          `json:"userId"`
	Handler       string          `json:"handler"`
	BeanID        string          `json:"beanId"`
	MethodName    string          `json:"method_name"`
	LegacyMethod  string          `json:"methodName"`
	Params        json.RawMessage `json:"params"`
	RequestParams json.RawMessage `json:"requestParams"`
	Locale        string          `json:"locale"`
}

func (b *submitBody) toRequest() *model.SubmitExportRequest {
	return &model.SubmitExportRequest{
		RequesterID: firstNonEmpty(b.RequesterID, b.UserID),
		Handler:     firstNonEmpty(b.Handler, b.BeanID),
		MethodName:  firstNonEmpty(b.MethodName, b.LegacyMethod),
		Params:      paramsText(firstRaw(b.Params, b.RequestParams)),
		Locale:      b.Locale,
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func firstRaw(vals ...json.RawMessage) json.RawMessage {
	for _, v := range vals {
		if len(v) > 0 && string(v) != "null" {
			return v
		}
	}
	return nil
}

// paramsText keeps params opaque: a JSON string is unquoted, anything else is kept as raw JSON text.
func paramsText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// Submit handles POST /export (and GET /export with a body).
func (h *ExportHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	var body submitBody
	if !DecodeJSON(w, r, &body) {
		return
	}

	res, err := h.Svc.Submit(r.Context(), body.toRequest())
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusAccepted, res)
}

// Get handles GET /exports/{id}.
func (h *ExportHandlers) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(
			w,
			ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("export id is required")},
		)
		return
	}

	job, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

// List handles GET /exports?status=&requester_id=&limit=&offset=.
func (h *ExportHandlers) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := model.ExportJobListOptions{
		RequesterID: strings.TrimSpace(q.Get("requester_id")),
		Limit:       queryInt(q, "limit"),
		Offset:      queryInt(q, "offset"),
	}.Normalized()
	if raw := q.Get("status"); raw != "" {
		var status model.ExportStatus
		if err := status.UnmarshalText([]byte(raw)); err != nil {
			WriteAppError(w, apperrors.ValidationField("status", err.Error()))
			return
		}
		opts.Status = &status
	}

	jobs, err := h.Svc.List(r.Context(), opts)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	if jobs == nil {
		jobs = []*model.ExportJob{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"items": jobs, "limit": opts.Limit, "offset": opts.Offset})
}

// queryInt returns the integer value of a query param, or 0 when missing or malformed.
func queryInt(q url.Values, key string) int {
	i, err := strconv.Atoi(q.Get(key))
	if err != nil {
		return 0
	}
	return i
}

// Stats handles GET /exports/stats.
func (h *ExportHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Svc.Stats(r.Context())
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

// RunResync handles POST /exports/resync.
func (h *ExportHandlers) RunResync(w http.ResponseWriter, r *http.Request) {
	if h.Resync == nil {
		WriteAppError(w, apperrors.Unavailable("resync is not enabled"))
		return
	}
	res, err := h.Resync.RunOnce(r.Context())
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}
