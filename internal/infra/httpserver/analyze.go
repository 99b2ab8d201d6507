package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bryanwahyu/design-alchemist/internal/application/analysis"
	appquota "github.com/bryanwahyu/design-alchemist/internal/application/quota"
	"github.com/bryanwahyu/design-alchemist/internal/domain/ai"
	"github.com/bryanwahyu/design-alchemist/internal/domain/identity"
	"github.com/bryanwahyu/design-alchemist/internal/domain/ledger"
	"github.com/bryanwahyu/design-alchemist/internal/domain/quota"
	"github.com/bryanwahyu/design-alchemist/internal/infra/storage"
	"github.com/bryanwahyu/design-alchemist/internal/middleware"
)

type analyzeResponse struct {
	*analysis.Result
	ID        string          `json:"id"`
	ReportURL string          `json:"report_url,omitempty"`
	Quota     appquota.Status `json:"quota"`
}

// POST /v1/analyze
// multipart: image=<file>, description=<text>
// json: {"design_image": "data:image/png;base64,...", "design_description": "..."}
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	user, err := currentUser(req)
	if err != nil {
		return err
	}
	ctx := req.Context()

	upload, err := readDesignUpload(w, req)
	if err != nil {
		return err
	}

	ticket, err := r.Quota.Admit(ctx, user.ID)
	if err != nil {
		if errors.Is(err, quota.ErrLimitReached) {
			middleware.IncrementQuotaRejected()
		}
		return err
	}

	middleware.IncrementAnalyses()
	middleware.IncrementAnalysesRunning()
	out := r.Analysis.Analyze(ctx, upload.ImageURI, upload.Description)
	middleware.DecrementAnalysesRunning()

	entry := &ledger.Entry{
		ID:        ledger.EntryID(uuid.NewString()),
		UserID:    user.ID,
		CreatedAt: r.Clock.Now(),
	}

	if out.Failed() {
		middleware.IncrementAnalysesFailed()
		entry.Status = ledger.StatusError
		entry.Message = out.Err.Message
		if _, err := r.Quota.Record(ctx, ticket, false); err != nil {
			r.Logger.Error("release usage failed", zap.String("user_id", user.ID), zap.Error(err))
		}
		r.saveEntry(ctx, entry)
		writeJSON(w, failureStatus(out.Err), out)
		return nil
	}

	entry.Status = ledger.StatusSuccess
	entry.FlawCount = len(out.Result.Flaws)
	entry.ImprovementCount = len(out.Result.Improvements)
	entry.ReportURL = r.archive(ctx, user.ID, string(entry.ID), out.Result)

	status, err := r.Quota.Record(ctx, ticket, true)
	if err != nil {
		// the slot is already taken; report the reservation-time view
		r.Logger.Error("record usage failed", zap.String("user_id", user.ID), zap.Error(err))
		status = ticket.Status
	}
	r.saveEntry(ctx, entry)

	writeJSON(w, http.StatusOK, analyzeResponse{
		Result:    out.Result,
		ID:        string(entry.ID),
		ReportURL: entry.ReportURL,
		Quota:     status,
	})
	return nil
}

// failureStatus is 429 when the AI provider throttled us, 422 for any other failed analysis.
func failureStatus(err *analysis.Error) int {
	if errors.Is(err, ai.ErrQuotaExceeded) {
		return http.StatusTooManyRequests
	}
	return http.StatusUnprocessableEntity
}

// archive uploads the result when a report archive is configured. Failures only log.
func (r *Router) archive(ctx context.Context, userID, id string, res *analysis.Result) string {
	if r.Archive == nil {
		return ""
	}
	body, err := json.Marshal(res)
	if err != nil {
		r.Logger.Warn("encode report failed", zap.Error(err))
		return ""
	}
	url, err := r.Archive.PutReport(ctx, storage.ReportKey(userID, id), body)
	if err != nil {
		r.Logger.Warn("archive report failed", zap.String("analysis_id", id), zap.Error(err))
		return ""
	}
	return url
}

func (r *Router) saveEntry(ctx context.Context, e *ledger.Entry) {
	if r.Ledger == nil {
		return
	}
	if err := r.Ledger.Save(ctx, e); err != nil {
		r.Logger.Warn("save ledger entry failed", zap.String("analysis_id", string(e.ID)), zap.Error(err))
	}
}

// GET /v1/analyses?page=&page_size=
func (r *Router) handleAnalyses(w http.ResponseWriter, req *http.Request) error {
	user, err := currentUser(req)
	if err != nil {
		return err
	}
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))
	page = middleware.ValidatePage(page)
	size = middleware.ValidateLimit(size)

	list, err := r.Ledger.Paginate(req.Context(), user.ID, page, size)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"page":      page,
		"page_size": size,
		"items":     list,
	})
	return nil
}

// GET /v1/quota
func (r *Router) handleQuota(w http.ResponseWriter, req *http.Request) error {
	user, err := currentUser(req)
	if err != nil {
		return err
	}
	st, err := r.Quota.Status(req.Context(), user.ID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, st)
	return nil
}

func currentUser(req *http.Request) (*identity.User, error) {
	user := middleware.UserFromContext(req.Context())
	if user == nil {
		return nil, identity.ErrUnauthenticated
	}
	return user, nil
}
