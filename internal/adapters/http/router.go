package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/vkazmin/claimflow/internal/core/domain"
	"github.com/vkazmin/claimflow/internal/core/ports"
	"github.com/vkazmin/claimflow/internal/core/usecase"
	"github.com/vkazmin/claimflow/internal/observability/metrics"
)

type Router struct {
	submitUC      *usecase.SubmitClaimUseCase
	serverMetrics *metrics.HTTPServerMetrics
	service       string
	maxUploadSize int64
}

func NewRouter(
	submitUC *usecase.SubmitClaimUseCase,
	serverMetrics *metrics.HTTPServerMetrics,
	service string,
	maxUploadSizeMB int,
) *Router {
	if maxUploadSizeMB <= 0 {
		maxUploadSizeMB = 32
	}
	return &Router{
		submitUC:      submitUC,
		serverMetrics: serverMetrics,
		service:       service,
		maxUploadSize: int64(maxUploadSizeMB) << 20,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/claims", rt.createClaim)
	mux.HandleFunc("/v1/claims/", rt.claimByID)

	var handler http.Handler = mux
	if rt.serverMetrics != nil {
		handler = rt.serverMetrics.Middleware(rt.service, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) createClaim(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, rt.maxUploadSize)
	if err := r.ParseMultipartForm(rt.maxUploadSize); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}

	flavor := domain.Flavor(strings.TrimSpace(r.FormValue("flavor")))
	if flavor == "" {
		flavor = domain.FlavorTravel
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'files' is required"})
		return
	}

	var uploads []ports.Upload
	for _, header := range files {
		f, err := header.Open()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable multipart file"})
			return
		}
		defer f.Close()
		uploads = append(uploads, ports.Upload{
			Filename: header.Filename,
			MimeType: header.Header.Get("Content-Type"),
			Body:     f,
		})
	}

	submission, err := rt.submitUC.CreateSubmission(r.Context(), flavor, uploads)
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.serverMetrics != nil {
		rt.serverMetrics.RecordSubmission(rt.service, string(flavor), len(uploads))
	}

	writeJSON(w, http.StatusAccepted, submissionResponse(submission))
}

func (rt *Router) claimByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/claims/")
	if rest == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "submission id is required"})
		return
	}

	if id, ok := strings.CutSuffix(rest, "/pay"); ok {
		rt.payClaim(w, r, strings.TrimSuffix(id, "/"))
		return
	}

	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	submission, err := rt.submitUC.GetByID(r.Context(), rest)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, submissionResponse(submission))
}

func (rt *Router) payClaim(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "submission id is required"})
		return
	}

	if err := rt.submitUC.MarkPaid(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	submission, err := rt.submitUC.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, submissionResponse(submission))
}

type claimResponse struct {
	*domain.ClaimSubmission
	FollowUpMessage string `json:"follow_up_message"`
}

func submissionResponse(submission *domain.ClaimSubmission) claimResponse {
	return claimResponse{
		ClaimSubmission: submission,
		FollowUpMessage: domain.FollowUpMessage(submission.Status),
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}
