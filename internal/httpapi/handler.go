package httpapi

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/canonical/hardware-api/internal/certengine"
	"github.com/canonical/hardware-api/internal/store"
)

const rootMessage = "Hardware Information API (hwapi) server"

// Server holds the dependencies the route handlers close over: the
// repository the decision engine reads from and a logger (§10.1).
type Server struct {
	Repo store.Repository
	Log  *zap.Logger
}

// NewServer returns a Server; a nil logger is replaced with a no-op one.
func NewServer(repo store.Repository, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{Repo: repo, Log: log}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(rootMessage))
}

func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(openapiYAML))
}

// handleCertificationStatus implements POST /v1/certification/status
// (§6.1, §6.3). A malformed body is a 422; any other error from the
// decision engine is a 500; every classification, including Not Seen,
// is a 200.
func (s *Server) handleCertificationStatus(w http.ResponseWriter, r *http.Request) {
	var wire certificationStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&wire); err != nil {
		s.Log.Warn("malformed certification status request", zap.Error(err))
		http.Error(w, "malformed request body", http.StatusUnprocessableEntity)
		return
	}

	req := wire.toEngineRequest()
	resp, detail, err := certengine.Classify(r.Context(), s.Repo, req)
	if err != nil {
		s.Log.Error("certification status classification failed",
			zap.String("vendor", req.Vendor), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if detail != nil {
		// §7: a single warn line carries the fields matched against on
		// Not Seen, to support post-hoc triage.
		s.Log.Warn("certification status: not seen",
			zap.String("vendor", detail.Vendor),
			zap.String("board_manufacturer", detail.BoardManufacturer),
			zap.String("board_product", detail.BoardProduct),
			zap.String("bios_vendor", detail.BiosVendor),
			zap.String("bios_version", detail.BiosVersion))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
