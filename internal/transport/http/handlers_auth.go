package httptransport

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"firtrace/internal/platform/metrics"
	dErrors "firtrace/pkg/domain-errors"
	"firtrace/pkg/platform/httputil"
	"firtrace/pkg/requestcontext"
)

const maxBodyBytes = 1 << 20

// AuthService defines the authentication operations the handler needs.
type AuthService interface {
	Authenticate(ctx context.Context, accountAddress string, signature []byte) (string, error)
}

// AuthHandler wires the signed-challenge login endpoint to the auth service.
type AuthHandler struct {
	service AuthService
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewAuthHandler(service AuthService, m *metrics.Metrics, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: service, metrics: m, logger: logger}
}

// Register mounts authentication endpoints on the router.
func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/authentication", h.HandleAuthenticate)
}

type authenticateRequest struct {
	Signature string `json:"signature"`
}

type authenticateResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// HandleAuthenticate handles POST /api/authentication?accountAddress=<addr>.
// The body carries {"signature": "<hex>"}; the signature must cover the fixed
// login challenge.
func (h *AuthHandler) HandleAuthenticate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	accountAddress := r.URL.Query().Get("accountAddress")

	var req authenticateRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	signature, err := hex.DecodeString(strings.TrimPrefix(req.Signature, "0x"))
	if err != nil || len(signature) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "signature must be hex encoded"))
		return
	}

	token, err := h.service.Authenticate(ctx, accountAddress, signature)
	if err != nil {
		h.metrics.ObserveAuth("failure", time.Since(start).Seconds())
		h.logger.WarnContext(ctx, "authentication refused",
			"request_id", requestcontext.RequestID(ctx),
			"address", accountAddress,
		)
		httputil.WriteError(w, err)
		return
	}

	h.metrics.ObserveAuth("success", time.Since(start).Seconds())
	httputil.WriteJSON(w, http.StatusOK, authenticateResponse{
		Message: "Authentication successful",
		Token:   token,
	})
}
