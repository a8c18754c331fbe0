package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"runtime"
	"time"

	"ninelives-store-api/internal/middleware"
	"ninelives-store-api/internal/service"
	"ninelives-store-api/internal/store"
	"ninelives-store-api/pkg/apierror"
	"ninelives-store-api/pkg/response"
)

// AdminHandler handles the staged admin gate and the privileged console
// operations (broadcast, stats; product mutations live on CatalogHandler).
type AdminHandler struct {
	gate      *service.AdminGateService
	feed      *service.FeedService
	store     store.Store
	cacheType string
	startTime time.Time
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(gate *service.AdminGateService, feed *service.FeedService, st store.Store, cacheType string) *AdminHandler {
	return &AdminHandler{
		gate:      gate,
		feed:      feed,
		store:     st,
		cacheType: cacheType,
		startTime: time.Now(),
	}
}

func (h *AdminHandler) sessionToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	token := middleware.SessionTokenFrom(r.Context())
	if token == "" {
		response.Error(w, apierror.Unauthorized("session required"))
		return "", false
	}
	return token, true
}

// GateStateResponse reports the session's current gate stage.
type GateStateResponse struct {
	State service.GateState `json:"state"`
}

// GateState handles GET /api/v1/admin/gate
func (h *AdminHandler) GateState(w http.ResponseWriter, r *http.Request) {
	token, ok := h.sessionToken(w, r)
	if !ok {
		return
	}

	state, err := h.gate.State(r.Context(), token)
	if err != nil {
		log.Printf("[AdminHandler] Gate state failed: %v", err)
		response.Error(w, apierror.InternalError(""))
		return
	}
	response.OK(w, GateStateResponse{State: state})
}

// GateTrigger handles POST /api/v1/admin/gate/trigger - one hidden-trigger
// activation (a logo click in the original).
func (h *AdminHandler) GateTrigger(w http.ResponseWriter, r *http.Request) {
	token, ok := h.sessionToken(w, r)
	if !ok {
		return
	}

	state, err := h.gate.Trigger(r.Context(), token)
	if err != nil {
		log.Printf("[AdminHandler] Gate trigger failed: %v", err)
		response.Error(w, apierror.InternalError(""))
		return
	}
	response.OK(w, GateStateResponse{State: state})
}

// PinRequest carries the submitted gate PIN.
type PinRequest struct {
	PIN string `json:"pin"`
}

// GatePin handles POST /api/v1/admin/gate/pin
func (h *AdminHandler) GatePin(w http.ResponseWriter, r *http.Request) {
	token, ok := h.sessionToken(w, r)
	if !ok {
		return
	}

	var req PinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	state, err := h.gate.SubmitPIN(r.Context(), token, req.PIN)
	if err != nil {
		switch err {
		case service.ErrWrongPIN:
			response.Error(w, apierror.AuthError("incorrect PIN"))
		case service.ErrGateStage:
			response.Error(w, apierror.Forbidden("PIN entry is not open"))
		default:
			log.Printf("[AdminHandler] Gate pin failed: %v", err)
			response.Error(w, apierror.InternalError(""))
		}
		return
	}
	response.OK(w, GateStateResponse{State: state})
}

// GateLoginRequest carries the privileged credential.
type GateLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GateLoginResponse reports the unlocked state and the (possibly refreshed)
// session token.
type GateLoginResponse struct {
	State service.GateState `json:"state"`
	Token string            `json:"token"`
}

// GateLogin handles POST /api/v1/admin/gate/login
func (h *AdminHandler) GateLogin(w http.ResponseWriter, r *http.Request) {
	token, ok := h.sessionToken(w, r)
	if !ok {
		return
	}

	var req GateLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	state, newToken, err := h.gate.SignIn(r.Context(), token, req.Email, req.Password)
	if err != nil {
		switch err {
		case service.ErrInvalidCredentials:
			response.Error(w, apierror.AuthError("invalid credentials"))
		case service.ErrAccountsUnavailable:
			response.Error(w, apierror.ConfigurationError("credentialed sign-in is unavailable"))
		case service.ErrGateStage:
			response.Error(w, apierror.Forbidden("credential entry is not open"))
		default:
			log.Printf("[AdminHandler] Gate login failed: %v", err)
			response.Error(w, apierror.InternalError(""))
		}
		return
	}
	response.OK(w, GateLoginResponse{State: state, Token: newToken})
}

// GateLogout handles POST /api/v1/admin/gate/logout
func (h *AdminHandler) GateLogout(w http.ResponseWriter, r *http.Request) {
	token, ok := h.sessionToken(w, r)
	if !ok {
		return
	}

	if err := h.gate.SignOut(r.Context(), token); err != nil {
		log.Printf("[AdminHandler] Gate logout failed: %v", err)
		response.Error(w, apierror.InternalError(""))
		return
	}
	response.NoContent(w)
}

// BroadcastRequest carries an announcement.
type BroadcastRequest struct {
	Text string `json:"text"`
}

// Broadcast handles POST /api/v1/admin/broadcast - requires Dashboard.
func (h *AdminHandler) Broadcast(w http.ResponseWriter, r *http.Request) {
	var req BroadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	msg, err := h.feed.Broadcast(r.Context(), req.Text)
	if err != nil {
		if err == service.ErrEmptyMessage {
			response.Error(w, apierror.ValidationError("announcement text is empty"))
			return
		}
		log.Printf("[AdminHandler] Broadcast failed: %v", err)
		response.Error(w, apierror.TransactionError("announcement was not posted"))
		return
	}
	response.Created(w, msg)
}

// GetStats handles GET /api/v1/admin/stats - requires Dashboard.
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats := make(map[string]interface{})

	// System info
	stats["uptime_seconds"] = int64(time.Since(h.startTime).Seconds())
	stats["uptime_human"] = time.Since(h.startTime).Round(time.Second).String()
	stats["server_time"] = time.Now().Format(time.RFC3339)
	stats["cache_type"] = h.cacheType

	// Memory stats
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	stats["memory"] = map[string]interface{}{
		"alloc_mb":      float64(memStats.Alloc) / 1024 / 1024,
		"sys_mb":        float64(memStats.Sys) / 1024 / 1024,
		"heap_alloc_mb": float64(memStats.HeapAlloc) / 1024 / 1024,
		"num_gc":        memStats.NumGC,
		"goroutines":    runtime.NumGoroutine(),
	}

	// Document store stats
	if h.store != nil {
		counts, err := h.store.Counts(ctx)
		if err == nil {
			stats["store"] = map[string]interface{}{
				"status":      "connected",
				"collections": counts,
			}
		} else {
			stats["store"] = map[string]interface{}{
				"status": "error",
				"error":  err.Error(),
			}
		}
	} else {
		stats["store"] = map[string]interface{}{
			"status": "not_configured",
		}
	}

	response.OK(w, stats)
}
