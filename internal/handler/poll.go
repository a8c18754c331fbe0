package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"ninelives-store-api/internal/service"
	"ninelives-store-api/pkg/apierror"
	"ninelives-store-api/pkg/response"
)

// PollHandler handles colorway poll HTTP requests.
type PollHandler struct {
	poll *service.PollService
}

// NewPollHandler creates a new poll handler.
func NewPollHandler(poll *service.PollService) *PollHandler {
	return &PollHandler{poll: poll}
}

// Results handles GET /api/v1/poll
func (h *PollHandler) Results(w http.ResponseWriter, r *http.Request) {
	results, err := h.poll.Results(r.Context())
	if err != nil {
		log.Printf("[PollHandler] Results failed: %v", err)
		response.Error(w, apierror.TransactionError("failed to load poll"))
		return
	}
	response.OK(w, results)
}

// VoteRequest names the option being voted for.
type VoteRequest struct {
	Option string `json:"option"`
}

// Vote handles POST /api/v1/poll/vote
func (h *PollHandler) Vote(w http.ResponseWriter, r *http.Request) {
	var req VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	if err := h.poll.Vote(r.Context(), req.Option); err != nil {
		if err == service.ErrUnknownPollOption {
			response.Error(w, apierror.ValidationError("unknown poll option"))
			return
		}
		log.Printf("[PollHandler] Vote failed: %v", err)
		response.Error(w, apierror.TransactionError("vote was not recorded"))
		return
	}

	results, err := h.poll.Results(r.Context())
	if err != nil {
		log.Printf("[PollHandler] Results failed: %v", err)
		response.Error(w, apierror.TransactionError("failed to load poll"))
		return
	}
	response.OK(w, results)
}

// Watch handles GET /api/v1/poll/watch - live tallies via SSE.
func (h *PollHandler) Watch(w http.ResponseWriter, r *http.Request) {
	ch, stop, err := h.poll.Watch(r.Context())
	if err != nil {
		log.Printf("[PollHandler] Watch failed: %v", err)
		response.Error(w, apierror.TransactionError("failed to subscribe to poll"))
		return
	}
	defer stop()
	streamSSE(w, r, ch)
}
