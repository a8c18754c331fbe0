package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"ninelives-store-api/internal/middleware"
	"ninelives-store-api/internal/service"
	"ninelives-store-api/pkg/apierror"
	"ninelives-store-api/pkg/response"
)

// FeedHandler handles community feed HTTP requests.
type FeedHandler struct {
	feed *service.FeedService
}

// NewFeedHandler creates a new feed handler.
func NewFeedHandler(feed *service.FeedService) *FeedHandler {
	return &FeedHandler{feed: feed}
}

func feedLimit(r *http.Request) int {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return limit
}

// Recent handles GET /api/v1/feed
func (h *FeedHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := feedLimit(r)
	msgs, err := h.feed.Recent(r.Context(), limit)
	if err != nil {
		log.Printf("[FeedHandler] Recent failed: %v", err)
		response.Error(w, apierror.TransactionError("failed to load feed"))
		return
	}
	response.JSONWithMeta(w, http.StatusOK, msgs, 1, h.feed.Window(limit), int64(len(msgs)))
}

// PostRequest is the feed submission payload.
type PostRequest struct {
	Text string `json:"text"`
}

// Post handles POST /api/v1/feed
func (h *FeedHandler) Post(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		response.Error(w, apierror.Unauthorized("sign in (anonymously is fine) to post"))
		return
	}

	var req PostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	msg, err := h.feed.Post(r.Context(), *identity, req.Text)
	if err != nil {
		if err == service.ErrEmptyMessage {
			response.Error(w, apierror.ValidationError("message text is empty"))
			return
		}
		log.Printf("[FeedHandler] Post failed: %v", err)
		response.Error(w, apierror.TransactionError("message was not posted"))
		return
	}
	response.Created(w, msg)
}

// Watch handles GET /api/v1/feed/watch - live message window via SSE.
func (h *FeedHandler) Watch(w http.ResponseWriter, r *http.Request) {
	ch, stop := h.feed.Watch(r.Context(), feedLimit(r))
	defer stop()
	streamSSE(w, r, ch)
}
