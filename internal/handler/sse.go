package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ninelives-store-api/pkg/apierror"
	"ninelives-store-api/pkg/response"
)

// sseHeartbeat keeps idle subscription streams alive through proxies.
const sseHeartbeat = 15 * time.Second

// streamSSE writes each value from ch as a server-sent event until the
// channel closes or the client disconnects. This is the HTTP face of a live
// subscription: every delivery is the full current result set.
func streamSSE[T any](w http.ResponseWriter, r *http.Request, ch <-chan T) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		response.Error(w, apierror.InternalError("streaming unsupported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case v, open := <-ch:
			if !open {
				return
			}
			data, err := json.Marshal(v)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}
