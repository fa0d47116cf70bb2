package controller

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/infinirdc/resto-op/helper"
)

// streamCollectionFeed serves one collection as a server-sent event stream.
// Each event carries the full current result set, the first one immediately.
// The subscription is torn down when the client goes away, so a screen switch
// never leaves a stale listener behind.
func streamCollectionFeed(w http.ResponseWriter, r *http.Request, collection string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, `{"success": false, "message": "Streaming not supported"}`, http.StatusInternalServerError)
		return
	}

	sub, err := store.Subscribe(r.Context(), collection)
	if err != nil {
		helper.Log.Error().Err(err).Str("collection", collection).Msg("subscription failed")
		http.Error(w, `{"success": false, "message": "Feed unavailable"}`, http.StatusServiceUnavailable)
		return
	}
	defer sub.Cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	for docs := range sub.C {
		payload, err := json.Marshal(docs)
		if err != nil {
			helper.Log.Error().Err(err).Str("collection", collection).Msg("feed encoding failed")
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}
}
