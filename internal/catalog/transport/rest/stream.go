package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	cerrors "github.com/unabstore/shop/internal/catalog/errors"
	"github.com/unabstore/shop/internal/catalog/service"
	"github.com/unabstore/shop/pkg/web"
)

// keepAliveInterval is how often an idle stream sends a comment line.
var keepAliveInterval = 15 * time.Second

// snapshotEvent is the data of a "snapshot" server-sent event.
type snapshotEvent struct {
	Products []service.ProductDto `json:"products"`
	Error    string               `json:"error,omitempty"`
}

// Stream sends every catalog snapshot as a server-sent event until the client goes away.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rc := http.NewResponseController(w)
	// streams outlive the server write timeout
	_ = rc.SetWriteDeadline(time.Time{})

	sub, err := h.service.Observe(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Error subscribing to catalog", "error", err)
		web.RespondError(w, h.logger, http.StatusServiceUnavailable, "Catalog stream unavailable")
		return
	}
	defer sub.Cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		h.logger.ErrorContext(ctx, "Streaming not supported", "error", err)
		return
	}
	h.logger.InfoContext(ctx, "Catalog stream opened")

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.logger.InfoContext(ctx, "Catalog stream closed by client")
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		case snap, ok := <-sub.Updates():
			if !ok {
				return
			}
			if err := writeSnapshot(w, snap); err != nil {
				h.logger.WarnContext(ctx, "Error writing snapshot", "error", err)
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func writeSnapshot(w http.ResponseWriter, snap service.Snapshot) error {
	ev := snapshotEvent{Products: snap.Products}
	if snap.Err != nil {
		ev.Error = cerrors.UserMessage(snap.Err)
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data)
	return err
}
