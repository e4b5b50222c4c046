package handlers

import (
	"net/http"

	"volunteer-api/internal/aggregate"
	"volunteer-api/internal/apperr"
	"volunteer-api/internal/db"
	"volunteer-api/internal/http/respond"
)

type EventHandler struct {
	pool db.Pool
}

func NewEventHandler(pool db.Pool) *EventHandler {
	return &EventHandler{pool: pool}
}

// List returns every event with its shifts and derived capacity.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var views []aggregate.EventView
	err := db.WithConn(ctx, h.pool, func(conn *db.Conn) error {
		events, err := conn.ListEvents(ctx)
		if err != nil {
			return apperr.Query("list events", err)
		}
		views, err = aggregate.JoinShifts(ctx, events, conn)
		return err
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Success(w, http.StatusOK, views)
}
