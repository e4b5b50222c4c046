package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"volunteer-api/internal/aggregate"
	"volunteer-api/internal/apperr"
	"volunteer-api/internal/db"
	"volunteer-api/internal/http/middleware"
	"volunteer-api/internal/http/respond"
)

type MailListHandler struct {
	pool db.Pool
}

func NewMailListHandler(pool db.Pool) *MailListHandler {
	return &MailListHandler{pool: pool}
}

// List returns every mailing list keyed by display name, with its
// subscribers compiled into one address line.
func (h *MailListHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var lists map[string]string
	err := db.WithConn(ctx, h.pool, func(conn *db.Conn) error {
		rows, err := conn.ListSubscriberRows(ctx)
		if err != nil {
			return apperr.Query("list subscribers", err)
		}
		names, err := conn.ListMailListNames(ctx)
		if err != nil {
			return apperr.Query("list mailing lists", err)
		}
		lists = aggregate.CompileMailingLists(rows, names)
		return nil
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Success(w, http.StatusOK, lists)
}

// Save creates a list when the id is "-1" or "new" and updates it otherwise.
func (h *MailListHandler) Save(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, create, err := parseListID(mux.Vars(r)["id"])
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	var req struct {
		DisplayName string `json:"display_name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, apperr.Invalid("Invalid request body"))
		return
	}
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if req.DisplayName == "" {
		respond.Error(w, r, apperr.Invalid("Blank mailing list name"))
		return
	}

	err = db.WithConn(ctx, h.pool, func(conn *db.Conn) error {
		if create {
			id, err = conn.CreateMailList(ctx, req.DisplayName, req.Description)
			return apperr.Query("create mailing list", err)
		}
		return apperr.Query("update mailing list", conn.UpdateMailList(ctx, id, req.DisplayName, req.Description))
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	u, _ := middleware.User(ctx)
	if create {
		slog.Info("mail_list_created", "mail_list_id", id, "user_id", u.UserID)
		respond.Success(w, http.StatusCreated, "Mail list created successfully")
		return
	}
	slog.Info("mail_list_updated", "mail_list_id", id, "user_id", u.UserID)
	respond.Success(w, http.StatusOK, "Mail list updated successfully")
}

func (h *MailListHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, create, err := parseListID(mux.Vars(r)["id"])
	if err == nil && create {
		err = apperr.Invalid("Cannot delete a mailing list that does not exist yet")
	}
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	err = db.WithConn(ctx, h.pool, func(conn *db.Conn) error {
		return apperr.Query("delete mailing list", conn.DeleteMailList(ctx, id))
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	u, _ := middleware.User(ctx)
	slog.Info("mail_list_deleted", "mail_list_id", id, "user_id", u.UserID)
	respond.Success(w, http.StatusOK, "Mail list deleted successfully")
}

// Signup subscribes an email address, creating a bare user for it if needed.
func (h *MailListHandler) Signup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, create, err := parseListID(mux.Vars(r)["id"])
	if err == nil && create {
		err = apperr.Missing("Unknown mailing list")
	}
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, apperr.Invalid("Invalid request body"))
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		respond.Error(w, r, apperr.Invalid("Blank email"))
		return
	}

	err = db.WithConn(ctx, h.pool, func(conn *db.Conn) error {
		list, err := conn.GetMailList(ctx, id)
		if err != nil {
			return apperr.Query("get mailing list", err)
		}
		if list == nil {
			return apperr.Missing("Unknown mailing list")
		}
		_, err = conn.Subscribe(ctx, id, email)
		return apperr.Query("subscribe", err)
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Success(w, http.StatusCreated, fmt.Sprintf("%s added to mailing list!", email))
}

// parseListID accepts a numeric id, or "-1" / "new" for a list not yet created.
func parseListID(raw string) (id int64, create bool, err error) {
	if raw == "new" || raw == "-1" {
		return 0, true, nil
	}
	id, err = strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false, apperr.Invalid(fmt.Sprintf("Invalid mailing list id %q", raw))
	}
	return id, false, nil
}
