package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"storefront/internal/actions"
	"storefront/internal/middleware"
	"storefront/internal/model"
	"storefront/internal/state"
	"storefront/internal/store"
)

// sessionResponse is returned when a session is created.
type sessionResponse struct {
	ID    string      `json:"id"`
	State state.State `json:"state"`
}

// handleCreateSession opens a store under a fresh session ID.
// POST /sessions
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st := h.sessions.Create(ctx)
	h.applyTracker(ctx, st)

	h.logger.InfoContext(ctx, "session created", slog.String("session", st.ID()))
	h.writeJSON(w, http.StatusCreated, sessionResponse{ID: st.ID(), State: st.State()})
}

// handleGetState returns the whole state tree.
// GET /sessions/{id}/state
func (h *Handler) handleGetState(w http.ResponseWriter, r *http.Request) {
	st, err := h.openSession(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, st.State())
}

// handleGetCart returns the persisted cart content.
// GET /sessions/{id}/cart
func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	st, err := h.openSession(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, st.State().Cart.Content)
}

// handleDispatch decodes an action envelope, dispatches it, and runs its effect.
// POST /sessions/{id}/actions
func (h *Handler) handleDispatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	a, err := decodeAction(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	st, err := h.openSession(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "dispatching action",
		slog.String("session", st.ID()),
		slog.String("type", string(a.Type())),
		slog.Bool("known", actions.Known(a.Type())),
	)

	if _, err := st.Apply(ctx, a); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.effects.After(ctx, st, a); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, st.State())
}

// handleSyncCart pulls the server cart into the session.
// POST /sessions/{id}/cart/sync
func (h *Handler) handleSyncCart(w http.ResponseWriter, r *http.Request) {
	st, err := h.openSession(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	next, err := h.effects.SyncCart(r.Context(), st)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, next.Cart.Content)
}

// handleRefreshNavigations reloads the popularity list navigations are sorted against.
// POST /sessions/{id}/navigations/refresh
func (h *Handler) handleRefreshNavigations(w http.ResponseWriter, r *http.Request) {
	st, err := h.openSession(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	next, err := h.effects.RefreshNavigations(r.Context(), st)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, next.Navigations)
}

// openSession resolves the {id} path value to a store and applies the tracker
// header, if any, before the request's own work.
func (h *Handler) openSession(r *http.Request) (*store.Store, error) {
	id := r.PathValue("id")
	if id == "" {
		return nil, model.NewValidationError("id", "session ID required")
	}

	st, err := h.sessions.Open(r.Context(), id, false)
	if err != nil {
		return nil, err
	}
	h.applyTracker(r.Context(), st)
	return st, nil
}

// applyTracker dispatches GET_TRACKER_INFO when the request carried a tracker header.
func (h *Handler) applyTracker(ctx context.Context, st *store.Store) {
	info, ok := middleware.TrackerFromContext(ctx)
	if !ok {
		return
	}
	st.Dispatch(ctx, actions.GetTrackerInfo{VisitorID: info.VisitorID, SessionID: info.SessionID})
}

// decodeAction reads an action envelope from the request body.
// Limits body size to MaxRequestBodySize to prevent memory exhaustion.
// Quantities that do not coerce to a finite number are rejected here because
// the state could not be encoded back to JSON.
func decodeAction(r *http.Request) (actions.Action, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, MaxRequestBodySize)

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, model.NewValidationError("body", "unreadable or too large")
	}

	a, err := actions.Decode(data)
	if err != nil {
		// Don't expose internal error details to client
		return nil, model.NewValidationError("body", "invalid action envelope")
	}
	if actions.HasInvalidQuantity(a) {
		return nil, model.NewValidationError("quantity", "must be a finite number")
	}
	return a, nil
}
