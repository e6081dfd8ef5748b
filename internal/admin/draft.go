package admin

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/wolfman30/blocked-delivery-dates/internal/delivery"
	"github.com/wolfman30/blocked-delivery-dates/internal/tenancy"
)

// Draft operations accepted by ApplyDraft.
const (
	OpLoad          = "load"
	OpToggleWeekday = "toggleWeekday"
	OpAddDate       = "addDate"
	OpAddRange      = "addRange"
	OpRequestDelete = "requestDelete"
	OpConfirmDelete = "confirmDelete"
	OpCancelDelete  = "cancelDelete"
	OpDiscard       = "discard"
	OpSave          = "save"
)

// DraftOp is one edit applied to a draft.
type DraftOp struct {
	Type    string              `json:"type"`
	Weekday *int                `json:"weekday,omitempty"`
	Date    string              `json:"date,omitempty"`
	Start   string              `json:"start,omitempty"`
	End     string              `json:"end,omitempty"`
	Kind    delivery.TargetKind `json:"kind,omitempty"`
	Index   *int                `json:"index,omitempty"`
}

// DraftRequest carries the client's draft and the next operation. A missing
// draft starts a new one from the stored config.
type DraftRequest struct {
	Draft *delivery.Draft `json:"draft"`
	Op    DraftOp         `json:"op"`
}

// DraftResponse returns the updated draft.
type DraftResponse struct {
	Draft      *delivery.Draft        `json:"draft"`
	HasChanges bool                   `json:"hasChanges"`
	Pending    *delivery.DeleteTarget `json:"pendingDelete,omitempty"`
	Error      string                 `json:"error,omitempty"`
}

// ApplyDraft applies one edit to a draft the client holds. Nothing is stored
// server side except on the save operation.
// POST /api/blocked-dates/draft
func (h *Handler) ApplyDraft(w http.ResponseWriter, r *http.Request) {
	shop, ok := tenancy.ShopFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "shop required")
		return
	}

	var req DraftRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	draft := req.Draft
	if draft == nil {
		cfg, fallback := h.load(r.Context(), shop)
		if fallback {
			w.Header().Set(FallbackHeader, "true")
		}
		draft = delivery.NewDraft(cfg)
	}

	status := http.StatusOK
	if err := h.applyOp(r, shop, draft, req.Op); err != nil {
		status = draftErrorStatus(err)
		resp := newDraftResponse(draft)
		resp.Error = err.Error()
		writeJSON(w, status, resp)
		return
	}
	writeJSON(w, status, newDraftResponse(draft))
}

func (h *Handler) applyOp(r *http.Request, shop string, d *delivery.Draft, op DraftOp) error {
	switch op.Type {
	case OpLoad, "":
		return nil
	case OpToggleWeekday:
		if op.Weekday == nil {
			return fmt.Errorf("%w: weekday required", errBadOp)
		}
		return d.ToggleWeekday(time.Weekday(*op.Weekday))
	case OpAddDate:
		return d.AddDate(op.Date)
	case OpAddRange:
		return d.AddRange(op.Start, op.End)
	case OpRequestDelete:
		if op.Index == nil {
			return fmt.Errorf("%w: index required", errBadOp)
		}
		return d.RequestDelete(delivery.DeleteTarget{Kind: op.Kind, Index: *op.Index})
	case OpConfirmDelete:
		return d.ConfirmDelete()
	case OpCancelDelete:
		d.CancelDelete()
		return nil
	case OpDiscard:
		d.Discard()
		return nil
	case OpSave:
		saved, status, err := h.save(r.Context(), shop, d.Snapshot())
		if err != nil {
			return &saveError{status: status, err: err}
		}
		d.Working = saved
		d.MarkSaved()
		return nil
	default:
		return fmt.Errorf("%w: unknown operation %q", errBadOp, op.Type)
	}
}

var errBadOp = errors.New("invalid operation")

type saveError struct {
	status int
	err    error
}

func (e *saveError) Error() string { return e.err.Error() }
func (e *saveError) Unwrap() error { return e.err }

func draftErrorStatus(err error) int {
	var se *saveError
	switch {
	case errors.As(err, &se):
		return se.status
	case errors.Is(err, delivery.ErrDeletePending), errors.Is(err, delivery.ErrNoPendingDelete):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func newDraftResponse(d *delivery.Draft) DraftResponse {
	resp := DraftResponse{Draft: d, HasChanges: d.HasChanges()}
	if target, ok := d.Confirmation.Pending(); ok {
		resp.Pending = &target
	}
	return resp
}
