package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/ledger/internal/model"
)

// createSnapshotRequest records the book's current net worth unless NetWorth
// is given explicitly.
type createSnapshotRequest struct {
	Comment  string   `json:"comment"`
	NetWorth *float64 `json:"netWorth,omitempty"`
}

type compareRequest struct {
	Select string `json:"select"`
}

type compareResponse struct {
	*model.Comparison
	Warnings []string `json:"warnings,omitempty"`
}

func (h *LedgerHandler) HandleListSnapshots(w http.ResponseWriter, r *http.Request) {
	owner, book, err := bookScope(r)
	if err != nil {
		writeError(w, err)
		return
	}
	snaps, err := h.snapshots.ListSnapshots(r.Context(), owner, book)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}

func (h *LedgerHandler) HandleListDeletedSnapshots(w http.ResponseWriter, r *http.Request) {
	owner, book, err := bookScope(r)
	if err != nil {
		writeError(w, err)
		return
	}
	snaps, err := h.snapshots.ListDeletedSnapshots(r.Context(), owner, book)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}

func (h *LedgerHandler) HandleCreateSnapshot(w http.ResponseWriter, r *http.Request) {
	owner, book, err := bookScope(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req createSnapshotRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var snap *model.Snapshot
	if req.NetWorth != nil {
		snap, err = h.snapshots.CreateSnapshot(r.Context(), owner, book, *req.NetWorth, req.Comment)
	} else {
		snap, err = h.snapshots.CaptureSnapshot(r.Context(), owner, book, req.Comment)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

// HandleViewSnapshot rebuilds the book at the snapshot's tick.
func (h *LedgerHandler) HandleViewSnapshot(w http.ResponseWriter, r *http.Request) {
	owner, book, err := bookScope(r)
	if err != nil {
		writeError(w, err)
		return
	}
	snap, err := h.snapshots.GetSnapshot(r.Context(), owner, book, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	view, err := h.snapshots.ViewSnapshot(r.Context(), *snap)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *LedgerHandler) HandleDeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	owner, book, err := bookScope(r)
	if err != nil {
		writeError(w, err)
		return
	}
	snap, err := h.snapshots.GetSnapshot(r.Context(), owner, book, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.snapshots.DeleteSnapshot(r.Context(), *snap); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *LedgerHandler) HandleRestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	owner, book, err := bookScope(r)
	if err != nil {
		writeError(w, err)
		return
	}
	snap, err := h.snapshots.RestoreSnapshot(r.Context(), owner, book, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (h *LedgerHandler) HandleTrend(w http.ResponseWriter, r *http.Request) {
	owner, book, err := bookScope(r)
	if err != nil {
		writeError(w, err)
		return
	}
	points, err := h.snapshots.Trend(r.Context(), owner, book)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

// HandleCompare picks snapshots by their 1-based position in the live
// snapshot list, e.g. {"select": "1 3 5"}.
func (h *LedgerHandler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	owner, book, err := bookScope(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req compareRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	snaps, err := h.snapshots.ListSnapshots(r.Context(), owner, book)
	if err != nil {
		writeError(w, err)
		return
	}
	cmp, sel, err := h.comparator.CompareSelection(r.Context(), owner, book, snaps, req.Select)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, compareResponse{Comparison: cmp, Warnings: sel.Warnings})
}
