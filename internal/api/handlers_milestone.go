/**
 * @description
 * HTTP handlers for payment milestone endpoints: linking, releasing and the
 * read paths.
 */

package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/consultlink/payment-service/internal/domain"
)

// LinkMilestoneHandler ties a project milestone index to a payment amount.
func (h *PaymentHandlers) LinkMilestoneHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.authenticatedUserID(w, r)
	if !ok {
		return
	}

	var req domain.LinkMilestoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=milestone_link outcome=reject reason=invalid_json err=%v", err)
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	milestone, err := h.service.LinkMilestone(r.Context(), actorID, req)
	if err != nil {
		h.respondServiceError(w, "milestone_link", err)
		return
	}

	log.Printf("level=info component=api endpoint=milestone_link outcome=ok project_id=%s milestone_index=%d amount=%s", req.ProjectID, req.MilestoneIndex, req.Amount)
	h.writeJSON(w, http.StatusCreated, milestoneToView(milestone))
}

// ReleaseMilestoneHandler pays a funded milestone out of escrow.
func (h *PaymentHandlers) ReleaseMilestoneHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.authenticatedUserID(w, r)
	if !ok {
		return
	}
	milestoneID, ok := h.pathUUID(w, chi.URLParam(r, "milestoneID"), "milestone ID")
	if !ok {
		return
	}

	var req struct {
		Description string `json:"description"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	milestone, escrow, err := h.service.ReleaseMilestone(r.Context(), milestoneID, actorID, req.Description)
	if err != nil {
		h.respondServiceError(w, "milestone_release", err)
		return
	}

	log.Printf("level=info component=api endpoint=milestone_release outcome=ok milestone_id=%s actor_id=%s", milestoneID, actorID)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"milestone": milestoneToView(milestone),
		"escrow":    escrowAccountToView(escrow),
	})
}

// GetMilestoneHandler returns one milestone.
func (h *PaymentHandlers) GetMilestoneHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticatedUserID(w, r)
	if !ok {
		return
	}
	milestoneID, ok := h.pathUUID(w, chi.URLParam(r, "milestoneID"), "milestone ID")
	if !ok {
		return
	}

	milestone, err := h.service.GetMilestone(r.Context(), milestoneID, userID)
	if err != nil {
		h.respondServiceError(w, "milestone_get", err)
		return
	}
	h.writeJSON(w, http.StatusOK, milestoneToView(milestone))
}

// milestoneStatusFilter maps the status query param onto lifecycle states.
// The "pending" alias covers both pre-payout states, so one call lists every
// milestone still awaiting release.
func milestoneStatusFilter(raw string) []domain.MilestoneStatus {
	switch raw {
	case "":
		return nil
	case "pending":
		return []domain.MilestoneStatus{domain.MilestonePendingDeposit, domain.MilestonePendingRelease}
	default:
		return []domain.MilestoneStatus{domain.MilestoneStatus(raw)}
	}
}

// ListMilestonesHandler returns a project's milestones in index order. An
// optional status query param filters by lifecycle state.
func (h *PaymentHandlers) ListMilestonesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticatedUserID(w, r)
	if !ok {
		return
	}
	projectID, ok := h.pathUUID(w, chi.URLParam(r, "projectID"), "project ID")
	if !ok {
		return
	}

	statuses := milestoneStatusFilter(r.URL.Query().Get("status"))

	milestones, err := h.service.ListMilestones(r.Context(), projectID, userID, statuses)
	if err != nil {
		h.respondServiceError(w, "milestone_list", err)
		return
	}
	h.writeJSON(w, http.StatusOK, milestonesToView(milestones))
}
