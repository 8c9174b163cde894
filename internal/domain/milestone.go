/**
 * @description
 * Domain model for payment milestones. A milestone links one project
 * deliverable (by index) to a payment amount with a one-directional
 * lifecycle: pending_deposit -> pending_release -> released. Milestones move
 * to pending_release when escrow deposits cover their amount, and to
 * released through an atomic partial release of the project's escrow.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// MilestoneStatus is the milestone lifecycle state. Transitions only move
// forward; released is terminal.
type MilestoneStatus string

const (
	MilestonePendingDeposit MilestoneStatus = "pending_deposit"
	MilestonePendingRelease MilestoneStatus = "pending_release"
	MilestoneReleased       MilestoneStatus = "released"
)

// PaymentMilestone ties a project milestone index to a releasable amount.
type PaymentMilestone struct {
	ID             uuid.UUID       `json:"id"`
	ProjectID      uuid.UUID       `json:"project_id"`
	MilestoneIndex int             `json:"milestone_index"`
	Amount         int64           `json:"amount"` // in halalas
	Status         MilestoneStatus `json:"status"`
	ReleasedBy     *uuid.UUID      `json:"released_by,omitempty"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// LinkMilestoneRequest is the boundary DTO for linking a project milestone
// to a payment amount.
type LinkMilestoneRequest struct {
	ProjectID      uuid.UUID `json:"project_id"`
	MilestoneIndex int       `json:"milestone_index"`
	Amount         string    `json:"amount"`
}
