package api

import (
	"testing"

	"github.com/consultlink/payment-service/internal/domain"
)

func TestMilestoneStatusFilter(t *testing.T) {
	if got := milestoneStatusFilter(""); got != nil {
		t.Fatalf("empty filter must not restrict statuses, got %v", got)
	}

	got := milestoneStatusFilter("pending")
	if len(got) != 2 || got[0] != domain.MilestonePendingDeposit || got[1] != domain.MilestonePendingRelease {
		t.Fatalf("pending must cover both pre-payout states, got %v", got)
	}

	got = milestoneStatusFilter("released")
	if len(got) != 1 || got[0] != domain.MilestoneReleased {
		t.Fatalf("exact status must pass through, got %v", got)
	}

	got = milestoneStatusFilter("pending_release")
	if len(got) != 1 || got[0] != domain.MilestonePendingRelease {
		t.Fatalf("exact status must pass through, got %v", got)
	}
}
