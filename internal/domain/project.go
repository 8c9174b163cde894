/**
 * @description
 * This file defines the read-only view of the project registry that the
 * payment service depends on. Projects are created and managed by the
 * marketplace service; the ledger core only ever reads them to resolve who
 * the client and consultant of a project are. Every ownership decision in
 * this service is derived from that pair.
 *
 * @dependencies
 * - github.com/google/uuid: Project and user identifiers.
 */

package domain

import "github.com/google/uuid"

// Role identifies the relationship a caller must hold to a project for an
// operation to be authorized.
type Role string

const (
	// RoleClient requires the caller to be the project's client.
	RoleClient Role = "client"
	// RoleConsultant requires the caller to be the project's consultant.
	RoleConsultant Role = "consultant"
	// RoleParticipant accepts either side of the project.
	RoleParticipant Role = "participant"
)

// Project is the registry row resolved for ownership checks. The payment
// service never mutates this table.
type Project struct {
	ID           uuid.UUID `json:"id"`
	ClientID     uuid.UUID `json:"client_id"`
	ConsultantID uuid.UUID `json:"consultant_id"`
	Title        string    `json:"title"`
	Status       string    `json:"status"`
}

// RoleOf reports the caller's relationship to the project.
func (p *Project) RoleOf(userID uuid.UUID) (Role, bool) {
	switch userID {
	case p.ClientID:
		return RoleClient, true
	case p.ConsultantID:
		return RoleConsultant, true
	}
	return "", false
}

// Satisfies reports whether the caller meets the required role.
func (p *Project) Satisfies(userID uuid.UUID, required Role) bool {
	actual, ok := p.RoleOf(userID)
	if !ok {
		return false
	}
	if required == RoleParticipant {
		return true
	}
	return actual == required
}
