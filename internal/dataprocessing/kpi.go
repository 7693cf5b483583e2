package dataprocessing

import (
	"leadpulse/pkg/contracts/domain"
)

// ComputeKPIs evaluates the dashboard's headline counts over a filtered
// lead set. The predicates are exact and case-sensitive:
//
//   - TotalWithFitScore: fit score present and status != "Pending"
//     (pending leads have not been qualified yet)
//   - Invited: status "Ready to send" or "Sent"
//   - Accepted: status "ACCEPTED"
//   - PendingLeads: status "Pending" with a fit score present
func ComputeKPIs(leads []domain.Lead) domain.KPISummary {
	k := domain.KPISummary{TotalRecords: len(leads)}
	for _, lead := range leads {
		status := lead.ConnectionStatus()
		if lead.HasFitScore() && status != domain.StatusPending {
			k.TotalWithFitScore++
		}
		switch status {
		case domain.StatusReadyToSend, domain.StatusSent:
			k.Invited++
		case domain.StatusAccepted:
			k.Accepted++
		case domain.StatusPending:
			if lead.HasFitScore() {
				k.PendingLeads++
			}
		}
	}
	return k
}
