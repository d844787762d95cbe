package projects

import "time"

// ProjectStatus is the derived, non-persisted openness classification
type ProjectStatus string

const (
	StatusOpen    ProjectStatus = "Open"
	StatusFilled  ProjectStatus = "Filled"
	StatusExpired ProjectStatus = "Expired"
)

// StatusInfo is the computed lifecycle view of a project
type StatusInfo struct {
	Status          ProjectStatus `json:"status"`
	IsAcceptingBids bool          `json:"isAcceptingBids"`
	BidsRemaining   int           `json:"bidsRemaining"`
	DaysRemaining   int           `json:"daysRemaining"`
}

// ProjectWithStatus is a project enriched for the read path
type ProjectWithStatus struct {
	Project
	StatusInfo StatusInfo `json:"statusInfo"`
}

// ComputeStatus derives a project's lifecycle status from its stored fields
// and the given instant. It never mutates the project.
//
// A reached bid target wins over expiry: a project that filled before its
// end date stays Filled after the date passes.
func ComputeStatus(p *Project, now time.Time) StatusInfo {
	info := StatusInfo{
		BidsRemaining: max(p.NumberOfBids-p.BidCount, 0),
		DaysRemaining: daysUntil(p.Duration, now),
	}

	switch {
	case p.BidCount >= p.NumberOfBids:
		info.Status = StatusFilled
	case !now.Before(p.Duration):
		info.Status = StatusExpired
	default:
		info.Status = StatusOpen
		info.IsAcceptingBids = true
	}
	return info
}

// ComputeStatusBatch enriches each project independently with the same
// per-item semantics as ComputeStatus.
func ComputeStatusBatch(list []Project, now time.Time) []ProjectWithStatus {
	enriched := make([]ProjectWithStatus, 0, len(list))
	for i := range list {
		enriched = append(enriched, ProjectWithStatus{
			Project:    list[i],
			StatusInfo: ComputeStatus(&list[i], now),
		})
	}
	return enriched
}

func daysUntil(end, now time.Time) int {
	if !now.Before(end) {
		return 0
	}
	return int(end.Sub(now).Hours() / 24)
}
