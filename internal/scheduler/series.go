package scheduler

import "errors"

// ErrAnchorNotInSeries is returned when the anchor id is not among the members.
var ErrAnchorNotInSeries = errors.New("scheduler: anchor is not a series member")

// Member is one reservation of a series as seen by the shift planner.
type Member struct {
	ID       string
	Interval Interval
}

// PlanShift moves every member by the offset between the anchor's current start
// and newAnchor.Start. The anchor takes newAnchor verbatim, so its duration may
// change; every other member keeps its own duration. Output order follows
// members.
func PlanShift(members []Member, anchorID string, newAnchor Interval) ([]Member, error) {
	var anchor *Member
	for i := range members {
		if members[i].ID == anchorID {
			anchor = &members[i]
			break
		}
	}
	if anchor == nil {
		return nil, ErrAnchorNotInSeries
	}

	delta := newAnchor.Start.Sub(anchor.Interval.Start)
	planned := make([]Member, 0, len(members))
	for _, m := range members {
		if m.ID == anchorID {
			planned = append(planned, Member{ID: m.ID, Interval: newAnchor})
			continue
		}
		planned = append(planned, Member{ID: m.ID, Interval: m.Interval.Shift(delta)})
	}
	return planned, nil
}
