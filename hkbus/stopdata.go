package hkbus

import "github.com/theoremus-urban-solutions/hkbus-eta/branchedlist"

// StopData is one stop of a merged route stop list. Route is the branch that
// won the conflict for this stop; BranchIndex is its position in the branch
// list of the lookup. BranchIDs holds the index of every branch serving the
// stop.
type StopData struct {
	StopID      string
	ServiceType int
	Stop        Stop
	Route       Route
	BranchIndex int
	BranchIDs   branchedlist.BranchSet[int]
}

// Branches returns the branch routes serving the stop, in branch order.
// Indices outside branches are skipped.
func (s StopData) Branches(branches []Route) []Route {
	var out []Route
	for i, r := range branches {
		if s.BranchIDs.Contains(i) {
			out = append(out, r)
		}
	}
	return out
}
