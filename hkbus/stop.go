package hkbus

import "strings"

// Stop is a physical stop or station.
type Stop struct {
	Location Coordinates    `json:"location"`
	Name     BilingualText  `json:"name"`
	Remark   *BilingualText `json:"remark,omitempty"`
	KMBBbiID string         `json:"kmbBbiId,omitempty"`
	MTRIDs   []int          `json:"mtrIds,omitempty"`
}

var hkkfPiers = []struct{ name, code string }{
	{"中環", "CL"},
	{"紅磡", "HH"},
	{"北角", "NP"},
	{"觀塘", "KT"},
	{"啟德", "KTK"},
	{"屯門", "TM"},
	{"東涌", "TC"},
	{"沙螺灣", "SLW"},
	{"大澳", "TO"},
}

// HKKFStopCode maps a ferry pier to the code used by the HKKF timetable.
// Unknown piers default to Central.
func (s Stop) HKKFStopCode() string {
	for _, p := range hkkfPiers {
		if strings.Contains(s.Name.Zh, p.name) {
			return p.code
		}
	}
	return "CL"
}
