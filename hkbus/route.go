package hkbus

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// FlexString decodes a JSON string or number into a string.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v == nil {
		*f = ""
		return nil
	}
	if n, ok := v.(float64); ok && n == math.Trunc(n) {
		*f = FlexString(cast.ToString(int64(n)))
		return nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Errorf("flex string: %w", err)
	}
	*f = FlexString(s)
	return nil
}

// FlexInt decodes a JSON number or numeric string into an int. Empty strings
// and null decode to zero.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v == nil {
		*f = 0
		return nil
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		*f = 0
		return nil
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return fmt.Errorf("flex int: %w", err)
	}
	*f = FlexInt(n)
	return nil
}

// Route is one direction of one service variant of a route.
type Route struct {
	RouteNumber   string                         `json:"route"`
	Bound         map[Operator]string            `json:"bound"`
	Co            []Operator                     `json:"co"`
	ServiceType   FlexString                     `json:"serviceType"`
	NLBID         FlexString                     `json:"nlbId"`
	GTFSID        FlexString                     `json:"gtfsId"`
	CTBIsCircular bool                           `json:"ctbIsCircular,omitempty"`
	KMBCTBJoint   bool                           `json:"kmbCtbJoint,omitempty"`
	GMBRegion     GMBRegion                      `json:"gmbRegion,omitempty"`
	LRTCircular   *BilingualText                 `json:"lrtCircular,omitempty"`
	Dest          BilingualText                  `json:"dest"`
	Orig          BilingualText                  `json:"orig"`
	Stops         map[Operator][]string          `json:"stops"`
	Fares         []string                       `json:"fares,omitempty"`
	FaresHoliday  []string                       `json:"faresHoliday,omitempty"`
	Freq          map[string]map[string][]string `json:"freq,omitempty"`
	JourneyTime   *FlexInt                       `json:"jt,omitempty"`
}

// HasCo reports whether co operates the route.
func (r *Route) HasCo(co Operator) bool {
	for _, c := range r.Co {
		if c == co {
			return true
		}
	}
	return false
}

// FirstCo returns the highest precedence operator of the route.
func (r *Route) FirstCo() (Operator, bool) { return FirstCo(r.Co) }

// IDBound returns the bound used to key the route for co: "OI" for circular or
// two-way CTB routes, the NLB id for NLB, the plain bound otherwise, "O" when
// missing.
func (r *Route) IDBound(co Operator) string {
	var bound string
	switch co {
	case CTB:
		bound = r.Bound[co]
		if r.CTBIsCircular || len(bound) > 1 {
			bound = "OI"
		}
	case NLB:
		bound = string(r.NLBID)
	default:
		bound = r.Bound[co]
	}
	if bound == "" {
		return "O"
	}
	return bound
}

// ServiceTypeInt returns the numeric service type. Non-numeric values count as
// the main service (1).
func (r *Route) ServiceTypeInt() int { return parseIntOr(string(r.ServiceType), 1) }

// GTFSIDInt returns the numeric GTFS id, or math.MaxInt when it is not numeric.
func (r *Route) GTFSIDInt() int { return parseIntOr(string(r.GTFSID), math.MaxInt) }

func parseIntOr(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return n
}

// IsCircular reports whether the route loops back: the destination says so,
// or the first and last stops of the leading operator coincide.
func (r *Route) IsCircular() bool {
	if strings.Contains(r.Dest.Zh, "循環線") || strings.Contains(r.Dest.Zh, "循環行走") {
		return true
	}
	co, ok := r.FirstCo()
	if !ok {
		return false
	}
	stops := r.Stops[co]
	return len(stops) > 1 && stops[0] == stops[len(stops)-1]
}

// ShouldPrependTo reports whether the destination reads as "To X". Light rail
// circular routes carry their own wording.
func (r *Route) ShouldPrependTo() bool { return r.LRTCircular == nil }

// ResolvedDest returns the light rail circular label if any, otherwise the
// destination, optionally prefixed with "To ".
func (r *Route) ResolvedDest(prependTo bool) BilingualText {
	if r.LRTCircular != nil {
		return *r.LRTCircular
	}
	if prependTo {
		return r.Dest.PrependTo()
	}
	return r.Dest
}

// ServiceDayKeys returns the frequency table keys of the route.
func (r *Route) ServiceDayKeys() []string {
	keys := make([]string, 0, len(r.Freq))
	for k := range r.Freq {
		keys = append(keys, k)
	}
	return keys
}

// Key identifies the route variant, unique across the data sheet.
func (r *Route) Key() string {
	co, _ := r.FirstCo()
	return fmt.Sprintf("%s+%s+%s+%s+%s", r.RouteNumber, r.ServiceType, co, r.IDBound(co), r.GMBRegion)
}
