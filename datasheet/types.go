package datasheet

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/theoremus-urban-solutions/hkbus-eta/hkbus"
)

// Date is a calendar day in ISO form (2006-01-02). The data sheet also emits
// compact 20060102 dates; both decode to the ISO form.
type Date string

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n, err := NormalizeDate(s)
	if err != nil {
		return err
	}
	*d = n
	return nil
}

// NormalizeDate converts 20060102 or 2006-01-02 into a Date.
func NormalizeDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	switch {
	case len(s) == 8 && !strings.Contains(s, "-"):
		return Date(s[0:4] + "-" + s[4:6] + "-" + s[6:8]), nil
	case len(s) == 10 && s[4] == '-' && s[7] == '-':
		return Date(s), nil
	}
	return "", fmt.Errorf("invalid holiday date %q", s)
}

// StopRef points at the same physical stop under another operator. It is
// encoded as a two element array: ["ctb", "001234"].
type StopRef struct {
	Co     hkbus.Operator
	StopID string
}

func (s StopRef) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{string(s.Co), s.StopID})
}

func (s *StopRef) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("stop ref: expected 2 elements, got %d", len(pair))
	}
	s.Co = hkbus.Operator(pair[0])
	s.StopID = pair[1]
	return nil
}

// DataSheet is the published route/stop data set.
type DataSheet struct {
	Holidays      []Date                 `json:"holidays"`
	RouteList     map[string]hkbus.Route `json:"routeList"`
	StopList      map[string]hkbus.Stop  `json:"stopList"`
	StopMap       map[string][]StopRef   `json:"stopMap"`
	ServiceDayMap map[string][]string    `json:"serviceDayMap,omitempty"`
}

// Container wraps a DataSheet with auxiliary lookup tables.
type Container struct {
	DataSheet       DataSheet           `json:"dataSheet"`
	MTRBusStopAlias map[string][]string `json:"mtrBusStopAlias"`
	UpdatedTime     int64               `json:"updatedTime,omitempty"`
	RouteOrder      []string            `json:"-"` // routeList keys in document order
}
