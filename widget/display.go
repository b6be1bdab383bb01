package widget

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/theoremus-urban-solutions/hkbus-eta/favourite"
	"github.com/theoremus-urban-solutions/hkbus-eta/hkbus"
)

// PlatformInfo is the record handed to native widget code for a favourite.
type PlatformInfo struct {
	RouteNumber     string          `json:"routeNumber"`
	Co              hkbus.Operator  `json:"co"`
	CoDisplay       string          `json:"coDisplay"`
	PrependTo       string          `json:"prependTo,omitempty"`
	Dest            string          `json:"dest"`
	CoSpecialRemark string          `json:"coSpecialRemark,omitempty"`
	SecondLine      string          `json:"secondLine,omitempty"`
	Fingerprint     string          `json:"fingerprint"`
	PrecomputedData json.RawMessage `json:"precomputedData"`
}

// PlatformInfo builds the widget record of fav, embedding its precomputed
// data as plain JSON.
func (b *Builder) PlatformInfo(fav favourite.RouteStop) (*PlatformInfo, error) {
	data, err := b.Build(fav)
	if err != nil {
		return nil, err
	}
	return PlatformInfoOf(data)
}

// PlatformInfoOf builds the widget record of already precomputed data.
func PlatformInfoOf(data *PrecomputedData) (*PlatformInfo, error) {
	payload, err := Encode(data, false)
	if err != nil {
		return nil, err
	}

	fav := data.Fav
	lang := data.Language
	route := &fav.Route
	info := &PlatformInfo{
		RouteNumber:     route.RouteNumber,
		Co:              fav.Co,
		CoDisplay:       fav.Co.DisplayName(route.KMBCTBJoint, route.GMBRegion, lang),
		Dest:            route.ResolvedDest(false).Get(lang),
		Fingerprint:     Fingerprint(payload),
		PrecomputedData: payload,
	}
	if route.ShouldPrependTo() {
		info.PrependTo = hkbus.ToPrefix.Get(lang)
	}
	if fav.Co == hkbus.NLB {
		if lang == "en" {
			info.CoSpecialRemark = "From " + route.Orig.En
		} else {
			info.CoSpecialRemark = "從" + route.Orig.Zh + "開出"
		}
	}
	if !fav.Closest() {
		info.SecondLine = stopLabel(fav.Co, fav.Index, fav.Stop, lang)
	}
	return info, nil
}

func stopLabel(co hkbus.Operator, index int, stop hkbus.Stop, lang string) string {
	if co.IsTrain() {
		return stop.Name.Get(lang)
	}
	return fmt.Sprintf("%d. %s", index, stop.Name.Get(lang))
}

// Display is what a widget shows for a favourite at a point in time.
type Display struct {
	Stop             favourite.ResolvedStop `json:"stop"`
	Branch           hkbus.Route            `json:"branch"`
	ResolvedStopName string                 `json:"resolvedStopName"`
	ResolvedDestName string                 `json:"resolvedDestName"`
	ClosestStopLabel string                 `json:"closestStopLabel"`
	LastUpdatedLabel string                 `json:"lastUpdatedLabel"`
}

// BuildDisplay decodes a precomputed payload and resolves what to show at
// now, given the device location if known.
func BuildDisplay(payload []byte, origin *hkbus.Coordinates, now time.Time) (*Display, error) {
	d, err := Decode(payload)
	if err != nil {
		return nil, err
	}
	return d.Display(origin, now), nil
}

// Display resolves the favourite against the precomputed stops.
func (d *PrecomputedData) Display(origin *hkbus.Coordinates, now time.Time) *Display {
	lang := d.Language
	stops := d.stopData()
	resolved := d.resolve(stops, origin)

	var name string
	if d.Co.IsBus() {
		name = fmt.Sprintf("%d. %s", resolved.Index, resolved.Stop.Name.Get(lang))
	} else {
		name = resolved.Stop.Name.Get(lang)
	}

	branch, ok := CurrentBranch(d.AllBranches, now, d.ServiceDayMap, d.Holidays)
	if !ok {
		branch = resolved.Route
	}
	dest := favourite.DestWithBranch(resolved.Route, branch, stops, resolved.Index, resolved.StopID, false)

	out := &Display{
		Stop:             resolved,
		Branch:           branch,
		ResolvedStopName: name,
		ResolvedDestName: dest.Get(lang),
	}
	if lang == "en" {
		out.ClosestStopLabel = " - Closest"
		out.LastUpdatedLabel = "Last Updated: " + now.Format("15:04")
	} else {
		out.ClosestStopLabel = " - 最近"
		out.LastUpdatedLabel = "更新時間: " + now.Format("15:04")
	}
	return out
}

func (d *PrecomputedData) stopData() []hkbus.StopData {
	out := make([]hkbus.StopData, len(d.AllStops))
	for i, s := range d.AllStops {
		out[i] = hkbus.StopData{StopID: s.StopID, Stop: s.Stop, BranchIndex: s.Route}
		if s.Route >= 0 && s.Route < len(d.AllBranches) {
			out[i].Route = d.AllBranches[s.Route]
		} else if len(d.AllBranches) > 0 {
			out[i].Route = d.AllBranches[0]
		}
	}
	return out
}

func (d *PrecomputedData) resolve(stops []hkbus.StopData, origin *hkbus.Coordinates) favourite.ResolvedStop {
	if !d.Fav.Closest() || origin == nil {
		return d.Fav.Fixed()
	}
	s, err := favourite.ClosestStop(stops, *origin)
	if err != nil {
		return d.Fav.Fixed()
	}
	return s
}
