// Package hkbustest builds a small but complete data sheet for tests.
//
// The sheet covers one route per operator family:
//
//   - KMB 1A outbound with three service variants that diverge and rejoin
//   - KMB/CTB joint 101 in both directions
//   - GMB KLN 11, a circular route with two variants
//   - MTR Tuen Ma line (TWL) up and down tracks
//   - Light rail 705 circular
//   - MTR bus K12, NLB 3M and a HKKF ferry route
package hkbustest

import (
	"encoding/json"
	"testing"

	"github.com/theoremus-urban-solutions/hkbus-eta/datasheet"
	"github.com/theoremus-urban-solutions/hkbus-eta/hkbus"
)

// KMB 1A stop ids. K6 only exists on the second variant, K7 only on the third
// and sits next to K3 under the same name.
const (
	K1 = "KMB0000000000001"
	K2 = "KMB0000000000002"
	K3 = "KMB0000000000003"
	K4 = "KMB0000000000004"
	K5 = "KMB0000000000005"
	K6 = "KMB0000000000006"
	K7 = "KMB0000000000007"
)

// KMB/CTB joint 101 stop ids and their CTB counterparts.
const (
	J1   = "KMBJOINT00000001"
	J2   = "KMBJOINT00000002"
	J3   = "KMBJOINT00000003"
	J4   = "KMBJOINT00000004"
	J5   = "KMBJOINT00000005"
	CTB1 = "000001"
	CTB2 = "000002"
	CTB3 = "000003"
)

// GMB 11 stop ids.
const (
	G1 = "20000001"
	G2 = "20000002"
	G3 = "20000003"
	G4 = "20000004"
	G5 = "20000005"
)

// Route keys.
const (
	Route1AMain    = "1A+1+kmb+O"
	Route1AVia     = "1A+2+kmb+O"
	Route1AShort   = "1A+3+kmb+O"
	Route1AInbound = "1A+1+kmb+I"
	Route101Out    = "101+1+kmb+O"
	Route101In     = "101+1+kmb+I"
	RouteGMB11     = "11+1+gmb+O+KLN"
	RouteGMB11Alt  = "11+2+gmb+O+KLN"
	RouteTWLUp     = "TWL+1+mtr+UT"
	RouteTWLDown   = "TWL+1+mtr+DT"
	RouteLRT705    = "705+1+lightRail+O"
	RouteK12       = "K12+1+mtr-bus+O"
	RouteNLB3M     = "3M+1+nlb+42"
	RouteHKKF      = "HKKF+1+hkkf+O"
)

func stop(lat, lng float64, zh, en string) hkbus.Stop {
	return hkbus.Stop{
		Location: hkbus.Coordinates{Lat: lat, Lng: lng},
		Name:     hkbus.BilingualText{Zh: zh, En: en},
	}
}

func text(zh, en string) hkbus.BilingualText { return hkbus.BilingualText{Zh: zh, En: en} }

func freq(slots ...string) map[string][]string {
	m := map[string][]string{}
	for _, s := range slots {
		m[s] = []string{"2359", "900"}
	}
	return m
}

// Stops returns every stop of the fixture.
func Stops() map[string]hkbus.Stop {
	return map[string]hkbus.Stop{
		K1: stop(22.300, 114.170, "甲站", "Stop A"),
		K2: stop(22.301, 114.170, "乙站", "Stop B"),
		K3: stop(22.302, 114.170, "丙站", "Stop C"),
		K4: stop(22.303, 114.170, "丁站", "Stop D"),
		K5: stop(22.304, 114.170, "戊站", "Stop E"),
		K6: stop(22.3015, 114.1705, "己站", "Stop X"),
		K7: stop(22.3024, 114.170, "丙站", "Stop C"),

		J1:   stop(22.320, 114.180, "聯營一", "Joint 1"),
		J2:   stop(22.321, 114.180, "聯營二", "Joint 2"),
		J3:   stop(22.322, 114.180, "聯營三", "Joint 3"),
		J4:   stop(22.330, 114.180, "聯營四", "Joint 4"),
		J5:   stop(22.331, 114.180, "聯營五", "Joint 5"),
		CTB1: stop(22.320, 114.180, "聯營一", "Joint 1"),
		CTB2: stop(22.321, 114.180, "聯營二", "Joint 2"),
		CTB3: stop(22.322, 114.180, "聯營三", "Joint 3"),

		G1: stop(22.310, 114.220, "觀塘 (裕民坊) 總站", "Kwun Tong (Yue Man Square) Terminus"),
		G2: stop(22.312, 114.222, "協和街", "Hip Wo Street"),
		G3: stop(22.315, 114.225, "彩雲邨", "Choi Wan Estate"),
		G4: stop(22.316, 114.226, "彩雲 (豐澤樓)", "Choi Wan (Fung Chak House)"),
		G5: stop(22.313, 114.221, "牛頭角", "Ngau Tau Kok"),

		"TSW": stop(22.448, 113.999, "天水圍", "Tin Shui Wai"),
		"TWW": stop(22.369, 114.109, "荃灣西", "Tsuen Wan West"),
		"HOM": stop(22.309, 114.183, "何文田", "Ho Man Tin"),

		"LR001": stop(22.450, 114.000, "天水圍", "Tin Shui Wai"),
		"LR002": stop(22.452, 114.002, "天瑞", "Tin Shui"),
		"LR003": stop(22.455, 114.004, "銀座", "Ginza"),

		"K12-U010": stop(22.400, 113.970, "大埔墟站", "Tai Po Market Station"),
		"K12-U020": stop(22.410, 113.980, "寶湖道", "Po Wu Lane"),

		"101": stop(22.280, 113.940, "東涌站", "Tung Chung Station"),
		"102": stop(22.290, 113.950, "梅窩", "Mui Wo"),

		"FERRYCL": stop(22.287, 114.160, "中環碼頭", "Central Pier"),
		"FERRYTC": stop(22.289, 113.943, "東涌碼頭", "Tung Chung Pier"),
	}
}

// Routes returns the fixture routes keyed by route key, together with the
// document order of the keys.
func Routes() (map[string]hkbus.Route, []string) {
	routes := map[string]hkbus.Route{
		Route1AMain: {
			RouteNumber: "1A", Bound: map[hkbus.Operator]string{hkbus.KMB: "O"}, Co: []hkbus.Operator{hkbus.KMB},
			ServiceType: "1", GTFSID: "200", Dest: text("彩雲", "Choi Wan"), Orig: text("甲站", "Stop A"),
			Stops: map[hkbus.Operator][]string{hkbus.KMB: {K1, K2, K3, K4, K5}},
			Freq:  map[string]map[string][]string{"31": freq("0600")},
		},
		Route1AVia: {
			RouteNumber: "1A", Bound: map[hkbus.Operator]string{hkbus.KMB: "O"}, Co: []hkbus.Operator{hkbus.KMB},
			ServiceType: "2", GTFSID: "201", Dest: text("彩雲", "Choi Wan"), Orig: text("甲站", "Stop A"),
			Stops: map[hkbus.Operator][]string{hkbus.KMB: {K1, K6, K3, K5}},
			Freq:  map[string]map[string][]string{"287": freq("0700")},
		},
		Route1AShort: {
			RouteNumber: "1A", Bound: map[hkbus.Operator]string{hkbus.KMB: "O"}, Co: []hkbus.Operator{hkbus.KMB},
			ServiceType: "3", GTFSID: "202", Dest: text("彩雲", "Choi Wan"), Orig: text("甲站", "Stop A"),
			Stops: map[hkbus.Operator][]string{hkbus.KMB: {K1, K7, K5}},
		},
		Route1AInbound: {
			RouteNumber: "1A", Bound: map[hkbus.Operator]string{hkbus.KMB: "I"}, Co: []hkbus.Operator{hkbus.KMB},
			ServiceType: "1", GTFSID: "203", Dest: text("甲站", "Stop A"), Orig: text("彩雲", "Choi Wan"),
			Stops: map[hkbus.Operator][]string{hkbus.KMB: {K5, K4, K3, K2, K1}},
		},
		Route101Out: {
			RouteNumber: "101", Bound: map[hkbus.Operator]string{hkbus.KMB: "O", hkbus.CTB: "O"},
			Co: []hkbus.Operator{hkbus.KMB, hkbus.CTB}, KMBCTBJoint: true,
			ServiceType: "1", GTFSID: "300", Dest: text("堅尼地城", "Kennedy Town"), Orig: text("觀塘", "Kwun Tong"),
			Stops: map[hkbus.Operator][]string{hkbus.KMB: {J1, J2, J3}, hkbus.CTB: {CTB1, CTB2, CTB3}},
			Freq:  map[string]map[string][]string{"31": freq("0800")},
		},
		Route101In: {
			RouteNumber: "101", Bound: map[hkbus.Operator]string{hkbus.KMB: "I", hkbus.CTB: "I"},
			Co: []hkbus.Operator{hkbus.KMB, hkbus.CTB}, KMBCTBJoint: true,
			ServiceType: "1", GTFSID: "301", Dest: text("觀塘", "Kwun Tong"), Orig: text("堅尼地城", "Kennedy Town"),
			Stops: map[hkbus.Operator][]string{hkbus.KMB: {J4, J5, J1}},
		},
		RouteGMB11: {
			RouteNumber: "11", Bound: map[hkbus.Operator]string{hkbus.GMB: "O"}, Co: []hkbus.Operator{hkbus.GMB},
			GMBRegion: hkbus.GMBRegionKLN, ServiceType: "1", GTFSID: "400",
			Dest: text("彩雲 (循環線)", "Choi Wan (Circular)"), Orig: text("觀塘", "Kwun Tong"),
			Stops: map[hkbus.Operator][]string{hkbus.GMB: {G1, G2, G3, G4, G5, G1}},
		},
		RouteGMB11Alt: {
			RouteNumber: "11", Bound: map[hkbus.Operator]string{hkbus.GMB: "O"}, Co: []hkbus.Operator{hkbus.GMB},
			GMBRegion: hkbus.GMBRegionKLN, ServiceType: "2", GTFSID: "401",
			Dest: text("彩雲 (循環線)", "Choi Wan (Circular)"), Orig: text("觀塘", "Kwun Tong"),
			Stops: map[hkbus.Operator][]string{hkbus.GMB: {G1, G2, G3, G1}},
		},
		RouteTWLUp: {
			RouteNumber: "TWL", Bound: map[hkbus.Operator]string{hkbus.MTR: "UT"}, Co: []hkbus.Operator{hkbus.MTR},
			ServiceType: "1", Dest: text("天水圍", "Tin Shui Wai"), Orig: text("何文田", "Ho Man Tin"),
			Stops: map[hkbus.Operator][]string{hkbus.MTR: {"HOM", "TWW", "TSW"}},
		},
		RouteTWLDown: {
			RouteNumber: "TWL", Bound: map[hkbus.Operator]string{hkbus.MTR: "DT"}, Co: []hkbus.Operator{hkbus.MTR},
			ServiceType: "1", Dest: text("何文田", "Ho Man Tin"), Orig: text("天水圍", "Tin Shui Wai"),
			Stops: map[hkbus.Operator][]string{hkbus.MTR: {"TSW", "TWW", "HOM"}},
		},
		RouteLRT705: {
			RouteNumber: "705", Bound: map[hkbus.Operator]string{hkbus.LRT: "O"}, Co: []hkbus.Operator{hkbus.LRT},
			ServiceType: "1", Dest: text("天水圍", "Tin Shui Wai"), Orig: text("天水圍", "Tin Shui Wai"),
			LRTCircular: &hkbus.BilingualText{Zh: "天水圍循環綫", En: "TSW Circular"},
			Stops:       map[hkbus.Operator][]string{hkbus.LRT: {"LR001", "LR002", "LR003", "LR001"}},
		},
		RouteK12: {
			RouteNumber: "K12", Bound: map[hkbus.Operator]string{hkbus.MTRBus: "O"}, Co: []hkbus.Operator{hkbus.MTRBus},
			ServiceType: "1", Dest: text("寶湖道", "Po Wu Lane"), Orig: text("大埔墟站", "Tai Po Market Station"),
			Stops: map[hkbus.Operator][]string{hkbus.MTRBus: {"K12-U010", "K12-U020"}},
		},
		RouteNLB3M: {
			RouteNumber: "3M", Bound: map[hkbus.Operator]string{hkbus.NLB: "O"}, Co: []hkbus.Operator{hkbus.NLB},
			NLBID: "42", ServiceType: "1", Dest: text("梅窩", "Mui Wo"), Orig: text("東涌站", "Tung Chung Station"),
			Stops: map[hkbus.Operator][]string{hkbus.NLB: {"101", "102"}},
		},
		RouteHKKF: {
			RouteNumber: "HKKF", Bound: map[hkbus.Operator]string{hkbus.HKKF: "O"}, Co: []hkbus.Operator{hkbus.HKKF},
			ServiceType: "1", Dest: text("東涌", "Tung Chung"), Orig: text("中環", "Central"),
			Stops: map[hkbus.Operator][]string{hkbus.HKKF: {"FERRYCL", "FERRYTC"}},
		},
	}
	order := []string{
		Route1AMain, Route1AVia, Route1AShort, Route1AInbound,
		Route101Out, Route101In,
		RouteGMB11, RouteGMB11Alt,
		RouteTWLUp, RouteTWLDown,
		RouteLRT705, RouteK12, RouteNLB3M, RouteHKKF,
	}
	return routes, order
}

// Container returns the fixture data set.
func Container() datasheet.Container {
	routes, order := Routes()
	return datasheet.Container{
		DataSheet: datasheet.DataSheet{
			Holidays:  []datasheet.Date{"2024-01-01", "2024-02-10"},
			RouteList: routes,
			StopList:  Stops(),
			StopMap: map[string][]datasheet.StopRef{
				J1: {{Co: hkbus.CTB, StopID: CTB1}},
			},
			// Sunday first.
			ServiceDayMap: map[string][]string{
				"31":  {"0", "1", "1", "1", "1", "1", "0"},
				"287": {"1", "0", "0", "0", "0", "0", "1"},
				"999": {"1", "1", "1", "1", "1", "1", "1"},
			},
		},
		MTRBusStopAlias: map[string][]string{"K12-U010": {"K12-D010"}},
		UpdatedTime:     1704067200000,
		RouteOrder:      order,
	}
}

// Index returns an index over Container.
func Index() *datasheet.Index { return datasheet.NewIndex(Container()) }

// JSON encodes Container as the published container JSON. Route keys appear
// in document order.
func JSON(t testing.TB) []byte {
	t.Helper()
	c := Container()

	routes := make([]byte, 0, 4096)
	routes = append(routes, '{')
	for i, key := range c.RouteOrder {
		if i > 0 {
			routes = append(routes, ',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			t.Fatalf("marshal key: %v", err)
		}
		v, err := json.Marshal(c.DataSheet.RouteList[key])
		if err != nil {
			t.Fatalf("marshal route: %v", err)
		}
		routes = append(routes, k...)
		routes = append(routes, ':')
		routes = append(routes, v...)
	}
	routes = append(routes, '}')

	out, err := json.Marshal(map[string]any{
		"dataSheet": map[string]any{
			"holidays":      []string{"20240101", "2024-02-10"},
			"routeList":     json.RawMessage(routes),
			"stopList":      c.DataSheet.StopList,
			"stopMap":       c.DataSheet.StopMap,
			"serviceDayMap": c.DataSheet.ServiceDayMap,
		},
		"mtrBusStopAlias": c.MTRBusStopAlias,
		"updatedTime":     c.UpdatedTime,
	})
	if err != nil {
		t.Fatalf("marshal container: %v", err)
	}
	return out
}
