package hkbus

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const routeJSON = `{
  "route": "1A",
  "bound": {"kmb": "O"},
  "co": ["kmb"],
  "serviceType": 1,
  "nlbId": null,
  "gtfsId": "2004825",
  "dest": {"zh": "中秀茂坪", "en": "Sau Mau Ping (Central)"},
  "orig": {"zh": "尖沙咀碼頭", "en": "Star Ferry"},
  "stops": {"kmb": ["18492910339410B1", "AC9B6A9B9CD5A8E5"]},
  "freq": {"31": {"0630": ["0730", "600"]}, "287": null},
  "jt": "45"
}`

func TestRouteDecode(t *testing.T) {
	t.Parallel()

	var r Route
	require.NoError(t, json.Unmarshal([]byte(routeJSON), &r))

	assert.Equal(t, "1A", r.RouteNumber)
	assert.Equal(t, FlexString("1"), r.ServiceType)
	assert.Equal(t, FlexString(""), r.NLBID)
	assert.Equal(t, 1, r.ServiceTypeInt())
	assert.Equal(t, 2004825, r.GTFSIDInt())
	require.NotNil(t, r.JourneyTime)
	assert.Equal(t, FlexInt(45), *r.JourneyTime)
	assert.ElementsMatch(t, []string{"31", "287"}, r.ServiceDayKeys())
	assert.True(t, r.HasCo(KMB))
	assert.False(t, r.HasCo(CTB))

	raw, err := json.Marshal(r)
	require.NoError(t, err)
	var again Route
	require.NoError(t, json.Unmarshal(raw, &again))
	assert.Equal(t, r, again)
}

func TestIDBound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		route Route
		co    Operator
		want  string
	}{
		{"kmb", Route{Bound: map[Operator]string{KMB: "I"}}, KMB, "I"},
		{"ctb single", Route{Bound: map[Operator]string{CTB: "O"}}, CTB, "O"},
		{"ctb two way", Route{Bound: map[Operator]string{CTB: "OI"}}, CTB, "OI"},
		{"ctb circular", Route{Bound: map[Operator]string{CTB: "O"}, CTBIsCircular: true}, CTB, "OI"},
		{"nlb", Route{NLBID: "42"}, NLB, "42"},
		{"missing", Route{}, GMB, "O"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.route.IDBound(tt.co), tt.name)
	}
}

func TestIsCircular(t *testing.T) {
	t.Parallel()

	assert.True(t, (&Route{Dest: BilingualText{Zh: "觀塘 (循環線)"}}).IsCircular())
	assert.True(t, (&Route{Dest: BilingualText{Zh: "循環行走"}}).IsCircular())
	assert.True(t, (&Route{Co: []Operator{GMB}, Stops: map[Operator][]string{GMB: {"1", "2", "1"}}}).IsCircular())
	assert.False(t, (&Route{Co: []Operator{GMB}, Stops: map[Operator][]string{GMB: {"1"}}}).IsCircular())
	assert.False(t, (&Route{Co: []Operator{KMB}, Stops: map[Operator][]string{KMB: {"1", "2"}}}).IsCircular())
}

func TestParseFallback(t *testing.T) {
	t.Parallel()

	r := Route{ServiceType: "x", GTFSID: ""}
	assert.Equal(t, 1, r.ServiceTypeInt())
	assert.Equal(t, math.MaxInt, r.GTFSIDInt())
}

func TestOperators(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []Operator{KMB}, IdentifyStopCo("18492910339410B1"))
	assert.Contains(t, IdentifyStopCo("001234"), CTB)
	assert.Equal(t, []Operator{LRT}, IdentifyStopCo("LR100"))
	assert.Equal(t, []Operator{MTR}, IdentifyStopCo("TST"))
	assert.True(t, MTRBus.MatchStopIDPattern("K12-U010"))
	assert.False(t, SunFerry.MatchStopIDPattern("anything"))

	co, ok := FirstCo([]Operator{CTB, KMB})
	require.True(t, ok)
	assert.Equal(t, KMB, co)
	_, ok = FirstCo(nil)
	assert.False(t, ok)

	assert.True(t, LRT.IsTrain())
	assert.True(t, HKKF.IsFerry())
	assert.True(t, GMB.IsBus())
	assert.False(t, MTR.IsBus())

	assert.Equal(t, "KMB/CTB", KMB.DisplayName(true, "", "en"))
	assert.Equal(t, "專線小巴 九龍", GMB.DisplayName(false, GMBRegionKLN, "zh"))
}

func TestBilingualTextHelpers(t *testing.T) {
	t.Parallel()

	dest := BilingualText{Zh: "彩雲 (循環線)", En: "Choi Wan (Circular)"}
	assert.Equal(t, BilingualText{Zh: " (循環線)", En: " (Circular)"}, dest.CircularBracket())
	assert.Equal(t, BilingualText{}, BilingualText{Zh: "彩雲", En: "Choi Wan"}.CircularBracket())

	assert.Equal(t, BilingualText{Zh: "往彩雲", En: "To Choi Wan"}, BilingualText{Zh: "彩雲", En: "Choi Wan"}.PrependTo())

	name := BilingualText{Zh: "觀塘 (協和街)", En: "Kwun Tong (Hip Wo Street)"}
	assert.Equal(t, BilingualText{Zh: "觀塘", En: "Kwun Tong "}, name.RemoveBrackets())

	term := BilingualText{Zh: "彩雲巴士總站", En: "Choi Wan Bus Terminus"}
	assert.Equal(t, BilingualText{Zh: "彩雲", En: "Choi Wan"}, term.RemoveTerminus())

	assert.Equal(t, "Choi Wan", BilingualText{Zh: "彩雲", En: "Choi Wan"}.Get("en"))
	assert.Equal(t, "彩雲", BilingualText{Zh: "彩雲", En: "Choi Wan"}.Get("zh"))
	assert.True(t, EitherContains("機場客運大樓", "客運大樓"))
	assert.True(t, EitherContains("大樓", "機場客運大樓"))
	assert.False(t, EitherContains("彩雲", "觀塘"))
}

func TestEditDistance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"彩雲", "彩雲邨", 1},
		{"觀塘", "塘觀", 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EditDistance(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
	}
}

func TestDistanceKM(t *testing.T) {
	t.Parallel()

	central := Coordinates{Lat: 22.2819, Lng: 114.1582}
	tst := Coordinates{Lat: 22.2988, Lng: 114.1722}

	d := central.DistanceKM(tst)
	assert.InDelta(t, 2.36, d, 0.1)
	assert.InDelta(t, d, tst.DistanceKM(central), 1e-9)
	assert.Zero(t, central.DistanceKM(central))
}

func TestHKKFStopCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "TC", Stop{Name: BilingualText{Zh: "東涌碼頭"}}.HKKFStopCode())
	assert.Equal(t, "CL", Stop{Name: BilingualText{Zh: "未知"}}.HKKFStopCode())
}
