package hkbus

import (
	"regexp"
	"slices"
)

// Operator identifies a transit operator by its data sheet name.
type Operator string

const (
	KMB          Operator = "kmb"
	CTB          Operator = "ctb"
	NLB          Operator = "nlb"
	MTRBus       Operator = "mtr-bus"
	GMB          Operator = "gmb"
	LRT          Operator = "lightRail"
	MTR          Operator = "mtr"
	SunFerry     Operator = "sunferry"
	HKKF         Operator = "hkkf"
	FortuneFerry Operator = "fortuneferry"
)

// builtIn lists operators in precedence order. FirstCo picks by this order.
var builtIn = []Operator{KMB, CTB, NLB, MTRBus, GMB, LRT, MTR, SunFerry, HKKF, FortuneFerry}

var stopIDPatterns = map[Operator]*regexp.Regexp{
	KMB:    regexp.MustCompile(`^[0-9A-Z]{16}$`),
	CTB:    regexp.MustCompile(`^[0-9]{6}$`),
	NLB:    regexp.MustCompile(`^[0-9]{1,4}$`),
	MTRBus: regexp.MustCompile(`^[A-Z]?[0-9]{1,3}[A-Z]?-[A-Z][0-9]{3}$`),
	GMB:    regexp.MustCompile(`^[0-9]{8}$`),
	LRT:    regexp.MustCompile(`^LR[0-9]+$`),
	MTR:    regexp.MustCompile(`^[A-Z]{3}$`),
}

// Operators returns the known operators in precedence order.
func Operators() []Operator { return slices.Clone(builtIn) }

// Ordinal returns the precedence of o, or len(Operators()) for unknown ones.
func (o Operator) Ordinal() int {
	if i := slices.Index(builtIn, o); i >= 0 {
		return i
	}
	return len(builtIn)
}

// MatchStopIDPattern reports whether stopID looks like one of o's stop ids.
// Operators without a known pattern never match.
func (o Operator) MatchStopIDPattern(stopID string) bool {
	re, ok := stopIDPatterns[o]
	return ok && re.MatchString(stopID)
}

func (o Operator) IsTrain() bool { return o == MTR || o == LRT }

func (o Operator) IsFerry() bool { return o == SunFerry || o == HKKF || o == FortuneFerry }

func (o Operator) IsBus() bool { return !o.IsTrain() && !o.IsFerry() }

// IdentifyStopCo returns every operator whose stop id pattern matches stopID.
func IdentifyStopCo(stopID string) []Operator {
	var out []Operator
	for _, o := range builtIn {
		if o.MatchStopIDPattern(stopID) {
			out = append(out, o)
		}
	}
	return out
}

// FirstCo returns the highest precedence operator in cos.
func FirstCo(cos []Operator) (Operator, bool) {
	if len(cos) == 0 {
		return "", false
	}
	best := cos[0]
	for _, o := range cos[1:] {
		if o.Ordinal() < best.Ordinal() {
			best = o
		}
	}
	return best, true
}

// DisplayName returns the operator label shown next to a route number.
func (o Operator) DisplayName(kmbCtbJoint bool, region GMBRegion, language string) string {
	en := language == "en"
	pick := func(zh, e string) string {
		if en {
			return e
		}
		return zh
	}
	switch o {
	case KMB:
		if kmbCtbJoint {
			return pick("九巴/城巴", "KMB/CTB")
		}
		return pick("九巴", "KMB")
	case CTB:
		return pick("城巴", "CTB")
	case NLB:
		return pick("嶼巴", "NLB")
	case MTRBus:
		return pick("港鐵巴士", "MTR Bus")
	case GMB:
		name := pick("專線小巴", "GMB")
		if region != "" {
			name += " " + region.DisplayName(language)
		}
		return name
	case LRT:
		return pick("輕鐵", "LRT")
	case MTR:
		return pick("港鐵", "MTR")
	case SunFerry:
		return pick("新渡輪", "Sun Ferry")
	case HKKF:
		return pick("港九小輪", "HKKF")
	case FortuneFerry:
		return pick("富裕小輪", "Fortune F.")
	}
	return "???"
}

// GMBRegion is the green minibus service region.
type GMBRegion string

const (
	GMBRegionHKI GMBRegion = "HKI"
	GMBRegionKLN GMBRegion = "KLN"
	GMBRegionNT  GMBRegion = "NT"
)

func (r GMBRegion) DisplayName(language string) string {
	if language == "en" {
		return string(r)
	}
	switch r {
	case GMBRegionHKI:
		return "港島"
	case GMBRegionKLN:
		return "九龍"
	case GMBRegionNT:
		return "新界"
	}
	return string(r)
}
