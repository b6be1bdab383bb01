package hkbus

import (
	"regexp"
	"strings"
)

// BilingualText is a Chinese/English string pair.
type BilingualText struct {
	Zh string `json:"zh"`
	En string `json:"en"`
}

var (
	// ToPrefix is prepended to destinations ("To Central").
	ToPrefix = BilingualText{Zh: "往", En: "To "}

	bracketsRemovalRegex = regexp.MustCompile(` *\([^)]*\) *`)
	busTerminusZhRegex   = regexp.MustCompile(` *(?:巴士)?總站`)
	busTerminusEnRegex   = regexp.MustCompile(`(?i) *(?:Bus )?Terminus`)
	circularBracketRegex = regexp.MustCompile(`( *\([^)]*(?:循環|Circular)[^)]*\)) *`)
)

// Get returns the English text for "en" and the Chinese text otherwise.
func (t BilingualText) Get(language string) string {
	if language == "en" {
		return t.En
	}
	return t.Zh
}

func (t BilingualText) IsEmpty() bool { return t.Zh == "" && t.En == "" }

func (t BilingualText) Concat(other BilingualText) BilingualText {
	return BilingualText{Zh: t.Zh + other.Zh, En: t.En + other.En}
}

// PrependTo returns t prefixed with "往" / "To ".
func (t BilingualText) PrependTo() BilingualText { return ToPrefix.Concat(t) }

// RemoveBrackets strips parenthesised remarks, e.g. minibus stop qualifiers.
// English brackets are replaced by a single space.
func (t BilingualText) RemoveBrackets() BilingualText {
	return BilingualText{
		Zh: bracketsRemovalRegex.ReplaceAllString(t.Zh, ""),
		En: bracketsRemovalRegex.ReplaceAllString(t.En, " "),
	}
}

// RemoveTerminus strips "(巴士)總站" and "(Bus) Terminus" suffixes.
func (t BilingualText) RemoveTerminus() BilingualText {
	return BilingualText{
		Zh: busTerminusZhRegex.ReplaceAllString(t.Zh, ""),
		En: busTerminusEnRegex.ReplaceAllString(t.En, ""),
	}
}

// CircularBracket extracts the last "(...循環...)" / "(...Circular...)" remark
// including its leading spaces. Missing remarks yield empty strings.
func (t BilingualText) CircularBracket() BilingualText {
	return BilingualText{Zh: lastCircularBracket(t.Zh), En: lastCircularBracket(t.En)}
}

func lastCircularBracket(s string) string {
	matches := circularBracketRegex.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return ""
	}
	return matches[len(matches)-1][1]
}

func (t BilingualText) String() string { return t.Zh + " " + t.En }

// EitherContains reports whether a contains b or b contains a.
func EitherContains(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}
