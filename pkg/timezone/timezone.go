// Package timezone maps a star's declared country to a fixed UTC offset.
//
// The table intentionally ignores daylight saving time: offsets are the standard offset of the
// country's most populated zone.
package timezone

import (
	"fmt"
	"strings"
	"time"

	"star-booking-be/pkg/slottime"
)

const DateLayout = "2006-01-02"

type zone struct {
	code   string
	offset int // minutes east of UTC
}

var countries = map[string]zone{
	"indonesia":            {"ID", 7 * 60},
	"malaysia":             {"MY", 8 * 60},
	"singapore":            {"SG", 8 * 60},
	"philippines":          {"PH", 8 * 60},
	"thailand":             {"TH", 7 * 60},
	"vietnam":              {"VN", 7 * 60},
	"india":                {"IN", 5*60 + 30},
	"pakistan":             {"PK", 5 * 60},
	"bangladesh":           {"BD", 6 * 60},
	"nepal":                {"NP", 5*60 + 45},
	"sri lanka":            {"LK", 5*60 + 30},
	"china":                {"CN", 8 * 60},
	"hong kong":            {"HK", 8 * 60},
	"taiwan":               {"TW", 8 * 60},
	"japan":                {"JP", 9 * 60},
	"south korea":          {"KR", 9 * 60},
	"australia":            {"AU", 10 * 60},
	"new zealand":          {"NZ", 12 * 60},
	"united arab emirates": {"AE", 4 * 60},
	"saudi arabia":         {"SA", 3 * 60},
	"qatar":                {"QA", 3 * 60},
	"kuwait":               {"KW", 3 * 60},
	"egypt":                {"EG", 2 * 60},
	"turkey":               {"TR", 3 * 60},
	"russia":               {"RU", 3 * 60},
	"south africa":         {"ZA", 2 * 60},
	"nigeria":              {"NG", 1 * 60},
	"kenya":                {"KE", 3 * 60},
	"ghana":                {"GH", 0},
	"morocco":              {"MA", 1 * 60},
	"united kingdom":       {"GB", 0},
	"ireland":              {"IE", 0},
	"portugal":             {"PT", 0},
	"france":               {"FR", 1 * 60},
	"germany":              {"DE", 1 * 60},
	"spain":                {"ES", 1 * 60},
	"italy":                {"IT", 1 * 60},
	"netherlands":          {"NL", 1 * 60},
	"sweden":               {"SE", 1 * 60},
	"poland":               {"PL", 1 * 60},
	"greece":               {"GR", 2 * 60},
	"brazil":               {"BR", -3 * 60},
	"argentina":            {"AR", -3 * 60},
	"chile":                {"CL", -4 * 60},
	"colombia":             {"CO", -5 * 60},
	"peru":                 {"PE", -5 * 60},
	"mexico":               {"MX", -6 * 60},
	"united states":        {"US", -5 * 60},
	"canada":               {"CA", -5 * 60},
}

var byCode = func() map[string]int {
	m := make(map[string]int, len(countries))
	for _, z := range countries {
		m[strings.ToLower(z.code)] = z.offset
	}
	return m
}()

var aliases = map[string]string{
	"usa":   "united states",
	"us":    "united states",
	"uk":    "united kingdom",
	"uae":   "united arab emirates",
	"ksa":   "saudi arabia",
	"korea": "south korea",
}

// OffsetMinutes returns the UTC offset for a country name or ISO 3166 alpha-2 code.
// Unknown or empty countries resolve to UTC with ok=false.
func OffsetMinutes(country string) (offset int, ok bool) {
	key := strings.ToLower(strings.TrimSpace(country))
	if key == "" {
		return 0, false
	}
	if alias, found := aliases[key]; found {
		key = alias
	}
	if z, found := countries[key]; found {
		return z.offset, true
	}
	if off, found := byCode[key]; found {
		return off, true
	}
	return 0, false
}

// Location returns a fixed zone for the country.
func Location(country string) *time.Location {
	offset, _ := OffsetMinutes(country)
	return time.FixedZone(zoneName(offset), offset*60)
}

// ToUTC converts the start of a slot on a local calendar date into a UTC instant.
func ToUTC(date, slot, country string) (time.Time, error) {
	day, err := time.ParseInLocation(DateLayout, date, Location(country))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	start, err := slottime.StartMinutes(slot)
	if err != nil {
		return time.Time{}, err
	}
	return day.Add(time.Duration(start) * time.Minute).UTC(), nil
}

// LocalNow returns now on the country's wall clock.
func LocalNow(now time.Time, country string) time.Time {
	return now.In(Location(country))
}

// Today returns the country's current calendar date as YYYY-MM-DD.
func Today(now time.Time, country string) string {
	return LocalNow(now, country).Format(DateLayout)
}

func zoneName(offset int) string {
	sign := '+'
	if offset < 0 {
		sign = '-'
		offset = -offset
	}
	return fmt.Sprintf("UTC%c%02d:%02d", sign, offset/60, offset%60)
}
