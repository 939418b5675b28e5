package ezshare

import (
	"regexp"
	"strings"
)

var (
	firmwareRe = regexp.MustCompile(`(?i)\bV\d+(?:\.\d+)*\b`)
	dateRe     = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	buildRe    = regexp.MustCompile(`#(\d+)`)
)

// parseVersion extracts what it can from the free-form version string the
// card returns, e.g. "LZ05B ez Share V2.0.1 2014-03-19 #28103". Fields that
// cannot be located stay empty; Raw always carries the full response.
func parseVersion(raw string) *Version {
	raw = strings.TrimSpace(raw)
	v := &Version{Raw: raw}

	v.FirmwareVersion = firmwareRe.FindString(raw)
	v.Date = dateRe.FindString(raw)
	if m := buildRe.FindStringSubmatch(raw); m != nil {
		v.BuildNumber = m[1]
	}
	if fields := strings.Fields(raw); len(fields) > 0 {
		v.ChipModel = fields[0]
	}

	return v
}
