package ezshare

import "time"

// Entry is a single file or directory from the card's listing page.
type Entry struct {
	Name     string
	IsDir    bool
	Size     int64
	Modified time.Time
	URL      string
}

// Version holds the firmware information reported by the card's
// client?command=version endpoint.
type Version struct {
	ChipModel       string `json:"chip_model,omitempty"`
	FirmwareVersion string `json:"firmware_version,omitempty"`
	Date            string `json:"date,omitempty"`
	BuildNumber     string `json:"build_number,omitempty"`
	Raw             string `json:"raw"`
}
