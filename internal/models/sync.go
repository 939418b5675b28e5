package models

type SyncItem struct {
	Name      string `json:"name"`
	RemoteURL string `json:"remote_url"`
	LocalPath string `json:"local_path"`
	Size      int64  `json:"size"`
	Modified  string `json:"modified,omitempty"`
	Replaced  bool   `json:"replaced"`
	Attempts  int    `json:"attempts"`
}

type SyncFailure struct {
	Name      string `json:"name"`
	RemoteURL string `json:"remote_url"`
	Error     string `json:"error"`
	Attempts  int    `json:"attempts"`
}

type SyncResult struct {
	SourceURL      string        `json:"source_url"`
	TargetPath     string        `json:"target_path"`
	Items          []SyncItem    `json:"items"`
	Failures       []SyncFailure `json:"failures,omitempty"`
	TotalFiles     int           `json:"total_files"`
	SkippedFiles   int           `json:"skipped_files"`
	IgnoredEntries int           `json:"ignored_entries"`
	FilteredDirs   int           `json:"filtered_dirs"`
	TotalSizeBytes int64         `json:"total_size_bytes"`
	TotalSizeHuman string        `json:"total_size_human"`
	OperationTime  string        `json:"operation_time"`
	SyncDuration   string        `json:"sync_duration"`
	DryRun         bool          `json:"dry_run,omitempty"`
}
