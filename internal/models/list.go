package models

type ListEntry struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	IsDir    bool   `json:"is_dir"`
	Size     int64  `json:"size,omitempty"`
	Modified string `json:"modified,omitempty"`
}

type ListResult struct {
	SourceURL      string      `json:"source_url"`
	Entries        []ListEntry `json:"entries"`
	TotalFiles     int         `json:"total_files"`
	TotalDirs      int         `json:"total_dirs"`
	TotalSizeBytes int64       `json:"total_size_bytes"`
	TotalSizeHuman string      `json:"total_size_human"`
	OperationTime  string      `json:"operation_time"`
}
