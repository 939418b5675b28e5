package models

import "time"

type BackupItem struct {
	LocalPath  string `json:"local_path"`
	RemotePath string `json:"remote_path"`
	Size       int64  `json:"size"`
	IsArchived bool   `json:"is_archived"`
}

type PruneInfo struct {
	DaysOld        int      `json:"days_old"`
	DeletedKeys    []string `json:"deleted_keys"`
	DeletedCount   int      `json:"deleted_count"`
	TotalSizeBytes int64    `json:"total_size_bytes"`
	CutoffDate     string   `json:"cutoff_date"`
}

type BackupResult struct {
	BucketName      string       `json:"bucket_name"`
	DestinationPath string       `json:"destination_path"`
	Items           []BackupItem `json:"items"`
	TotalFiles      int          `json:"total_files"`
	TotalSizeBytes  int64        `json:"total_size_bytes"`
	TotalSizeHuman  string       `json:"total_size_human"`
	OperationTime   string       `json:"operation_time"`
	ArchiveCreated  bool         `json:"archive_created"`
	ArchivePath     string       `json:"archive_path,omitempty"`
	Pruned          *PruneInfo   `json:"pruned,omitempty"`
	BackupDuration  string       `json:"backup_duration"`
	DryRun          bool         `json:"dry_run,omitempty"`
}

type ArchiveInfo struct {
	ArchivePath      string    `json:"archive_path"`
	OriginalPaths    []string  `json:"original_paths"`
	CompressedSize   int64     `json:"compressed_size"`
	OriginalSize     int64     `json:"original_size"`
	CompressionRatio float64   `json:"compression_ratio"`
	CreatedAt        time.Time `json:"created_at"`
}
