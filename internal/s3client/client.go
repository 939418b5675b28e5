package s3client

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	appConfig "ezsync/config"
	"ezsync/internal/models"
	"ezsync/pkg/utils"
)

// Client pushes the local CPAP data directory to an S3-compatible bucket
// for offsite backup, and prunes old backups from the prefix.
type Client struct {
	s3Client *s3.Client
	config   *appConfig.Config
}

func New(cfg *appConfig.Config) (*Client, error) {
	if cfg.BucketName == "" {
		return nil, fmt.Errorf("backup requires BUCKET_NAME to be configured")
	}

	awsConfig, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.StaticCredentialsProvider{
			Value: aws.Credentials{
				AccessKeyID:     cfg.AccessKey,
				SecretAccessKey: cfg.SecretKey,
			},
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Client *s3.Client
	if cfg.ApiURL != "" {
		s3Client = s3.NewFromConfig(awsConfig, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.ApiURL)
			o.UsePathStyle = true
		})
	} else {
		s3Client = s3.NewFromConfig(awsConfig)
	}

	return &Client{
		s3Client: s3Client,
		config:   cfg,
	}, nil
}

// Backup uploads sourcePath to the bucket. With archive set the directory is
// zipped into a temp file first and uploaded as a single object; otherwise
// every file is uploaded under its relative path.
func (c *Client) Backup(ctx context.Context, sourcePath, destinationPath string, archive bool, archiveName string) (*models.BackupResult, error) {
	startTime := time.Now()

	if err := utils.ValidatePaths([]string{sourcePath}); err != nil {
		return nil, fmt.Errorf("backup source validation failed: %w", err)
	}

	var items []models.BackupItem
	var totalSize int64
	var archivePath string

	uploader := manager.NewUploader(c.s3Client)

	if archive {
		if archiveName == "" {
			archiveName = utils.GenerateArchiveName([]string{sourcePath}, ".zip")
		} else if !strings.HasSuffix(archiveName, ".zip") {
			archiveName += ".zip"
		}
		archivePath = filepath.Join(os.TempDir(), archiveName)

		archiveInfo, err := utils.CreateArchive([]string{sourcePath}, archivePath)
		if err != nil {
			return nil, fmt.Errorf("failed to create archive: %w", err)
		}
		defer utils.CleanupTempFile(archivePath)

		remotePath := c.buildRemotePath(destinationPath, archiveName)
		if err := c.uploadFile(ctx, uploader, archivePath, remotePath); err != nil {
			return nil, fmt.Errorf("failed to upload archive: %w", err)
		}

		totalSize = archiveInfo.CompressedSize
		items = append(items, models.BackupItem{
			LocalPath:  sourcePath,
			RemotePath: remotePath,
			Size:       archiveInfo.CompressedSize,
			IsArchived: true,
		})
	} else {
		err := filepath.Walk(sourcePath, func(path string, info os.FileInfo, err error) error {
			if err != nil || info.IsDir() {
				return err
			}
			relPath, err := filepath.Rel(sourcePath, path)
			if err != nil {
				return err
			}
			remotePath := c.buildRemotePath(destinationPath, filepath.ToSlash(relPath))
			if err := c.uploadFile(ctx, uploader, path, remotePath); err != nil {
				return err
			}
			items = append(items, models.BackupItem{
				LocalPath:  path,
				RemotePath: remotePath,
				Size:       info.Size(),
			})
			totalSize += info.Size()
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to upload %s: %w", sourcePath, err)
		}
	}

	return &models.BackupResult{
		BucketName:      c.config.BucketName,
		DestinationPath: destinationPath,
		Items:           items,
		TotalFiles:      len(items),
		TotalSizeBytes:  totalSize,
		TotalSizeHuman:  utils.FormatBytes(totalSize),
		OperationTime:   utils.FormatTime(startTime),
		ArchiveCreated:  archive,
		ArchivePath:     archivePath,
		BackupDuration:  time.Since(startTime).String(),
	}, nil
}

// Prune deletes objects under prefix whose last-modified is older than
// daysOld days. Used to cap how many backup archives accumulate.
func (c *Client) Prune(ctx context.Context, prefix string, daysOld int) (*models.PruneInfo, error) {
	cutoffDate := time.Now().AddDate(0, 0, -daysOld)

	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	var toDelete []types.ObjectIdentifier
	var deletedKeys []string
	var totalSize int64

	paginator := s3.NewListObjectsV2Paginator(c.s3Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.config.BucketName),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list backups: %w", err)
		}
		for _, obj := range page.Contents {
			if obj.LastModified != nil && obj.LastModified.Before(cutoffDate) {
				toDelete = append(toDelete, types.ObjectIdentifier{Key: obj.Key})
				deletedKeys = append(deletedKeys, *obj.Key)
				totalSize += *obj.Size
			}
		}
	}

	// DeleteObjects takes at most 1000 keys per call
	for i := 0; i < len(toDelete); i += 1000 {
		end := i + 1000
		if end > len(toDelete) {
			end = len(toDelete)
		}
		_, err := c.s3Client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(c.config.BucketName),
			Delete: &types.Delete{Objects: toDelete[i:end]},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to delete backup batch: %w", err)
		}
	}

	return &models.PruneInfo{
		DaysOld:        daysOld,
		DeletedKeys:    deletedKeys,
		DeletedCount:   len(deletedKeys),
		TotalSizeBytes: totalSize,
		CutoffDate:     utils.FormatTime(cutoffDate),
	}, nil
}

func (c *Client) uploadFile(ctx context.Context, uploader *manager.Uploader, localPath, remotePath string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", localPath, err)
	}
	defer file.Close()

	_, err = uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.config.BucketName),
		Key:         aws.String(remotePath),
		Body:        file,
		ContentType: aws.String(contentType(localPath)),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	return nil
}

func (c *Client) buildRemotePath(destinationPath, filename string) string {
	if destinationPath == "" {
		return filename
	}
	destinationPath = strings.TrimPrefix(destinationPath, "/")
	if !strings.HasSuffix(destinationPath, "/") {
		destinationPath += "/"
	}
	return destinationPath + filename
}

func contentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".zip":
		return "application/zip"
	case ".json", ".jso":
		return "application/json"
	case ".txt", ".log":
		return "text/plain"
	default:
		// EDF, CRC and the other CPAP formats are binary
		return "application/octet-stream"
	}
}
