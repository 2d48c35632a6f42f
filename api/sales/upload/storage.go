package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	salesS3DefaultBucket = "salesscope"
	salesS3Prefix        = "sales-uploads/"
	salesS3DefaultRegion = "ap-south-1"
)

type supabaseConfig struct {
	url    string
	key    string
	bucket string
}

func loadSupabaseConfig() (*supabaseConfig, error) {
	supaURL := strings.Trim(os.Getenv("SUPABASE_URL"), "\"")
	serviceKey := strings.Trim(os.Getenv("SUPABASE_SERVICE_ROLE_KEY"), "\"")
	anonKey := strings.Trim(os.Getenv("SUPABASE_ANON_KEY"), "\"")
	bucket := strings.Trim(os.Getenv("SUPABASE_BUCKET"), "\"")

	key := serviceKey
	if key == "" {
		key = anonKey
	}
	if supaURL == "" || bucket == "" || key == "" {
		return nil, fmt.Errorf("supabase configuration missing; set SUPABASE_URL, SUPABASE_BUCKET and at least one of SUPABASE_SERVICE_ROLE_KEY or SUPABASE_ANON_KEY")
	}
	return &supabaseConfig{url: strings.TrimRight(supaURL, "/"), key: key, bucket: bucket}, nil
}

func (c *supabaseConfig) objectURL(objectPath string) string {
	return fmt.Sprintf("%s/storage/v1/object/%s/%s", c.url, c.bucket, url.PathEscape(objectPath))
}

// BuildObjectPath builds the storage path for an uploaded sales file:
// {entity}/{unix-millis}_{fileName}.
func BuildObjectPath(entity, fileName string) string {
	return fmt.Sprintf("%s/%d_%s", sanitizePathSegment(entity), time.Now().UnixMilli(), sanitizePathSegment(fileName))
}

func sanitizePathSegment(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "unknown"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_")
	return replacer.Replace(s)
}

// UploadToSupabase stores fileBytes under objectPath in the configured
// storage bucket.
func UploadToSupabase(ctx context.Context, fileBytes []byte, objectPath string) error {
	cfg, err := loadSupabaseConfig()
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, "PUT", cfg.objectURL(objectPath), bytes.NewReader(fileBytes))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+cfg.key)
	req.Header.Set("apikey", cfg.key)
	req.Header.Set("Content-Type", detectContentType(fileBytes))

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	b, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("supabase upload failed: %d %s", resp.StatusCode, string(b))
}

// DownloadFromSupabase fetches the object bytes back for processing.
func DownloadFromSupabase(ctx context.Context, objectPath string) ([]byte, error) {
	cfg, err := loadSupabaseConfig()
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, "GET", cfg.objectURL(objectPath), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+cfg.key)
	req.Header.Set("apikey", cfg.key)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("supabase download failed: %d %s", resp.StatusCode, string(b))
	}
	return io.ReadAll(resp.Body)
}

// DeleteFromSupabase removes the object. Used after item-mapping files are
// consumed and when upload history rows are deleted.
func DeleteFromSupabase(ctx context.Context, objectPath string) error {
	cfg, err := loadSupabaseConfig()
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, "DELETE", cfg.objectURL(objectPath), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+cfg.key)
	req.Header.Set("apikey", cfg.key)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	b, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("supabase delete failed: %d %s", resp.StatusCode, string(b))
}

func detectContentType(data []byte) string {
	if len(data) == 0 {
		return "application/octet-stream"
	}
	if len(data) > 512 {
		return http.DetectContentType(data[:512])
	}
	return http.DetectContentType(data)
}

// isS3Enabled reads SALES_S3_ENABLED to decide whether original files are
// archived to S3 as well. Defaults to false when unset.
func isS3Enabled() bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv("SALES_S3_ENABLED")))
	return v == "1" || v == "true" || v == "yes"
}

func salesS3Bucket() string {
	if b := strings.TrimSpace(os.Getenv("SALES_S3_BUCKET")); b != "" {
		return b
	}
	return salesS3DefaultBucket
}

func salesS3Region() string {
	if r := strings.TrimSpace(os.Getenv("SALES_S3_REGION")); r != "" {
		return r
	}
	return salesS3DefaultRegion
}

// ArchiveToS3 stores a copy of the original file under the sales-uploads
// prefix. Failures are the caller's call to log or ignore; the Supabase
// copy is the source of truth.
func ArchiveToS3(ctx context.Context, objectPath string, body []byte) (string, error) {
	bucket := salesS3Bucket()
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(salesS3Region()))
	if err != nil {
		return "", fmt.Errorf("load AWS config: %w", err)
	}
	client := s3.NewFromConfig(cfg)
	key := salesS3Prefix + objectPath
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(detectContentType(body)),
	})
	if err != nil {
		return "", fmt.Errorf("upload to s3 (bucket %s, key %s): %w", bucket, key, err)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, salesS3Region(), key), nil
}
