// Package source resolves image references and export destinations that may
// live on the local filesystem, behind http(s) URLs, or in S3.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// IsRemote reports whether ref needs to be fetched before it can be opened.
func IsRemote(ref string) bool {
	return strings.HasPrefix(ref, "s3://") ||
		strings.HasPrefix(ref, "http://") ||
		strings.HasPrefix(ref, "https://")
}

// Resolve turns ref into a local file path. Remote references are downloaded
// to a temp file; cleanup removes it and is a no-op for local paths.
// Supports:
// - file://path or absolute/relative filesystem paths
// - http(s):// URLs (downloads to temp)
// - s3://bucket/key (downloads to temp via AWS SDK v2)
func Resolve(ctx context.Context, ref string) (localPath string, cleanup func(), err error) {
	cleanup = func() {}

	switch {
	case strings.HasPrefix(ref, "s3://"):
		localPath, err = downloadS3ToTemp(ctx, ref)
	case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
		localPath, err = downloadHTTPToTemp(ctx, ref)
	case strings.HasPrefix(ref, "file://"):
		localPath = strings.TrimPrefix(ref, "file://")
	default:
		localPath = ref
	}
	if err != nil {
		return "", cleanup, err
	}
	if IsRemote(ref) {
		tmp := localPath
		cleanup = func() { _ = os.Remove(tmp) }
	}
	return localPath, cleanup, nil
}

// Deliver moves the finished document at tmpPath to dest. Local destinations
// are renamed (with copy fallback across filesystems); s3:// destinations are
// uploaded. tmpPath is gone after a successful delivery.
func Deliver(ctx context.Context, tmpPath, dest string) error {
	if strings.HasPrefix(dest, "s3://") {
		if err := uploadS3(ctx, tmpPath, dest); err != nil {
			return err
		}
		return os.Remove(tmpPath)
	}
	dest = strings.TrimPrefix(dest, "file://")
	if dir := filepath.Dir(dest); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create destination dir: %w", err)
		}
	}
	if err := os.Rename(tmpPath, dest); err == nil {
		return nil
	}
	return copyFile(tmpPath, dest)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}

func downloadHTTPToTemp(ctx context.Context, url string) (string, error) {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return "", fmt.Errorf("http %d", resp.StatusCode)
	}
	f, err := os.CreateTemp("", "imgdl-*"+filepath.Ext(url))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		_ = os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func splitS3(s3url string) (bucket, key string, err error) {
	path := strings.TrimPrefix(s3url, "s3://")
	slash := strings.Index(path, "/")
	if slash <= 0 || slash == len(path)-1 {
		return "", "", fmt.Errorf("invalid s3 url: %s", s3url)
	}
	return path[:slash], path[slash+1:], nil
}

func downloadS3ToTemp(ctx context.Context, s3url string) (string, error) {
	bucket, key, err := splitS3(s3url)
	if err != nil {
		return "", err
	}

	cfg, err := awscfg.LoadDefaultConfig(ctx)
	if err != nil {
		return "", err
	}
	cli := s3.NewFromConfig(cfg)

	out, err := cli.GetObject(ctx, &s3.GetObjectInput{Bucket: &bucket, Key: &key})
	if err != nil {
		return "", err
	}
	defer out.Body.Close()

	f, err := os.CreateTemp("", "s3img-*"+filepath.Ext(key))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, out.Body); err != nil {
		f.Close()
		_ = os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	log.Debug().Str("bucket", bucket).Str("key", key).Str("file", filepath.Base(f.Name())).Msg("downloaded s3 image to temp")
	return f.Name(), nil
}

func uploadS3(ctx context.Context, localPath, s3url string) error {
	bucket, key, err := splitS3(s3url)
	if err != nil {
		return err
	}

	cfg, err := awscfg.LoadDefaultConfig(ctx)
	if err != nil {
		return err
	}
	uploader := manager.NewUploader(s3.NewFromConfig(cfg))

	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	contentType := "application/pdf"
	_, err = uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        f,
		ContentType: &contentType,
	})
	if err != nil {
		return fmt.Errorf("s3 upload failed: %w", err)
	}
	log.Info().Str("bucket", bucket).Str("key", key).Msg("uploaded document to s3")
	return nil
}
