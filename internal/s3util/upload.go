// Package s3util stores finished videos in S3 and hands out presigned
// download links.
package s3util

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"github.com/fpang/ai-video-generator/internal/jobs"
	"github.com/fpang/ai-video-generator/internal/pipeline"
)

// projectTag is the URL-encoded object tagging string for cost allocation.
const projectTag = "Project=ai-video-generator"

// DefaultURLExpiry is how long presigned download links stay valid.
const DefaultURLExpiry = 15 * time.Minute

// ObjectPutter is the subset of the S3 client used for uploads.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// GetPresigner is the subset of the presign client used for download links.
type GetPresigner interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Key returns the object key for a file belonging to a video.
func Key(videoID, name string) string {
	return path.Join("videos", videoID, name)
}

// UploadFile puts a local file at key with the given content type.
func UploadFile(ctx context.Context, client ObjectPutter, bucket, key, localPath, contentType string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	tagging := projectTag
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        f,
		ContentType: &contentType,
		Tagging:     &tagging,
	})
	if err != nil {
		return fmt.Errorf("upload %s to S3: %w", key, err)
	}
	log.Debug().Str("bucket", bucket).Str("key", key).Msg("Uploaded to S3")
	return nil
}

// GeneratePresignedURL creates a pre-signed GET URL for an S3 object.
func GeneratePresignedURL(ctx context.Context, presignClient GetPresigner, bucket, key string, expiry time.Duration) (string, error) {
	result, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket, Key: &key,
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expiry
	})
	if err != nil {
		return "", fmt.Errorf("presign GetObject: %w", err)
	}
	return result.URL, nil
}

// Artifacts publishes pipeline output to a bucket.
type Artifacts struct {
	Client    ObjectPutter
	Presigner GetPresigner
	Bucket    string
}

var _ jobs.Publisher = (*Artifacts)(nil)

// Publish uploads the video and, when present, the poster and debug bundle.
// Only a failed video upload is an error.
func (a *Artifacts) Publish(ctx context.Context, res *pipeline.Result) (*jobs.Artifacts, error) {
	start := time.Now()
	out := &jobs.Artifacts{VideoKey: Key(res.ID, filepath.Base(res.VideoPath))}
	if err := UploadFile(ctx, a.Client, a.Bucket, out.VideoKey, res.VideoPath, "video/mp4"); err != nil {
		return nil, err
	}

	if res.PosterPath != "" {
		key := Key(res.ID, filepath.Base(res.PosterPath))
		if err := UploadFile(ctx, a.Client, a.Bucket, key, res.PosterPath, "image/jpeg"); err != nil {
			log.Warn().Err(err).Str("videoId", res.ID).Msg("Poster upload failed")
		} else {
			out.PosterKey = key
		}
	}
	if res.BundlePath != "" {
		key := Key(res.ID, filepath.Base(res.BundlePath))
		if err := UploadFile(ctx, a.Client, a.Bucket, key, res.BundlePath, "application/zstd"); err != nil {
			log.Warn().Err(err).Str("videoId", res.ID).Msg("Debug bundle upload failed")
		}
	}

	log.Info().
		Str("videoId", res.ID).
		Str("videoKey", out.VideoKey).
		Dur("duration", time.Since(start)).
		Msg("Artifacts uploaded to S3")
	return out, nil
}

// DownloadURL presigns key for DefaultURLExpiry.
func (a *Artifacts) DownloadURL(ctx context.Context, key string) (string, error) {
	return GeneratePresignedURL(ctx, a.Presigner, a.Bucket, key, DefaultURLExpiry)
}
