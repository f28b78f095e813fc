package storage

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/Lighty-Launcher/LightyUpdater/cmn"
)

// S3Config carries the [storage.s3] section.
type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	PublicURL string
	// Prefix is an optional key prefix inserted between the public URL
	// and the key.
	Prefix string
}

// S3 is the remote storage variant. The session is built once from
// explicit config at construction time, not re-derived per call.
type S3 struct {
	cfg    S3Config
	client *s3.S3
	up     *s3manager.Uploader
}

// NewS3 validates the config and opens an AWS session. Storage init
// failures are fatal at startup only, so the caller treats
// a non-nil error as unrecoverable.
func NewS3(cfg S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, cmn.NewStorageConfigError("storage.s3.init", fmt.Errorf("bucket is required"))
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, cmn.NewStorageConfigError("storage.s3.init", fmt.Errorf("access_key/secret_key are required"))
	}

	awsCfg := &aws.Config{
		Region:      aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, cmn.NewStorageConfigError("storage.s3.init", err)
	}

	return &S3{
		cfg:    cfg,
		client: s3.New(sess),
		up:     s3manager.NewUploader(sess),
	}, nil
}

func (b *S3) Upload(ctx context.Context, localPath, key string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", cmn.NewUploadError(key, err)
	}
	defer f.Close()

	_, err = b.up.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(b.cfg.Bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return "", cmn.NewUploadError(key, err)
	}
	return b.URLFor(key), nil
}

func (b *S3) Delete(ctx context.Context, key string) error {
	_, err := b.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		// DELETE is idempotent: a missing key must not be treated as a
		// failure. The AWS SDK already returns success
		// for a no-such-key delete in practice, but guard explicitly in
		// case a compatible endpoint (e.g. MinIO) does not.
		if isNoSuchKey(err) {
			return nil
		}
		return cmn.NewDeleteError(key, err)
	}
	return nil
}

func (b *S3) URLFor(key string) string {
	base := strings.TrimRight(b.cfg.PublicURL, "/")
	prefix := strings.Trim(b.cfg.Prefix, "/")
	if prefix != "" {
		return base + "/" + prefix + "/" + strings.TrimLeft(key, "/")
	}
	return base + "/" + strings.TrimLeft(key, "/")
}

func (b *S3) IsRemote() bool { return true }

func isNoSuchKey(err error) bool {
	return strings.Contains(err.Error(), "NoSuchKey") || strings.Contains(err.Error(), "NotFound")
}
