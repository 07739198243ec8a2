// Package storage keeps uploaded recipe images in S3.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// MaxImageSize is the largest accepted upload, in bytes
const MaxImageSize = 5 << 20

var (
	ErrEmptyImage       = errors.New("image is empty")
	ErrImageTooLarge    = errors.New("image is too large")
	ErrUnsupportedImage = errors.New("unsupported image type")
)

var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// putObjectAPI is the part of the S3 client the store needs
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ImageStore uploads recipe images to a bucket and returns their public URL
type ImageStore struct {
	client putObjectAPI
	bucket string
	prefix string
}

// NewS3ImageStore builds a store from the default AWS credential chain.
// It returns nil without error when no bucket is configured.
func NewS3ImageStore(ctx context.Context, bucket, region string) (*ImageStore, error) {
	if bucket == "" {
		log.Info("S3_BUCKET_NAME not set, image uploads disabled")
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return newImageStore(s3.NewFromConfig(awsCfg), bucket), nil
}

func newImageStore(client putObjectAPI, bucket string) *ImageStore {
	return &ImageStore{client: client, bucket: bucket, prefix: "recipe-images/"}
}

// Upload checks that data is a supported image and stores it under a fresh key
func (s *ImageStore) Upload(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyImage
	}
	if len(data) > MaxImageSize {
		return "", ErrImageTooLarge
	}

	contentType := mimetype.Detect(data).String()
	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedImage, contentType)
	}

	key := s.prefix + uuid.NewString() + ext
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	url := fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key)
	log.WithFields(log.Fields{"bucket": s.bucket, "key": key}).Debug("Uploaded recipe image")
	return url, nil
}
