package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/plantvision/leafscan/internal/imaging"
)

// MinioStore archives leaf images as JPEG objects in a MinIO bucket.
type MinioStore struct {
	client     *minio.Client
	bucketName string
	region     string
	prefix     string
}

// NewMinio connects and makes sure the bucket exists. Bucket creation
// is idempotent so concurrent startups are safe.
func NewMinio(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*MinioStore, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, err
		}
	}

	return &MinioStore{client: cli, bucketName: bucket, region: region, prefix: "images"}, nil
}

// SaveImage implements predictions.ArchiveStore. The returned value is
// the object URL recorded on the PredictionRecord.
func (s *MinioStore) SaveImage(ctx context.Context, name string, img image.Image) (string, error) {
	data, err := imaging.EncodeJPEG(img)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s/%s", s.prefix, name)
	_, err = s.client.PutObject(ctx, s.bucketName, key,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "image/jpeg"},
	)
	if err != nil {
		return "", err
	}

	// Public bucket URL; private buckets need a presigned URL instead.
	url := fmt.Sprintf("http://%s/%s/%s", s.client.EndpointURL().Host, s.bucketName, key)
	return url, nil
}
