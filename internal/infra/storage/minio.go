package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Options for the MinIO report archive.
type Options struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	// PresignTTL > 0 returns presigned GET links instead of plain object URLs
	PresignTTL time.Duration
}

// Store keeps analysis reports as JSON objects.
type Store struct {
	client     *minio.Client
	bucketName string
	region     string
	presignTTL time.Duration
}

// New buat koneksi MinIO
func New(ctx context.Context, opts Options) (*Store, error) {
	cli, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, err
	}

	// pastikan bucket ada
	exists, err := cli.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{Region: opts.Region}); err != nil {
			return nil, err
		}
	}

	return newStore(cli, opts), nil
}

func newStore(cli *minio.Client, opts Options) *Store {
	return &Store{client: cli, bucketName: opts.Bucket, region: opts.Region, presignTTL: opts.PresignTTL}
}

// ReportKey is <user>/<analysis-id>.json
func ReportKey(userID, analysisID string) string {
	return fmt.Sprintf("%s/%s.json", url.PathEscape(userID), url.PathEscape(analysisID))
}

// PutReport upload JSON report dan return URL-nya
func (s *Store) PutReport(ctx context.Context, key string, body []byte) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucketName, key, bytes.NewReader(body), int64(len(body)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return "", fmt.Errorf("put report %s: %w", key, err)
	}

	// bucket private: pakai presigned URL
	if s.presignTTL > 0 {
		u, err := s.client.PresignedGetObject(ctx, s.bucketName, key, s.presignTTL, nil)
		if err != nil {
			return "", fmt.Errorf("presign report %s: %w", key, err)
		}
		return u.String(), nil
	}
	return s.objectURL(key), nil
}

// URL publik (jika bucket public)
func (s *Store) objectURL(key string) string {
	u := s.client.EndpointURL()
	return fmt.Sprintf("%s://%s/%s/%s", u.Scheme, u.Host, s.bucketName, key)
}

// Check dipakai health endpoint
func (s *Store) Check(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bucket %s not found", s.bucketName)
	}
	return nil
}
