// Package s3 stores binaries directly in an S3-compatible bucket. It is
// an alternative to the ControlFile backend for deployments that own
// their object storage (MinIO, AWS). Folders are logical key prefixes,
// so EnsureFolder never talks to the bucket.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/controlsuite/auditfiles/internal/storage"
)

const shareExpiry = 15 * time.Minute

// Config holds the connection settings for the bucket.
type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

// Store implements the folder and binary collaborator interfaces on top
// of a single bucket.
type Store struct {
	client  *awss3.Client
	presign *awss3.PresignClient
	bucket  string
}

func New(ctx context.Context, cfg Config) (*Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
	})

	return &Store{
		client:  client,
		presign: awss3.NewPresignClient(client),
		bucket:  cfg.Bucket,
	}, nil
}

// EnsureFolder maps a folder level to a key prefix. S3 has no real
// directories, so the id is just the joined path.
func (s *Store) EnsureFolder(ctx context.Context, name, parentID string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("folder name is empty")
	}
	return path.Join(parentID, name), nil
}

// UploadBinary puts the object under the folder prefix with a unique key
// and returns a presigned GET URL as the share token.
func (s *Store) UploadBinary(ctx context.Context, file storage.FileInput, folderID string, metadata map[string]string) (*storage.UploadedFile, error) {
	key := path.Join(folderID, uuid.NewString()+"-"+file.Name)

	_, err := s.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(file.Data),
		ContentType: aws.String(file.MIME),
		Metadata:    metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("put object %q: %w", key, err)
	}

	req, err := s.presign.PresignGetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, awss3.WithPresignExpires(shareExpiry))
	if err != nil {
		return nil, fmt.Errorf("presign get %q: %w", key, err)
	}

	return &storage.UploadedFile{FileID: key, ShareToken: req.URL}, nil
}
