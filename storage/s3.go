package storage

import (
	"bytes"
	"context"
	"fmt"

	"vox-backend/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// NewS3Client erstellt den S3-Client für den Media-Bucket.
func NewS3Client(cfg *config.Config) (*s3.Client, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:               cfg.MediaS3URL,
				SigningRegion:     cfg.MediaS3Region,
				HostnameImmutable: true,
			}, nil
		},
	)
	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.MediaS3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.MediaS3Key, cfg.MediaS3Secret, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(awsCfg), nil
}

// UploadFile lädt eine Datei in den Media-Bucket hoch und gibt den
// öffentlichen Link zurück.
func UploadFile(ctx context.Context, client *s3.Client, bucket, key, contentType string, data []byte, cfg *config.Config) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = &contentType
	}
	if _, err := client.PutObject(ctx, input); err != nil {
		return "", err
	}
	link := fmt.Sprintf("%s/%s/%s", cfg.MediaS3URL, bucket, key)
	return link, nil
}
