package services

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// MediaService hands out presigned URLs for profile photos. Photo storage is
// an external collaborator; this is only its interface boundary.
type MediaService struct {
	Presigner *s3.PresignClient
	Bucket    string
}

// NewMediaService builds the presigner from the ambient AWS config.
func NewMediaService() (*MediaService, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(), awsconfig.WithRegion(os.Getenv("AWS_REGION")))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &MediaService{
		Presigner: s3.NewPresignClient(s3.NewFromConfig(cfg)),
		Bucket:    os.Getenv("S3_BUCKET_NAME"),
	}, nil
}

// GenerateUploadURL returns a presigned PUT URL and the object key.
func (ms *MediaService) GenerateUploadURL(ctx context.Context, fileName, fileType string) (string, string, error) {
	key := "profile-pics/" + time.Now().Format("20060102150405") + "-" + fileName
	req, err := ms.Presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(ms.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(fileType),
	}, s3.WithPresignExpires(5*time.Minute))
	if err != nil {
		return "", "", err
	}
	return req.URL, key, nil
}

// GenerateReadURL returns a presigned GET URL for an object key.
func (ms *MediaService) GenerateReadURL(ctx context.Context, key string) (string, error) {
	req, err := ms.Presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(ms.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(5*time.Minute))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}
