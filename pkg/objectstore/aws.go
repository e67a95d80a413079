package objectstore

import (
	"bytes"
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3api "github.com/aws/aws-sdk-go-v2/service/s3"
)

// awsS3Client adapts aws-sdk-go-v2/service/s3.Client to Client.
type awsS3Client struct {
	client *s3api.Client
}

// NewAWSClient wraps a configured s3.Client.
func NewAWSClient(client *s3api.Client) Client {
	return &awsS3Client{client: client}
}

func (a *awsS3Client) PutObject(ctx context.Context, bucket, key, contentType string, body []byte) error {
	_, err := a.client.PutObject(ctx, &s3api.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
		Body:        bytes.NewReader(body),
	})
	return err
}

func (a *awsS3Client) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	out, err := a.client.GetObject(ctx, &s3api.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	return out.Body, nil
}
