package s3aws

import (
	"bytes"
	"context"
	"fmt"
	"go-checkout/internal/pkg/redis"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

type S3Config struct {
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
}

// S3Client archives checkout receipts. Uploads are best effort: a failed upload
// never fails the checkout that produced it.
type S3Client struct {
	Client     *s3.S3
	BucketName string
	ctx        context.Context
	redis      redis.IRedis
}

type Is3 interface {
	GetBucketName() string
	UploadReceipt(key string, receiptJSON []byte) error
	GetPresignedURL(key string) (string, error)
}

func newSession(cfg S3Config) (*session.Session, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.AWSRegion),
		Credentials: credentials.NewStaticCredentials(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		),
	})

	if err != nil {
		return nil, err
	}

	return sess, nil
}

func NewS3Client(ctx context.Context, cfg S3Config, bucketName string, redis redis.IRedis) (*S3Client, error) {
	sess, err := newSession(cfg)
	if err != nil {
		return nil, err
	}

	client := s3.New(sess)

	s3Client := &S3Client{
		Client:     client,
		BucketName: bucketName,
		ctx:        ctx,
		redis:      redis,
	}

	isBucketExists, err := checkBucketExists(s3Client)
	if err != nil {
		return nil, err
	}

	if !isBucketExists {
		if err = createBucket(s3Client); err != nil {
			return nil, err
		}
	}

	return s3Client, nil
}

func checkBucketExists(client *S3Client) (bool, error) {
	_, err := client.Client.HeadBucket(&s3.HeadBucketInput{
		Bucket: aws.String(client.BucketName),
	})

	if err != nil {
		if aerr, ok := err.(awserr.Error); ok {
			switch aerr.Code() {
			case s3.ErrCodeNoSuchBucket, "NotFound":
				return false, nil
			default:
				return false, err
			}
		}
		return false, err
	}

	return true, nil
}

func createBucket(client *S3Client) error {
	_, err := client.Client.CreateBucket(&s3.CreateBucketInput{
		Bucket: aws.String(client.BucketName),
	})
	return err
}

func (s *S3Client) GetBucketName() string {
	return s.BucketName
}

// UploadReceipt stores a receipt document under receipts/<key>.json.
func (s *S3Client) UploadReceipt(key string, receiptJSON []byte) error {
	objectKey := fmt.Sprintf("receipts/%s.json", key)
	_, err := s.Client.PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(s.BucketName),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(receiptJSON),
		ContentType: aws.String("application/json"),
	})

	if err != nil {
		return fmt.Errorf("failed to upload receipt to S3: %w", err)
	}

	return nil
}

func (s *S3Client) GetPresignedURL(key string) (string, error) {
	cacheKey := fmt.Sprintf("s3:%s:%s", s.BucketName, key)
	cache, err := s.redis.Get(cacheKey)
	if err == nil && cache != "" && strings.HasPrefix(cache, "http") {
		return cache, nil
	}

	expired := 3 * 24 * time.Hour

	req, _ := s.Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket:                     aws.String(s.BucketName),
		Key:                        aws.String(key),
		ResponseContentType:        aws.String("application/json"),
		ResponseContentDisposition: aws.String("inline"),
	})

	urlStr, err := req.Presign(expired)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	if err = s.redis.Set(cacheKey, urlStr, expired); err != nil {
		return "", fmt.Errorf("failed to cache presigned URL: %w", err)
	}

	return urlStr, nil
}
