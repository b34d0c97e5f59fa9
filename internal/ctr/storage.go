package ctr

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/schollz/progressbar/v3"
)

// StorageClient wraps the S3 client for any S3-compatible release bucket
// (R2, MinIO, plain S3).
type StorageClient struct {
	Client     *s3.Client
	BucketName string
}

// newStorageClient initializes a client from the PUBLISH_* config keys.
func newStorageClient(cfg *Config) (*StorageClient, error) {
	endpoint := cfg.Values["PUBLISH_ENDPOINT"]
	accessKey := cfg.Values["PUBLISH_ACCESS_KEY_ID"]
	secretKey := cfg.Values["PUBLISH_SECRET_ACCESS_KEY"]
	bucketName := cfg.Values["PUBLISH_BUCKET"]

	var missing []string
	for key, val := range map[string]string{
		"PUBLISH_ENDPOINT":          endpoint,
		"PUBLISH_ACCESS_KEY_ID":     accessKey,
		"PUBLISH_SECRET_ACCESS_KEY": secretKey,
		"PUBLISH_BUCKET":            bucketName,
	} {
		if val == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("publish credentials missing in configuration (%s)", strings.Join(missing, ", "))
	}

	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{URL: endpoint}, nil
	})

	options := []func(*config.LoadOptions) error{
		config.WithEndpointResolverWithOptions(resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
		config.WithRegion("auto"),
	}

	if Debug {
		options = append(options, config.WithClientLogMode(aws.LogSigning|aws.LogRetries|aws.LogRequest|aws.LogResponse))
	}

	awsCfg, err := config.LoadDefaultConfig(context.TODO(), options...)
	if err != nil {
		return nil, fmt.Errorf("failed to load publish config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	return &StorageClient{
		Client:     client,
		BucketName: bucketName,
	}, nil
}

// contentTypeFor maps a release file to its MIME type.
func contentTypeFor(key string) string {
	switch {
	case strings.HasSuffix(key, ".gz"):
		return "application/gzip"
	case strings.HasSuffix(key, ".zst"):
		return "application/zstd"
	case strings.HasSuffix(key, ".b3"):
		return "text/plain"
	}
	return "application/octet-stream"
}

// UploadLocalFile uploads a file from disk, showing byte progress on a
// terminal (the bar library degrades to nothing when piped).
func (c *StorageClient) UploadLocalFile(ctx context.Context, key, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return err
	}

	bar := progressbar.NewOptions64(stat.Size(),
		progressbar.OptionSetDescription(key),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowBytes(true),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)

	_, err = c.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.BucketName),
		Key:           aws.String(key),
		Body:          io.TeeReader(file, bar),
		ContentLength: aws.Int64(stat.Size()),
		ContentType:   aws.String(contentTypeFor(key)),
	})
	return err
}
