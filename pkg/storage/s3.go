package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// maxDeleteBatch is the S3 limit of keys per DeleteObjects call.
const maxDeleteBatch = 1000

// S3Disk stores objects in an S3 compatible bucket
type S3Disk struct {
	client  s3iface.S3API
	bucket  string
	prefix  string
	baseURL string
}

// NewS3Disk creates an S3 disk from the configuration.
func NewS3Disk(cfg DiskConfig) (*S3Disk, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage: s3 disk bucket is required")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsConfig := &aws.Config{
		Region:           aws.String(region),
		S3ForcePathStyle: aws.Bool(cfg.ForcePathStyle),
	}
	if cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
	}
	if cfg.AccessKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 session: %w", err)
	}
	return NewS3DiskWithClient(s3.New(sess), cfg.Bucket, cfg.Prefix, cfg.URL), nil
}

// NewS3DiskWithClient creates an S3 disk around an existing client.
func NewS3DiskWithClient(client s3iface.S3API, bucket, prefix, baseURL string) *S3Disk {
	return &S3Disk{
		client:  client,
		bucket:  bucket,
		prefix:  strings.Trim(prefix, "/"),
		baseURL: baseURL,
	}
}

func (d *S3Disk) objectKey(key string) string {
	if d.prefix == "" {
		return key
	}
	return d.prefix + "/" + key
}

// Put uploads the content as a single object.
func (d *S3Disk) Put(ctx context.Context, dir, name string, r io.Reader) (string, error) {
	key, err := JoinKey(dir, name)
	if err != nil {
		return "", err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read content: %w", err)
	}

	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = d.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(d.bucket),
		Key:         aws.String(d.objectKey(key)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}
	return key, nil
}

// Get downloads the object stored under path.
func (d *S3Disk) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	key, err := CleanKey(path)
	if err != nil {
		return nil, err
	}
	if key == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	out, err := d.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(d.objectKey(key)),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to download object: %w", err)
	}
	return out.Body, nil
}

// Exists issues a HEAD request for the object.
func (d *S3Disk) Exists(ctx context.Context, path string) (bool, error) {
	key, err := CleanKey(path)
	if err != nil {
		return false, err
	}
	if key == "" {
		return false, nil
	}

	_, err = d.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(d.objectKey(key)),
	})
	if err != nil {
		if isS3NotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// DeleteDirectory lists every object under dir and deletes them in batches.
func (d *S3Disk) DeleteDirectory(ctx context.Context, dir string) error {
	prefix, err := DirPrefix(dir)
	if err != nil {
		return err
	}
	if prefix == "" {
		return fmt.Errorf("%w: refusing to delete disk root", ErrInvalidPath)
	}

	var keys []*s3.ObjectIdentifier
	err = d.client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(d.bucket),
		Prefix: aws.String(d.objectKey(prefix)),
	}, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, obj := range page.Contents {
			keys = append(keys, &s3.ObjectIdentifier{Key: obj.Key})
		}
		return true
	})
	if err != nil {
		return fmt.Errorf("failed to list objects: %w", err)
	}

	for start := 0; start < len(keys); start += maxDeleteBatch {
		end := start + maxDeleteBatch
		if end > len(keys) {
			end = len(keys)
		}
		out, err := d.client.DeleteObjectsWithContext(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(d.bucket),
			Delete: &s3.Delete{
				Objects: keys[start:end],
				Quiet:   aws.Bool(true),
			},
		})
		if err != nil {
			return fmt.Errorf("failed to delete objects: %w", err)
		}
		if len(out.Errors) > 0 {
			first := out.Errors[0]
			return fmt.Errorf("failed to delete %d objects, first %s: %s",
				len(out.Errors), aws.StringValue(first.Key), aws.StringValue(first.Message))
		}
	}
	return nil
}

// URL returns the configured public URL, or the object URL built by the SDK.
func (d *S3Disk) URL(ctx context.Context, path string) (string, error) {
	key, err := CleanKey(path)
	if err != nil {
		return "", err
	}
	if d.baseURL != "" {
		return publicURL(d.baseURL, d.objectKey(key))
	}

	req, _ := d.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(d.objectKey(key)),
	})
	if err := req.Build(); err != nil {
		return "", fmt.Errorf("failed to build object url: %w", err)
	}
	return req.HTTPRequest.URL.String(), nil
}

// Ping checks that the bucket is reachable.
func (d *S3Disk) Ping(ctx context.Context) error {
	_, err := d.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(d.bucket),
	})
	return err
}

func isS3NotFound(err error) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return true
		}
	}
	return false
}
