// SPDX-FileCopyrightText: © 2026 Agriscope Robotics
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// multipartThreshold switches uploads to the multipart manager.
const multipartThreshold = 100 * 1024 * 1024

type S3Client struct {
	s3 *s3.Client
}

func NewS3Client(ctx context.Context, cfgCreds S3Config) (*S3Client, error) {
	creds := aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(
		cfgCreds.AccessKey,
		cfgCreds.SecretKey,
		cfgCreds.SessionToken,
	))

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(creds),
		awsconfig.WithRegion(cfgCreds.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Options := func(o *s3.Options) {
		if cfgCreds.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfgCreds.EndpointURL)
			o.UsePathStyle = true // required by most S3-compatible stores
		}
	}

	return &S3Client{
		s3: s3.NewFromConfig(cfg, s3Options),
	}, nil
}

/* -------------------- WALK (paginated + callback) -------------------- */

// WalkPrefix streams every object under a prefix through fn, page by page,
// so callers never hold a full bucket listing in memory. Folder
// placeholders are skipped.
func (c *S3Client) WalkPrefix(
	ctx context.Context,
	bucket string,
	prefix string,
	pageSize int32,
	fn func(key string, size int64) error,
) error {
	var token *string

	for {
		input := &s3.ListObjectsV2Input{
			Bucket:            aws.String(bucket),
			Prefix:            aws.String(prefix),
			MaxKeys:           aws.Int32(pageSize),
			ContinuationToken: token,
		}

		resp, err := c.s3.ListObjectsV2(ctx, input)
		if err != nil {
			return fmt.Errorf("list error: %w", err)
		}

		for _, obj := range resp.Contents {
			key := aws.ToString(obj.Key)
			size := aws.ToInt64(obj.Size)
			if strings.HasSuffix(key, "/") && size == 0 {
				continue
			}
			if err := fn(key, size); err != nil {
				return err
			}
		}

		if resp.NextContinuationToken == nil || *resp.NextContinuationToken == "" {
			break
		}
		token = resp.NextContinuationToken
	}
	return nil
}

/* -------------------- HEAD -------------------- */

// HeadSize returns the stored size of a single object.
func (c *S3Client) HeadSize(ctx context.Context, bucket, key string) (int64, error) {
	out, err := c.s3.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to head object: %w", err)
	}
	return aws.ToInt64(out.ContentLength), nil
}

/* -------------------- PROGRESS HOOK -------------------- */

type ProgressHook struct {
	OnStart    func(key string, totalBytes int64)
	OnProgress func(key string, written, totalBytes int64)
	OnDone     func(key string, totalBytes int64, took time.Duration)
}

type progressWriter struct {
	key        string
	total      int64
	written    int64
	lastEmit   time.Time
	interval   time.Duration
	onProgress func(key string, written, total int64)
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n := len(p)
	pw.written += int64(n)
	now := time.Now()
	if pw.onProgress != nil && (pw.written == pw.total || now.Sub(pw.lastEmit) >= pw.interval) {
		pw.onProgress(pw.key, pw.written, pw.total)
		pw.lastEmit = now
	}
	return n, nil
}

/* -------------------- DOWNLOAD -------------------- */

// DownloadFile streams an object to localPath. The hook is optional.
func (c *S3Client) DownloadFile(ctx context.Context, bucket, key, localPath string, hook *ProgressHook) error {
	out, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return fmt.Errorf("failed to get object from S3: %w", err)
	}
	defer out.Body.Close()

	total := aws.ToInt64(out.ContentLength)

	if hook != nil && hook.OnStart != nil {
		hook.OnStart(key, total)
	}

	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create local file: %w", err)
	}
	defer f.Close()

	pw := &progressWriter{
		key:      key,
		total:    total,
		interval: 250 * time.Millisecond,
	}
	if hook != nil {
		pw.onProgress = hook.OnProgress
	}

	start := time.Now()
	tee := io.TeeReader(out.Body, pw)

	if _, err := io.Copy(f, tee); err != nil {
		return fmt.Errorf("failed to write to local file: %w", err)
	}

	if hook != nil && hook.OnDone != nil {
		hook.OnDone(key, total, time.Since(start))
	}
	return nil
}

/* -------------------- UPLOAD -------------------- */

// UploadPath uploads a local file as one object, multipart above the
// threshold. The hook is optional.
func (c *S3Client) UploadPath(ctx context.Context, bucket, key, localPath string, hook *ProgressHook) error {
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open local file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat error: %w", err)
	}
	size := info.Size()

	// Detect MIME type
	header := make([]byte, 512)
	n, _ := file.Read(header)
	mime := http.DetectContentType(header[:n])
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind error: %w", err)
	}

	if hook != nil && hook.OnStart != nil {
		hook.OnStart(key, size)
	}

	pw := &progressWriter{
		key:      key,
		total:    size,
		interval: 250 * time.Millisecond,
	}
	if hook != nil {
		pw.onProgress = hook.OnProgress
	}

	start := time.Now()
	reader := io.TeeReader(file, pw)

	if size > multipartThreshold {
		_, err = manager.NewUploader(c.s3).Upload(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(bucket),
			Key:         aws.String(key),
			Body:        reader,
			ContentType: aws.String(mime),
		})
	} else {
		_, err = c.s3.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(bucket),
			Key:           aws.String(key),
			Body:          reader,
			ContentLength: aws.Int64(size),
			ContentType:   aws.String(mime),
		})
	}
	if err != nil {
		return fmt.Errorf("upload error: %w", err)
	}

	if hook != nil && hook.OnDone != nil {
		hook.OnDone(key, size, time.Since(start))
	}
	return nil
}
