package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
)

const (
	// previewByteLimit caps how much of an object is read for a text preview
	previewByteLimit = 1 << 20
	// imageByteLimit caps the size of an image inlined as a data URI
	imageByteLimit = 8 << 20
)

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true,
}

// S3Service serves the file service contract straight from an S3 bucket.
// Directories are key prefixes delimited by "/".
type S3Service struct {
	client *s3.Client
	bucket string
	roots  []string
	log    zerolog.Logger

	previewLimit int64
	imageLimit   int64
}

// NewS3Service creates an S3 backed file service from configuration
func NewS3Service(cfg *S3Config, log zerolog.Logger) (*S3Service, error) {
	awsConfig, err := config.LoadDefaultConfig(context.TODO(),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
		config.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if cfg.SignatureV2 {
		log.Warn().Msg("signature_v2 is set but requests are always signed with SigV4")
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.GetEndpointURL())
		o.UsePathStyle = true // Required for MinIO and some S3-compatible services
	})

	roots := make([]string, 0, len(cfg.Roots))
	for _, r := range cfg.Roots {
		if r = strings.Trim(r, "/"); r != "" {
			roots = append(roots, r)
		}
	}

	return &S3Service{
		client:       client,
		bucket:       cfg.Bucket,
		roots:        roots,
		log:          log.With().Str("component", "s3-service").Str("bucket", cfg.Bucket).Logger(),
		previewLimit: previewByteLimit,
		imageLimit:   imageByteLimit,
	}, nil
}

// HeadBucket checks if the bucket exists and is accessible
func (c *S3Service) HeadBucket(ctx context.Context) error {
	_, err := c.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(c.bucket),
	})
	if err != nil {
		err = c.wrap("head bucket", "", err)
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("bucket '%s' does not exist: %w", c.bucket, err)
		}
		return fmt.Errorf("failed to access bucket '%s': %w", c.bucket, err)
	}
	return nil
}

// ListRoots returns the configured root prefixes, or the bucket's
// top-level prefixes when none are configured
func (c *S3Service) ListRoots(ctx context.Context) ([]string, error) {
	if len(c.roots) > 0 {
		return c.roots, nil
	}

	entries, _, err := c.listAll(ctx, "")
	if err != nil {
		return nil, c.wrap("list roots", "", err)
	}
	var roots []string
	for _, e := range entries {
		if e.IsDir() {
			roots = append(roots, e.Name)
		}
	}
	return roots, nil
}

// List returns one page of the directory at p. The whole prefix is walked
// so the filter applies before pagination, as the HTTP service does.
func (c *S3Service) List(ctx context.Context, req ListRequest) (*Listing, error) {
	prefix := keyPrefix(req.Path)
	entries, exists, err := c.listAll(ctx, prefix)
	if err != nil {
		return nil, c.wrap("list", req.Path, err)
	}
	if !exists {
		return nil, &ServiceError{Op: "list", Path: req.Path, Kind: ErrNotFound}
	}

	if req.Filter != "" {
		needle := strings.ToLower(req.Filter)
		filtered := entries[:0]
		for _, e := range entries {
			if strings.Contains(strings.ToLower(e.Name), needle) {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	items, hasMore := paginate(entries, req.Page, req.Limit)
	return &Listing{Items: items, HasMore: hasMore}, nil
}

// Preview returns text content, or a data URI for images
func (c *S3Service) Preview(ctx context.Context, p string) (string, error) {
	key := strings.Trim(p, "/")
	result, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", c.wrap("preview", p, err)
	}
	defer result.Body.Close()

	ext := strings.ToLower(path.Ext(key))
	if imageExtensions[ext] {
		// one byte past the limit tells a full image from a truncated one
		data, err := io.ReadAll(io.LimitReader(result.Body, c.imageLimit+1))
		if err != nil {
			return "", c.wrap("preview", p, fmt.Errorf("failed to read object data: %w", err))
		}
		if int64(len(data)) > c.imageLimit {
			return fmt.Sprintf("[Image too large to preview, over %s]", humanize.Bytes(uint64(c.imageLimit))), nil
		}
		return fmt.Sprintf("data:image/%s;base64,%s", strings.TrimPrefix(ext, "."), base64.StdEncoding.EncodeToString(data)), nil
	}

	data, err := io.ReadAll(io.LimitReader(result.Body, c.previewLimit))
	if err != nil {
		return "", c.wrap("preview", p, fmt.Errorf("failed to read object data: %w", err))
	}
	return string(data), nil
}

// Download opens the object body. The caller closes it.
func (c *S3Service) Download(ctx context.Context, p string) (*Download, error) {
	key := strings.Trim(p, "/")
	result, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, c.wrap("download", p, err)
	}

	size := int64(-1)
	if result.ContentLength != nil {
		size = *result.ContentLength
	}
	return &Download{Body: result.Body, Filename: path.Base(key), Size: size}, nil
}

// listAll walks every page under prefix. exists is false when nothing at
// all lives under the prefix, not even a directory marker.
func (c *S3Service) listAll(ctx context.Context, prefix string) ([]Entry, bool, error) {
	paginator := s3.NewListObjectsV2Paginator(c.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(c.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	var entries []Entry
	exists := prefix == ""
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, false, err
		}

		for _, cp := range page.CommonPrefixes {
			exists = true
			name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), prefix), "/")
			if name != "" {
				entries = append(entries, Entry{Name: name, Type: EntryDirectory})
			}
		}

		for _, obj := range page.Contents {
			exists = true
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(key, "/") { // Skip directory markers
				continue
			}
			e := Entry{Name: strings.TrimPrefix(key, prefix), Type: EntryFile}
			if obj.Size != nil {
				e.Size = *obj.Size
				e.HasSize = true
			}
			if obj.LastModified != nil {
				e.LastModified = *obj.LastModified
			}
			entries = append(entries, e)
		}
	}

	// directories first, then files, both by key
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return entries[i].Name < entries[j].Name
	})

	c.log.Debug().Str("prefix", prefix).Int("entries", len(entries)).Msg("listed prefix")
	return entries, exists, nil
}

// wrap maps SDK errors onto the service error kinds
func (c *S3Service) wrap(op, p string, err error) error {
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	var nsb *types.NoSuchBucket
	if errors.As(err, &nsk) || errors.As(err, &nf) || errors.As(err, &nsb) {
		return &ServiceError{Op: op, Path: p, Status: 404, Kind: ErrNotFound, Err: err}
	}

	var re *awshttp.ResponseError
	if errors.As(err, &re) {
		status := re.HTTPStatusCode()
		if status == 404 {
			return &ServiceError{Op: op, Path: p, Status: status, Kind: ErrNotFound, Err: err}
		}
		return &ServiceError{Op: op, Path: p, Status: status, Kind: ErrServiceUnavailable, Err: err}
	}
	return &ServiceError{Op: op, Path: p, Kind: ErrServiceUnavailable, Err: err}
}

// keyPrefix turns a browser path into the S3 prefix of its children
func keyPrefix(p string) string {
	p = strings.Trim(p, "/")
	if p == "" {
		return ""
	}
	return p + "/"
}

// paginate slices one 1-based page out of entries
func paginate(entries []Entry, page, limit int) ([]Entry, bool) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	start := (page - 1) * limit
	if start >= len(entries) {
		return []Entry{}, false
	}
	end := start + limit
	if end > len(entries) {
		end = len(entries)
	}
	return entries[start:end], len(entries) > end
}
