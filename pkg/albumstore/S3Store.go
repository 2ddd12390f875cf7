package albumstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/adampresley/photogallery/pkg/models"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gabriel-vasile/mimetype"
)

/*
albumMarker keeps an otherwise empty album visible, since S3 has no
directories.
*/
const albumMarker = ".album"

const maxDeleteBatch = 1000

/*
S3API is the subset of the S3 client the store needs.
*/
type S3API interface {
	s3.ListObjectsV2APIClient
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

type S3ClientConfig struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

/*
NewS3Client builds a path-style S3 client. An empty Endpoint uses AWS
itself; anything else (localstack, minio) is used as the base endpoint.
*/
func NewS3Client(ctx context.Context, config S3ClientConfig) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(config.Region),
	}

	if config.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(config.AccessKeyID, config.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)

	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if config.Endpoint != "" {
			o.BaseEndpoint = aws.String(config.Endpoint)
		}

		o.UsePathStyle = true
	})

	return client, nil
}

type S3StoreConfig struct {
	Bucket string
	Client S3API
	Prefix string
	Region string
}

type S3Store struct {
	bucket string
	client S3API
	prefix string
	region string
}

func NewS3Store(config S3StoreConfig) *S3Store {
	return &S3Store{
		bucket: config.Bucket,
		client: config.Client,
		prefix: strings.Trim(config.Prefix, "/"),
		region: config.Region,
	}
}

/*
EnsureBucket creates the bucket when it is missing.
*/
func (s *S3Store) EnsureBucket(ctx context.Context) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err == nil {
		return nil
	}

	slog.Info("creating bucket", "bucket", s.bucket)

	input := &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	}

	if s.region != "" && s.region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.region),
		}
	}

	if _, err := s.client.CreateBucket(ctx, input); err != nil {
		return fmt.Errorf("error creating bucket '%s': %w", s.bucket, err)
	}

	return nil
}

func (s *S3Store) ListAlbumDirectories(ctx context.Context) ([]string, error) {
	result := []string{}
	root := s.rootPrefix()

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(root),
		Delimiter: aws.String("/"),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)

		if err != nil {
			return result, fmt.Errorf("error listing albums in bucket '%s': %w", s.bucket, err)
		}

		for _, p := range page.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(p.Prefix), root), "/")

			if name != "" {
				result = append(result, name)
			}
		}
	}

	return result, nil
}

func (s *S3Store) ListFiles(ctx context.Context, album string) ([]string, error) {
	if err := checkSegments(album); err != nil {
		return nil, err
	}

	result := []string{}
	found := false
	prefix := s.albumPrefix(album)

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)

		if err != nil {
			return nil, fmt.Errorf("error listing album '%s': %w", album, err)
		}

		if len(page.Contents) > 0 || len(page.CommonPrefixes) > 0 {
			found = true
		}

		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), prefix)

			if name != "" && name != albumMarker {
				result = append(result, name)
			}
		}
	}

	if !found {
		return nil, fmt.Errorf("album '%s': %w", album, models.ErrNotFound)
	}

	return result, nil
}

func (s *S3Store) AlbumExists(ctx context.Context, album string) (bool, error) {
	if err := checkSegments(album); err != nil {
		return false, err
	}

	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(s.albumPrefix(album)),
		MaxKeys: aws.Int32(1),
	})

	if err != nil {
		return false, fmt.Errorf("error checking album '%s': %w", album, err)
	}

	return len(out.Contents) > 0 || len(out.CommonPrefixes) > 0, nil
}

func (s *S3Store) EnsureAlbum(ctx context.Context, album string) error {
	exists, err := s.AlbumExists(ctx, album)

	if err != nil {
		return err
	}

	if exists {
		return nil
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(album, albumMarker)),
		Body:   bytes.NewReader(nil),
	})

	if err != nil {
		return fmt.Errorf("error creating album '%s': %w", album, err)
	}

	return nil
}

func (s *S3Store) WriteFile(ctx context.Context, album, filename string, content io.Reader) error {
	if err := checkSegments(album, filename); err != nil {
		return err
	}

	if err := s.EnsureAlbum(ctx, album); err != nil {
		return err
	}

	b, err := io.ReadAll(content)

	if err != nil {
		return fmt.Errorf("error reading upload '%s': %w", filename, err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(album, filename)),
		Body:        bytes.NewReader(b),
		ContentType: aws.String(mimetype.Detect(b).String()),
	})

	if err != nil {
		return fmt.Errorf("error writing '%s' to album '%s': %w", filename, album, err)
	}

	return nil
}

func (s *S3Store) RemoveFile(ctx context.Context, album, filename string) error {
	if err := checkSegments(album, filename); err != nil {
		return err
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(album, filename)),
	})

	if err != nil && !isS3NotFound(err) {
		return fmt.Errorf("error removing '%s' from album '%s': %w", filename, album, err)
	}

	return nil
}

func (s *S3Store) RemoveAlbum(ctx context.Context, album string) error {
	if err := checkSegments(album); err != nil {
		return err
	}

	keys, err := s.allKeys(ctx, s.albumPrefix(album))

	if err != nil {
		return fmt.Errorf("error listing album '%s' for removal: %w", album, err)
	}

	if err = s.deleteKeys(ctx, keys); err != nil {
		return fmt.Errorf("error removing album '%s': %w", album, err)
	}

	return nil
}

/*
RenameAlbum copies every object to the new prefix and then deletes the
originals. Unlike the filesystem store this is not atomic.
*/
func (s *S3Store) RenameAlbum(ctx context.Context, oldName, newName string) error {
	var (
		err    error
		exists bool
		keys   []string
	)

	if err = checkSegments(oldName, newName); err != nil {
		return err
	}

	if exists, err = s.AlbumExists(ctx, newName); err != nil {
		return err
	}

	if exists {
		return fmt.Errorf("album '%s': %w", newName, models.ErrAlreadyExists)
	}

	oldPrefix := s.albumPrefix(oldName)
	newPrefix := s.albumPrefix(newName)

	if keys, err = s.allKeys(ctx, oldPrefix); err != nil {
		return fmt.Errorf("error listing album '%s': %w", oldName, err)
	}

	if len(keys) == 0 {
		return fmt.Errorf("album '%s': %w", oldName, models.ErrNotFound)
	}

	for _, key := range keys {
		_, err = s.client.CopyObject(ctx, &s3.CopyObjectInput{
			Bucket:     aws.String(s.bucket),
			CopySource: aws.String(s.bucket + "/" + key),
			Key:        aws.String(newPrefix + strings.TrimPrefix(key, oldPrefix)),
		})

		if err != nil {
			return fmt.Errorf("error copying '%s' while renaming album '%s': %w", key, oldName, err)
		}
	}

	if err = s.deleteKeys(ctx, keys); err != nil {
		return fmt.Errorf("error removing old album '%s' after rename: %w", oldName, err)
	}

	return nil
}

func (s *S3Store) FileExists(ctx context.Context, album, filename string) (bool, error) {
	if err := checkSegments(album, filename); err != nil {
		return false, err
	}

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(album, filename)),
	})

	if err != nil {
		if isS3NotFound(err) {
			return false, nil
		}

		return false, fmt.Errorf("error checking '%s' in album '%s': %w", filename, album, err)
	}

	return true, nil
}

func (s *S3Store) OpenFile(ctx context.Context, album, filename string) (models.PhotoFile, error) {
	result := models.PhotoFile{}

	if err := checkSegments(album, filename); err != nil {
		return result, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(album, filename)),
	})

	if err != nil {
		if isS3NotFound(err) {
			return result, fmt.Errorf("'%s' in album '%s': %w", filename, album, models.ErrNotFound)
		}

		return result, fmt.Errorf("error getting '%s' in album '%s': %w", filename, album, err)
	}

	result.Body = out.Body
	result.Size = aws.ToInt64(out.ContentLength)
	result.ContentType = aws.ToString(out.ContentType)
	result.ModTime = aws.ToTime(out.LastModified)

	return result, nil
}

func (s *S3Store) allKeys(ctx context.Context, prefix string) ([]string, error) {
	result := []string{}

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)

		if err != nil {
			return result, err
		}

		for _, obj := range page.Contents {
			result = append(result, aws.ToString(obj.Key))
		}
	}

	return result, nil
}

func (s *S3Store) deleteKeys(ctx context.Context, keys []string) error {
	for start := 0; start < len(keys); start += maxDeleteBatch {
		end := min(start+maxDeleteBatch, len(keys))
		objects := make([]types.ObjectIdentifier, 0, end-start)

		for _, key := range keys[start:end] {
			objects = append(objects, types.ObjectIdentifier{Key: aws.String(key)})
		}

		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{
				Objects: objects,
				Quiet:   aws.Bool(true),
			},
		})

		if err != nil {
			return err
		}

		if len(out.Errors) > 0 {
			return fmt.Errorf("%d objects could not be deleted, first '%s': %s",
				len(out.Errors), aws.ToString(out.Errors[0].Key), aws.ToString(out.Errors[0].Message))
		}
	}

	return nil
}

func (s *S3Store) rootPrefix() string {
	if s.prefix == "" {
		return ""
	}

	return s.prefix + "/"
}

func (s *S3Store) albumPrefix(album string) string {
	return s.rootPrefix() + album + "/"
}

func (s *S3Store) key(album, filename string) string {
	return path.Join(s.prefix, album, filename)
}

func isS3NotFound(err error) bool {
	var (
		noSuchKey *types.NoSuchKey
		notFound  *types.NotFound
	)

	return errors.As(err, &noSuchKey) || errors.As(err, &notFound)
}
