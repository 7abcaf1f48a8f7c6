// Copyright (c) 2020-present Mattermost, Inc. All Rights Reserved.
// See License for license information.

package store

import (
	"bytes"
	"context"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pkg/errors"

	"github.com/mattermost/mattermost-interactions/utils"
	"github.com/mattermost/mattermost-interactions/utils/httputils"
)

// DefaultS3Region is used when no region is configured.
const DefaultS3Region = "us-east-2"

// S3Store keeps each record as a JSON object named <prefix><key>.json.
// Writes are serialized within the process only.
type S3Store struct {
	s3     s3iface.S3API
	bucket string
	prefix string
	mu     sync.Mutex
}

var _ Store = (*S3Store)(nil)

func NewS3Store(region, accessKeyID, secretAccessKey, bucket, prefix string) (*S3Store, error) {
	if bucket == "" {
		return nil, utils.NewInvalidError("S3 store requires a bucket")
	}
	if region == "" {
		region = DefaultS3Region
	}
	config := &aws.Config{
		Region: aws.String(region),
	}
	if accessKeyID != "" {
		config.Credentials = credentials.NewStaticCredentials(accessKeyID, secretAccessKey, "")
	}
	sess, err := session.NewSession(config)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create AWS session")
	}
	return NewS3StoreWithAPI(s3.New(sess), bucket, prefix), nil
}

func NewS3StoreWithAPI(api s3iface.S3API, bucket, prefix string) *S3Store {
	return &S3Store{
		s3:     api,
		bucket: bucket,
		prefix: prefix,
	}
}

func (s *S3Store) objectKey(key string) *string {
	return aws.String(s.prefix + key + ".json")
}

func (s *S3Store) Get(ctx context.Context, key string) (Record, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	return s.get(ctx, key)
}

func (s *S3Store) get(ctx context.Context, key string) (Record, error) {
	out, err := s.s3.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    s.objectKey(key),
	})
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get %s from S3", key)
	}
	data, err := httputils.ReadAndClose(out.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s from S3", key)
	}
	return decodeRecord(data)
}

func (s *S3Store) Set(ctx context.Context, key string, r Record) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(ctx, key, r)
}

func (s *S3Store) put(ctx context.Context, key string, r Record) (bool, error) {
	data, err := encodeRecord(r)
	if err != nil {
		return false, err
	}
	_, err = s.s3.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         s.objectKey(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return false, errors.Wrapf(err, "failed to put %s to S3", key)
	}
	return true, nil
}

func (s *S3Store) Update(ctx context.Context, key string, partial Record) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.get(ctx, key)
	if err != nil || current == nil {
		return false, err
	}
	return s.put(ctx, key, merge(current, partial))
}

func (s *S3Store) Delete(ctx context.Context, key string) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.s3.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    s.objectKey(key),
	})
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "failed to check %s in S3", key)
	}

	_, err = s.s3.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    s.objectKey(key),
	})
	if err != nil {
		return false, errors.Wrapf(err, "failed to delete %s from S3", key)
	}
	return true, nil
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	aerr, ok := err.(awserr.Error)
	if !ok {
		return false
	}
	switch aerr.Code() {
	case s3.ErrCodeNoSuchKey, "NotFound":
		return true
	}
	return false
}
