// Package s3mirror implements store.Mirror on top of Amazon S3, archiving
// finished task payloads under a key built from module/bucket/id.
//
// It is a generalization of the teacher repository's own S3-backed
// key/value store (internal/storage/s3.go): the same session, credentials,
// and retry configuration, retargeted from block storage to archival of
// terminal NLPipe payloads.
package s3mirror

import (
	"bytes"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"

	"github.com/nlpipe/nlpipe/store"
)

// Config holds the settings needed to reach the archival bucket.
type Config struct {
	Region     string
	Bucket     string
	AccessKey  string
	SecretKey  string
	MaxRetries int
}

// Mirror archives terminal task payloads to S3. It implements store.Mirror.
type Mirror struct {
	client *s3.S3
	bucket string
}

var _ store.Mirror = (*Mirror)(nil)

// New builds a Mirror from cfg. MaxRetries defaults to 16, matching the
// teacher's own tolerance for flaky connectivity.
func New(cfg Config) (*Mirror, error) {
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 16
	}
	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
		MaxRetries:  aws.Int(maxRetries),
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &Mirror{
		client: s3.New(sess),
		bucket: cfg.Bucket,
	}, nil
}

// Put uploads data under a key derived from module, bucket, and id.
func (m *Mirror) Put(bucket store.Bucket, module, id string, data []byte) error {
	key := fmt.Sprintf("%s/%s/%s", module, bucket, id)
	_, err := m.client.PutObject(&s3.PutObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return errors.WithStack(err)
	}
	return nil
}
