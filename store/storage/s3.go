package storage

import (
	"bytes"
	"io"

	"github.com/Sage-Bionetworks/RNCryptor/util"
	"github.com/mitchellh/goamz/aws"
	"github.com/mitchellh/goamz/s3"
)

// Bucket keeps envelopes in a private S3 bucket.
type Bucket struct {
	bucket *s3.Bucket
}

// NewBucket connects to S3 in the given region with the AWS credentials
// provided. Blank credentials fall back to goamz's lookup chain:
// ENV[AWS_CREDENTIAL_FILE] ($HOME/.aws/credentials by default), then
// ENV[AWS_ACCESS_KEY] / ENV[AWS_SECRET_KEY].
func NewBucket(region, name, accessKey, secretKey string) (*Bucket, error) {
	auth, err := aws.GetAuth(accessKey, secretKey)
	if err != nil {
		return nil, err
	}
	client := s3.New(auth, aws.Regions[region])
	return &Bucket{bucket: client.Bucket(name)}, nil
}

func (b *Bucket) Exists() (bool, error) {
	// Listing a single key is the cheapest way to see whether the bucket
	// answers for us.
	_, err := b.bucket.List("", "", "", 1)
	if err == nil {
		return true, nil
	}
	if s3err, ok := err.(*s3.Error); ok && s3err.Code == "NoSuchBucket" {
		return false, nil
	}
	return false, err
}

func (b *Bucket) Create() error {
	err := b.bucket.PutBucket(s3.Private)
	if s3err, ok := err.(*s3.Error); ok && s3err.Code == "BucketAlreadyOwnedByYou" {
		return nil
	}
	return err
}

func (b *Bucket) GetReader(key string) (io.Reader, error) {
	rc, err := b.bucket.GetReader(key)
	if err != nil {
		return nil, err
	}
	return util.CloseAfter(rc), nil
}

// PutReader uploads an envelope. goamz wants the content length up front, so
// the stream is staged in memory first.
func (b *Bucket) PutReader(key string, r io.Reader) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	err = b.bucket.PutReader(key, bytes.NewReader(data), int64(len(data)),
		"application/octet-stream", s3.Private)
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

func (b *Bucket) IsNotExist(err error) bool {
	s3err, ok := err.(*s3.Error)
	return ok && s3err.Code == "NoSuchKey"
}
