package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestS3URL(t *testing.T) {
	virtual := &S3{cfg: S3Config{Bucket: "uploads", Region: "eu-west-1"}}
	assert.Equal(t, "https://uploads.s3.eu-west-1.amazonaws.com/a.jpg", virtual.URL("a.jpg"))

	minio := &S3{cfg: S3Config{Bucket: "uploads", Endpoint: "http://localhost:9000"}}
	assert.Equal(t, "http://localhost:9000/uploads/a.jpg", minio.URL("a.jpg"))
}
