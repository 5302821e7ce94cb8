package export

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"cvforge/internal/config"
	"cvforge/internal/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = in
	data, _ := io.ReadAll(in.Body)
	f.body = string(data)
	return &s3.PutObjectOutput{}, nil
}

func TestUploadStoresArtifact(t *testing.T) {
	putter := &fakePutter{}
	u := NewUploaderWithClient(putter, "cv-bucket", "/exports/")
	u.now = func() time.Time { return time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC) }

	a := &Artifact{Format: FormatHTML, Filename: "ada-cv.html", ContentType: FormatHTML.ContentType(), Data: []byte("<html></html>")}
	key, err := u.Upload(context.Background(), a)
	if err != nil {
		t.Fatalf("Expected upload to succeed, got %v", err)
	}

	if !strings.HasPrefix(key, "exports/2024/03/09/") || !strings.HasSuffix(key, "-ada-cv.html") {
		t.Errorf("Expected dated key ending in filename, got %s", key)
	}
	if a.Key != key {
		t.Errorf("Expected artifact key to be set")
	}
	if aws.ToString(putter.input.Bucket) != "cv-bucket" || aws.ToString(putter.input.ContentType) != FormatHTML.ContentType() {
		t.Errorf("Expected bucket and content type to be passed, got %+v", putter.input)
	}
	if putter.body != "<html></html>" {
		t.Errorf("Expected body to be uploaded, got %q", putter.body)
	}
}

func TestUploadFailureIsRemoteError(t *testing.T) {
	u := NewUploaderWithClient(&fakePutter{err: fmt.Errorf("access denied")}, "b", "")
	_, err := u.Upload(context.Background(), &Artifact{Filename: "cv.pdf"})
	if !errors.IsType(err, errors.ErrorTypeRemote) {
		t.Errorf("Expected remote error, got %v", err)
	}
}

func TestNewUploaderRequiresBucket(t *testing.T) {
	_, err := NewUploader(context.Background(), config.S3Config{Enabled: true})
	if !errors.IsType(err, errors.ErrorTypeConfig) {
		t.Errorf("Expected config error, got %v", err)
	}
}
