package sink

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"hrestore/internal/config"
	"hrestore/internal/hr"
)

type uploadedObject struct {
	bucket, key string
	body        string
	length      int64
	metadata    map[string]string
}

type stubUploader struct {
	objects []uploadedObject
	err     error
}

func (u *stubUploader) Upload(ctx context.Context, in *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	if u.err != nil {
		return nil, u.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	u.objects = append(u.objects, uploadedObject{
		bucket:   aws.ToString(in.Bucket),
		key:      aws.ToString(in.Key),
		body:     string(body),
		length:   aws.ToInt64(in.ContentLength),
		metadata: in.Metadata,
	})
	return &manager.UploadOutput{}, nil
}

func TestS3Sink_Put(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		prefix   string
		wantKey  string
		wantDesc string
	}{
		{name: "with prefix", prefix: "/restores/2024-07-31/", wantKey: "restores/2024-07-31/src/main.py", wantDesc: "s3://bucket/restores/2024-07-31"},
		{name: "no prefix", prefix: "", wantKey: "src/main.py", wantDesc: "s3://bucket"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			up := &stubUploader{}
			s := newS3SinkWithUploader(context.Background(), "bucket", tt.prefix, up)

			mtime := time.Date(2024, 7, 31, 10, 0, 0, 0, time.UTC)
			if err := s.Put("src/main.py", strings.NewReader("print(1)"), 8, mtime); err != nil {
				t.Fatalf("Put() error = %v", err)
			}
			if len(up.objects) != 1 {
				t.Fatalf("uploaded %d objects, want 1", len(up.objects))
			}
			obj := up.objects[0]
			if obj.bucket != "bucket" || obj.key != tt.wantKey || obj.body != "print(1)" || obj.length != 8 {
				t.Errorf("object = %+v", obj)
			}
			if obj.metadata[snapshotTimeKey] != "2024-07-31T10:00:00Z" {
				t.Errorf("metadata = %v", obj.metadata)
			}
			if s.Describe() != tt.wantDesc {
				t.Errorf("Describe() = %q, want %q", s.Describe(), tt.wantDesc)
			}
		})
	}
}

func TestS3Sink_PutErrors(t *testing.T) {
	t.Parallel()

	up := &stubUploader{}
	s := newS3SinkWithUploader(context.Background(), "bucket", "p", up)
	if err := s.Put("../x", strings.NewReader(""), 0, time.Time{}); !errors.Is(err, hr.ErrInvalidPath) {
		t.Errorf("Put(../x) error = %v, want ErrInvalidPath", err)
	}

	boom := errors.New("access denied")
	up.err = boom
	if err := s.Put("a.txt", strings.NewReader("a"), 1, time.Time{}); !errors.Is(err, boom) {
		t.Errorf("Put() error = %v, want wrapped upload error", err)
	}
}

func TestS3Sink_PutCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	up := &stubUploader{}
	s := newS3SinkWithUploader(ctx, "bucket", "p", up)

	if err := s.Put("a.txt", strings.NewReader("a"), 1, time.Time{}); err != nil {
		t.Fatalf("Put() before cancel error = %v", err)
	}
	cancel()
	if err := s.Put("b.txt", strings.NewReader("b"), 1, time.Time{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Put() after cancel error = %v, want context.Canceled", err)
	}
	if len(up.objects) != 1 {
		t.Errorf("uploaded %d objects, want 1", len(up.objects))
	}
}

func TestNewS3Sink_RequiresBucket(t *testing.T) {
	t.Parallel()

	if _, err := NewS3Sink(context.Background(), config.OutputConfig{Type: "s3"}); !errors.Is(err, hr.ErrConfiguration) {
		t.Errorf("NewS3Sink() error = %v, want ErrConfiguration", err)
	}
}
