package s3

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/kbukum/scribekit/errors"
	"github.com/kbukum/scribekit/storage"
)

func newFakeS3(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "AWS4-HMAC-SHA256") {
			t.Errorf("expected signed request, got %q", r.Header.Get("Authorization"))
		}
		switch r.URL.Path {
		case "/recordings/team/standup.m4a":
			w.Header().Set("Content-Type", "audio/mp4")
			w.Header().Set("Content-Length", "5")
			w.Header().Set("Last-Modified", "Mon, 02 Jan 2006 15:04:05 GMT")
			if r.Method == http.MethodHead {
				return
			}
			_, _ = w.Write([]byte("audio"))
		default:
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			if r.Method != http.MethodHead {
				_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`))
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestStorage(t *testing.T, endpoint string) *Storage {
	t.Helper()
	s, err := NewStorage(context.Background(), storage.Config{
		Provider:  storage.ProviderS3,
		Bucket:    "recordings",
		Region:    "us-east-1",
		Endpoint:  endpoint,
		AccessKey: "AKIDEXAMPLE",
		SecretKey: "secret",
	}, func(o *awss3.Options) { o.RetryMaxAttempts = 1 })
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	return s
}

func TestDownload(t *testing.T) {
	srv := newFakeS3(t)
	s := newTestStorage(t, srv.URL)

	rc, err := s.Download(context.Background(), "team/standup.m4a")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "audio" {
		t.Errorf("expected object body, got %q", data)
	}
}

func TestStat(t *testing.T) {
	srv := newFakeS3(t)
	s := newTestStorage(t, srv.URL)

	info, err := s.Stat(context.Background(), "team/standup.m4a")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Size != 5 || info.ContentType != "audio/mp4" {
		t.Errorf("unexpected info %+v", info)
	}
	if info.LastModified.Year() != 2006 {
		t.Errorf("expected last modified parsed, got %v", info.LastModified)
	}
}

func TestMissingObjectIsSourceUnavailable(t *testing.T) {
	srv := newFakeS3(t)
	s := newTestStorage(t, srv.URL)
	ctx := context.Background()

	_, err := s.Download(ctx, "team/missing.m4a")
	if appErr, ok := errors.AsAppError(err); !ok || appErr.Code != errors.ErrCodeSourceUnavailable {
		t.Errorf("expected SOURCE_UNAVAILABLE from download, got %v", err)
	}
	_, err = s.Stat(ctx, "team/missing.m4a")
	if errors.KindOf(err) != errors.KindPrecondition {
		t.Errorf("expected precondition from stat, got %v", err)
	}
}
