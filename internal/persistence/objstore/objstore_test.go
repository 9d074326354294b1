package objstore

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreAnyFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreAnyFunction("net/http.(*persistConn).writeLoop"),
	)
}

func TestClient_PutFileSigned(t *testing.T) {
	var (
		mu               sync.Mutex
		gotPath, gotAuth string
		puts             int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		mu.Lock()
		defer mu.Unlock()
		if r.Method == http.MethodPut {
			puts++
			gotPath = r.URL.Path
			gotAuth = r.Header.Get("Authorization")
		}
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
	}))
	defer srv.Close()

	c, err := New(srv.URL, "runs", "", Credentials{AccessKeyID: "AK", SecretAccessKey: "SK"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	src := filepath.Join(t.TempDir(), "a b.snap.zst")
	if err := os.WriteFile(src, []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := c.PutFile(context.Background(), "/snapshots/a b.snap.zst", src); err != nil {
		t.Fatalf("PutFile: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if puts != 1 || gotPath != "/runs/snapshots/a b.snap.zst" {
		t.Fatalf("puts=%d path=%q", puts, gotPath)
	}
	if !strings.HasPrefix(gotAuth, "AWS4-HMAC-SHA256 Credential=AK/") || !strings.Contains(gotAuth, "/auto/s3/aws4_request") {
		t.Fatalf("auth=%q", gotAuth)
	}
}

func TestClient_PutFileError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>AccessDenied</Code><Message>denied</Message></Error>`)
	}))
	defer srv.Close()

	c, err := New(srv.URL, "runs", "auto", Credentials{AccessKeyID: "AK", SecretAccessKey: "SK"})
	if err != nil {
		t.Fatal(err)
	}
	src := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(src, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := c.PutFile(context.Background(), "f", src); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNew_RequiresCredentials(t *testing.T) {
	if _, err := New("example.com", "b", "", Credentials{}); err == nil {
		t.Fatalf("expected error")
	}
}

type recordingUploader struct {
	mu    sync.Mutex
	keys  []string
	fails int
}

func (u *recordingUploader) PutFile(_ context.Context, key, _ string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.fails > 0 {
		u.fails--
		return errors.New("flaky")
	}
	u.keys = append(u.keys, key)
	return nil
}

func TestMirror_UploadsRelativeKeys(t *testing.T) {
	dataDir := t.TempDir()
	snap := filepath.Join(dataDir, "snapshots", "9.snap.zst")
	if err := os.MkdirAll(filepath.Dir(snap), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(snap, []byte("s"), 0o644); err != nil {
		t.Fatal(err)
	}

	up := &recordingUploader{fails: 1}
	m := NewMirror(up, dataDir, "/runs/", 1, nil)
	m.backoff = time.Millisecond
	m.Enqueue(snap)
	m.Enqueue(filepath.Join(t.TempDir(), "outside"))
	m.Close()

	if diff := cmp.Diff([]string{"runs/snapshots/9.snap.zst"}, up.keys); diff != "" {
		t.Fatalf("keys (-want +got):\n%s", diff)
	}
	st := m.Stats()
	if st.Enqueued != 2 || st.Uploaded != 1 || st.Failed != 0 {
		t.Fatalf("stats=%+v", st)
	}
}

func TestMirror_NilSafe(t *testing.T) {
	var m *Mirror
	m.Enqueue("x")
	m.Close()
	if m.Stats() != (Stats{}) {
		t.Fatalf("nil stats")
	}
}
