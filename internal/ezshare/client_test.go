package ezshare

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewRejectsBadURLs(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"garbage", "://not-a-url"},
		{"wrong scheme", "ftp://192.168.4.1/dir?dir=A:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.url, time.Second); err == nil {
				t.Errorf("New(%q) expected error", tt.url)
			}
		})
	}
}

func TestClientList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><pre>
2023-08-19  12:05:07   1024 <a href="download?file=STR.EDF">STR.EDF</a>
2023-08-19  12:05:07        <a href="dir?dir=A:%5CDATALOG">DATALOG</a>
</pre></body></html>`))
	}))
	defer server.Close()

	client, err := New(server.URL+"/dir?dir=A:", 5*time.Second)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	entries, err := client.List(context.Background(), client.RootURL())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("List() returned %d entries, want 2", len(entries))
	}
	if entries[0].Name != "STR.EDF" || entries[0].IsDir {
		t.Errorf("entries[0] = %+v, want STR.EDF file", entries[0])
	}
	if entries[1].Name != "DATALOG" || !entries[1].IsDir {
		t.Errorf("entries[1] = %+v, want DATALOG directory", entries[1])
	}
}

func TestClientListServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, err := New(server.URL+"/dir?dir=A:", 5*time.Second)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := client.List(context.Background(), client.RootURL()); err == nil {
		t.Fatal("List() expected error on 503")
	}
}

func TestClientDownload(t *testing.T) {
	content := []byte("edf payload")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(content)
	}))
	defer server.Close()

	client, err := New(server.URL+"/dir?dir=A:", 5*time.Second)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	localPath := filepath.Join(t.TempDir(), "STR.edf")
	modified := time.Date(2023, 8, 19, 12, 5, 7, 0, time.Local)

	written, err := client.Download(context.Background(), server.URL+"/download?file=STR.EDF", localPath, modified)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if written != int64(len(content)) {
		t.Errorf("Download() wrote %d bytes, want %d", written, len(content))
	}

	got, err := os.ReadFile(localPath)
	if err != nil {
		t.Fatalf("Failed to read downloaded file: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("downloaded content = %q, want %q", got, content)
	}

	fi, err := os.Stat(localPath)
	if err != nil {
		t.Fatalf("Failed to stat downloaded file: %v", err)
	}
	if !fi.ModTime().Equal(modified) {
		t.Errorf("mtime = %v, want %v", fi.ModTime(), modified)
	}
}

func TestClientDownloadSlowerThanPageTimeout(t *testing.T) {
	content := []byte("a long nightly recording")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		// body transfer takes longer than the page timeout
		time.Sleep(400 * time.Millisecond)
		w.Write(content)
	}))
	defer server.Close()

	client, err := New(server.URL+"/dir?dir=A:", 100*time.Millisecond)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	localPath := filepath.Join(t.TempDir(), "BRP.edf")
	written, err := client.Download(context.Background(), server.URL+"/download?file=BRP.EDF", localPath, time.Time{})
	if err != nil {
		t.Fatalf("Download() error = %v, slow transfers must not hit the page timeout", err)
	}
	if written != int64(len(content)) {
		t.Errorf("Download() wrote %d bytes, want %d", written, len(content))
	}
}

func TestClientDownloadHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	client, err := New(server.URL+"/dir?dir=A:", 5*time.Second)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	localPath := filepath.Join(t.TempDir(), "STR.edf")
	if _, err := client.Download(ctx, server.URL+"/download?file=STR.EDF", localPath, time.Time{}); err == nil {
		t.Fatal("Download() expected error when the caller context expires")
	}
	if _, err := os.Stat(localPath); !os.IsNotExist(err) {
		t.Errorf("cancelled download should not leave a file behind, stat err = %v", err)
	}
}

func TestClientListTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	client, err := New(server.URL+"/dir?dir=A:", 100*time.Millisecond)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := client.List(context.Background(), client.RootURL()); err == nil {
		t.Fatal("List() expected timeout error from a stalled card")
	}
}

func TestClientDownloadServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	client, err := New(server.URL+"/dir?dir=A:", 5*time.Second)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	localPath := filepath.Join(t.TempDir(), "missing.edf")
	if _, err := client.Download(context.Background(), server.URL+"/download?file=missing", localPath, time.Time{}); err == nil {
		t.Fatal("Download() expected error on 404")
	}
	if _, err := os.Stat(localPath); !os.IsNotExist(err) {
		t.Errorf("failed download should not leave a file behind, stat err = %v", err)
	}
}

func TestClientVersion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/client" || r.URL.RawQuery != "command=version" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("LZ05B ez Share V2.0.1 2014-03-19 #28103"))
	}))
	defer server.Close()

	client, err := New(server.URL+"/dir?dir=A:", 5*time.Second)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	version, err := client.Version(context.Background())
	if err != nil {
		t.Fatalf("Version() error = %v", err)
	}
	if version.FirmwareVersion != "V2.0.1" {
		t.Errorf("FirmwareVersion = %s, want V2.0.1", version.FirmwareVersion)
	}
	if version.ChipModel != "LZ05B" {
		t.Errorf("ChipModel = %s, want LZ05B", version.ChipModel)
	}
}
