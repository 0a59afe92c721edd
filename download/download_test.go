package download

import (
	"context"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

func TestDownloadBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/data_2003.tif":
			w.Write([]byte("payload-2003"))
		case "/data_2004.tif":
			w.Write([]byte("payload-2004"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	svc := NewHTTPService()
	destDir := t.TempDir()
	locators := []string{
		server.URL + "/data_2003.tif",
		server.URL + "/data_2004.tif",
		server.URL + "/missing.tif",
	}

	results, err := svc.Download(context.Background(), locators, destDir, Options{})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	for i := 0; i < 2; i++ {
		res := results[i]
		if !res.OK {
			t.Errorf("%s: not OK (status %d)", res.Locator, res.StatusCode)
			continue
		}
		data, err := ioutil.ReadFile(res.LocalPath)
		if err != nil {
			t.Errorf("%s: %v", res.LocalPath, err)
		} else if len(data) == 0 {
			t.Errorf("%s: empty file", res.LocalPath)
		}
	}

	if results[2].OK {
		t.Errorf("missing file reported OK")
	}
	if results[2].StatusCode != http.StatusNotFound {
		t.Errorf("missing file status = %d, want 404", results[2].StatusCode)
	}
}

func TestDownloadResumeSkips(t *testing.T) {
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.Write([]byte("fresh"))
	}))
	defer server.Close()

	destDir := t.TempDir()
	if err := ioutil.WriteFile(filepath.Join(destDir, "data.tif"), []byte("stale"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	svc := NewHTTPService()
	locators := []string{server.URL + "/data.tif"}

	results, err := svc.Download(context.Background(), locators, destDir, Options{Resume: true})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if !results[0].OK || !results[0].Skipped {
		t.Errorf("existing file not skipped: %+v", results[0])
	}
	if n := atomic.LoadInt64(&hits); n != 0 {
		t.Errorf("server hit %d times during resume, want 0", n)
	}

	// Overwrite forces the transfer even when resuming.
	results, err = svc.Download(context.Background(), locators, destDir, Options{Resume: true, Overwrite: true})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if !results[0].OK || results[0].Skipped {
		t.Errorf("overwrite did not transfer: %+v", results[0])
	}
	data, err := os.ReadFile(results[0].LocalPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "fresh" {
		t.Errorf("file content = %q, want %q", data, "fresh")
	}
}

func TestDownloadClientErrorNoRetry(t *testing.T) {
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	svc := NewHTTPService()
	results, err := svc.Download(context.Background(), []string{server.URL + "/secret.tif"}, t.TempDir(), Options{})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if results[0].OK {
		t.Errorf("403 reported OK")
	}
	if n := atomic.LoadInt64(&hits); n != 1 {
		t.Errorf("client error retried: %d requests, want 1", n)
	}
}
