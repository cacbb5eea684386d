package updater

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewerVersion(t *testing.T) {
	tests := []struct {
		remote, local string
		want          bool
	}{
		{"1.1", "1.0", true},
		{"1.0", "1.0", false},
		{"1.0", "1.1", false},
		{"1.10", "1.9", true},
		{"2.0.1", "2.0", true},
		{"2.0", "2.0.0", false},
		{"v1.2", "1.1", true},
		{"abc", "1.0", false},
	}
	for _, tt := range tests {
		if got := newerVersion(tt.remote, tt.local); got != tt.want {
			t.Errorf("newerVersion(%q, %q) = %v, want %v", tt.remote, tt.local, got, tt.want)
		}
	}
}

func TestCheckReportsUpdate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"version": "2.1", "download_url": "https://example.com/wall-e-2.1.zip", "notes": "bug fixes"}`))
	}))
	defer srv.Close()

	c := NewChecker("2.0")
	c.manifestURL = srv.URL

	st, err := c.Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if !st.UpdateAvailable {
		t.Error("update not reported")
	}
	if st.Latest != "2.1" || st.Current != "2.0" {
		t.Errorf("versions = %q / %q", st.Latest, st.Current)
	}
	if st.DownloadURL != "https://example.com/wall-e-2.1.zip" {
		t.Errorf("download url = %q", st.DownloadURL)
	}
}

func TestCheckUpToDate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"version": "2.0", "download_url": "https://example.com/x.zip"}`))
	}))
	defer srv.Close()

	c := NewChecker("2.0")
	c.manifestURL = srv.URL

	st, err := c.Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if st.UpdateAvailable {
		t.Error("update reported for identical versions")
	}
	if st.DownloadURL != "" {
		t.Error("download url set when no update is available")
	}
}

func TestCheckServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewChecker("2.0")
	c.manifestURL = srv.URL

	if _, err := c.Check(context.Background()); err == nil {
		t.Fatal("expected an error for a 500 response")
	}
}
