// Package updater checks the project's published version manifest for
// a newer release. It only reports availability; it never downloads or
// replaces anything.
package updater

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const defaultManifestURL = "https://raw.githubusercontent.com/AbrarShakhi/Wall-E/master/version.json"

// manifest is the shape of the published version.json.
type manifest struct {
	Version     string `json:"version"`
	DownloadURL string `json:"download_url"`
	Notes       string `json:"notes"`
}

// Status is the result of one update check.
type Status struct {
	UpdateAvailable bool   `json:"update_available"`
	Current         string `json:"current"`
	Latest          string `json:"latest"`
	DownloadURL     string `json:"download_url,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

// Checker fetches and compares the remote version manifest.
type Checker struct {
	current     string
	manifestURL string
	client      *http.Client
}

func NewChecker(currentVersion string) *Checker {
	return &Checker{
		current:     currentVersion,
		manifestURL: defaultManifestURL,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

// Check fetches the manifest and compares versions.
func (c *Checker) Check(ctx context.Context) (Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.manifestURL, nil)
	if err != nil {
		return Status{}, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return Status{}, fmt.Errorf("fetching version manifest: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Status{}, fmt.Errorf("version manifest returned %d", resp.StatusCode)
	}

	var m manifest
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return Status{}, fmt.Errorf("decoding version manifest: %w", err)
	}

	st := Status{
		Current: c.current,
		Latest:  m.Version,
	}
	if newerVersion(m.Version, c.current) {
		st.UpdateAvailable = true
		st.DownloadURL = m.DownloadURL
		st.Notes = m.Notes
	}
	return st, nil
}

// newerVersion compares dotted numeric versions, e.g. "1.10.2" vs
// "1.9". Non-numeric segments compare as zero; a leading "v" is
// ignored.
func newerVersion(remote, local string) bool {
	r := splitVersion(remote)
	l := splitVersion(local)
	n := len(r)
	if len(l) > n {
		n = len(l)
	}
	for i := 0; i < n; i++ {
		var rv, lv int
		if i < len(r) {
			rv = r[i]
		}
		if i < len(l) {
			lv = l[i]
		}
		if rv != lv {
			return rv > lv
		}
	}
	return false
}

func splitVersion(v string) []int {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	parts := strings.Split(v, ".")
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			n = 0
		}
		nums[i] = n
	}
	return nums
}
