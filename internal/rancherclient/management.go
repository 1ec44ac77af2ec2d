// Package rancherclient is the façade in front of the two external systems
// the controller talks to: the Rancher management API (cluster discovery)
// and Fleet (Bundle CRUD through a controller-runtime client). Injected at
// startup rather than reached via a package-level singleton, per the
// teacher's own internal/client.Client design note.
package rancherclient

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/suse/herd-controller/internal/herderrors"

	"k8s.io/apimachinery/pkg/util/wait"
)

// ManagementCluster is the subset of a Rancher management.cattle.io/v3
// Cluster object the resolver consumes.
type ManagementCluster struct {
	ID     string            `json:"id"`
	Labels map[string]string `json:"labels"`
	State  string            `json:"state"`
}

// IsActive reports whether the cluster is eligible for target resolution.
func (c ManagementCluster) IsActive() bool {
	return c.State == "active"
}

// IsLocal reports whether c is the Rancher local (management) cluster,
// which drives fleet-local vs fleet-default workspace classification.
func (c ManagementCluster) IsLocal() bool {
	return c.ID == "local"
}

type clusterCollection struct {
	Data []ManagementCluster `json:"data"`
}

// ManagementClient lists clusters known to Rancher.
type ManagementClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewManagementClient builds a ManagementClient against baseURL
// (e.g. "https://rancher.example.com"), authenticating with token.
// verifySSL and timeout configure the underlying http.Client exactly as
// spec.md §6's RANCHER_VERIFY_SSL/RANCHER_TIMEOUT env vars intend.
func NewManagementClient(baseURL, token string, verifySSL bool, timeout time.Duration) *ManagementClient {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !verifySSL {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // operator opt-in via RANCHER_VERIFY_SSL=false
	}
	return &ManagementClient{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
	}
}

// ListClusters returns every cluster Rancher currently reports, regardless
// of state; callers filter for State == "active" per spec.md §6.
func (m *ManagementClient) ListClusters(ctx context.Context) ([]ManagementCluster, error) {
	url := m.baseURL + "/v3/clusters"

	var clusters []ManagementCluster
	backoff := wait.Backoff{Duration: 250 * time.Millisecond, Factor: 2, Steps: 4}

	err := wait.ExponentialBackoff(backoff, func() (bool, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return false, err
		}
		req.Header.Set("Authorization", "Bearer "+m.token)
		req.Header.Set("Accept", "application/json")

		resp, err := m.httpClient.Do(req)
		if err != nil {
			// network errors are transient: retry.
			return false, nil
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return false, nil
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			return false, fmt.Errorf("herd: rancher returned %d listing clusters: %s", resp.StatusCode, string(body))
		}

		var collection clusterCollection
		if err := json.NewDecoder(resp.Body).Decode(&collection); err != nil {
			return false, fmt.Errorf("%w: decoding cluster list: %v", herderrors.ErrParseFailure, err)
		}
		clusters = collection.Data
		return true, nil
	})
	if err != nil {
		// Only exhausting the retries on network/5xx failures is transient;
		// a non-5xx HTTP error or a decode failure is returned as is.
		if wait.Interrupted(err) {
			return nil, fmt.Errorf("%w: %v", herderrors.ErrTransientAPI, err)
		}
		return nil, err
	}

	return clusters, nil
}
