package cookies

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"
)

// Fetcher is the remote cookie-store capability: an opaque key/value lookup
// by domain. A nil Fetcher means remote resolution is disabled.
type Fetcher interface {
	FetchDomain(ctx context.Context, domain string) (*DomainCookies, error)
}

// CloudflareKVFetcher reads cookie material from a Cloudflare Workers KV
// namespace keyed by domain.
type CloudflareKVFetcher struct {
	accountID   string
	apiToken    string
	namespaceID string
	baseURL     string
	client      *http.Client
}

func NewCloudflareKVFetcher(accountID, apiToken, namespaceID string) *CloudflareKVFetcher {
	return &CloudflareKVFetcher{
		accountID:   accountID,
		apiToken:    apiToken,
		namespaceID: namespaceID,
		baseURL:     "https://api.cloudflare.com/client/v4",
		client:      &http.Client{Timeout: 15 * time.Second},
	}
}

// NewFetcherFromEnv builds a Cloudflare KV fetcher from environment
// credentials, or returns nil when any credential is absent.
func NewFetcherFromEnv() Fetcher {
	accountID := os.Getenv("CLOUDFLARE_ACCOUNT_ID")
	apiToken := os.Getenv("CLOUDFLARE_API_TOKEN")
	namespaceID := os.Getenv("CLOUDFLARE_KV_NAMESPACE_ID")
	if accountID == "" || apiToken == "" || namespaceID == "" {
		slog.Debug("Remote cookie fetch disabled, Cloudflare credentials missing")
		return nil
	}
	return NewCloudflareKVFetcher(accountID, apiToken, namespaceID)
}

// FetchDomain looks up one domain. A missing key is (nil, nil), not an error.
func (f *CloudflareKVFetcher) FetchDomain(ctx context.Context, domain string) (*DomainCookies, error) {
	endpoint := fmt.Sprintf(
		"%s/accounts/%s/storage/kv/namespaces/%s/values/%s",
		f.baseURL, f.accountID, f.namespaceID, url.PathEscape(domain))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+f.apiToken)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cookies for %s: %w", domain, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cookie store returned %d for %s", resp.StatusCode, domain)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read cookie store response: %w", err)
	}

	var info DomainCookies
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse cookie store value for %s: %w", domain, err)
	}

	return &info, nil
}
