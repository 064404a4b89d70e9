package cookies

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/publicsuffix"
)

var domainSanitizer = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Resolver maps a URL's host to cookie material via a local on-disk cache
// and an optional remote fetcher. Results (including negative ones) are
// memoized for the process lifetime and recomputed each process start.
// Every failure degrades to "no cookies for this domain".
type Resolver struct {
	cachePath string
	tempDir   string
	remote    Fetcher

	localCache map[string]*DomainCookies // lazily loaded from cachePath
	bundles    map[string]*Bundle        // per-host memo, nil entries are negative results
	remoteSeen map[string]bool           // at most one remote fetch per domain per run
}

// NewResolver wires a Resolver over cacheDir/cookies_by_domain.json and a
// temp directory for materialized cookie files. remote may be nil.
func NewResolver(cacheDir, tempDir string, remote Fetcher) *Resolver {
	return &Resolver{
		cachePath:  filepath.Join(cacheDir, "cookies_by_domain.json"),
		tempDir:    tempDir,
		remote:     remote,
		bundles:    make(map[string]*Bundle),
		remoteSeen: make(map[string]bool),
	}
}

// BundleForURL returns the cookie bundle for the URL's host, or nil when no
// cookies are available.
func (r *Resolver) BundleForURL(ctx context.Context, rawURL string) *Bundle {
	host := normalizeHost(rawURL)
	if host == "" {
		return nil
	}

	if bundle, ok := r.bundles[host]; ok {
		return bundle
	}

	for _, candidate := range candidateDomains(host) {
		info, source := r.lookupDomain(ctx, candidate)
		if info == nil {
			continue
		}
		bundle := r.buildBundle(candidate, info, source)
		if bundle == nil {
			continue
		}
		r.bundles[host] = bundle
		return bundle
	}

	r.bundles[host] = nil
	return nil
}

// normalizeHost extracts the lower-cased host from a URL-ish string,
// dropping userinfo, port and any trailing dot.
func normalizeHost(rawURL string) string {
	host := rawURL
	if idx := strings.Index(host, "://"); idx >= 0 {
		host = host[idx+3:]
	}
	if idx := strings.IndexAny(host, "/?#"); idx >= 0 {
		host = host[:idx]
	}
	if idx := strings.LastIndex(host, "@"); idx >= 0 {
		host = host[idx+1:]
	}
	if idx := strings.Index(host, ":"); idx >= 0 {
		host = host[:idx]
	}
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(host)), ".")
}

// candidateDomains lists the host followed by each suffix down to the
// registrable domain. The public suffix list bounds the walk; when the
// lookup fails the walk stops at the last two labels.
func candidateDomains(host string) []string {
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return []string{host}
	}

	floor := ""
	if registrable, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		floor = registrable
	}

	candidates := []string{host}
	for i := 1; i < len(labels)-1; i++ {
		suffix := strings.Join(labels[i:], ".")
		if suffix == floor {
			break
		}
		candidates = append(candidates, suffix)
	}
	if floor == "" {
		floor = strings.Join(labels[len(labels)-2:], ".")
	}
	if candidates[len(candidates)-1] != floor {
		candidates = append(candidates, floor)
	}
	return candidates
}

func (r *Resolver) lookupDomain(ctx context.Context, domain string) (*DomainCookies, string) {
	domain = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(domain)), ".")
	if domain == "" {
		return nil, ""
	}

	if info, ok := r.loadLocalCache()[domain]; ok {
		return info, SourceLocalCache
	}

	if r.remote == nil || r.remoteSeen[domain] {
		return nil, ""
	}
	r.remoteSeen[domain] = true

	info, err := r.remote.FetchDomain(ctx, domain)
	if err != nil {
		slog.Warn("Remote cookie fetch failed", "domain", domain, "error", err)
		return nil, ""
	}
	if info == nil {
		return nil, ""
	}
	return info, SourceRemote
}

func (r *Resolver) loadLocalCache() map[string]*DomainCookies {
	if r.localCache != nil {
		return r.localCache
	}

	cache := make(map[string]*DomainCookies)
	r.localCache = cache

	data, err := os.ReadFile(r.cachePath)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Failed to load cookie cache", "path", r.cachePath, "error", err)
		}
		return cache
	}

	var document struct {
		Domains map[string]*DomainCookies `json:"domains"`
	}
	if err := json.Unmarshal(data, &document); err != nil {
		slog.Warn("Failed to parse cookie cache", "path", r.cachePath, "error", err)
		return cache
	}

	for storedDomain, info := range document.Domains {
		if info == nil {
			continue
		}
		normalized := strings.TrimPrefix(strings.ToLower(storedDomain), ".")
		if existing, ok := cache[normalized]; ok {
			existing.Cookies = append(existing.Cookies, info.Cookies...)
			existing.LocalStorageItems = append(existing.LocalStorageItems, info.LocalStorageItems...)
			if info.UpdateTime > existing.UpdateTime {
				existing.UpdateTime = info.UpdateTime
			}
			continue
		}
		cache[normalized] = info
	}

	return cache
}

func (r *Resolver) buildBundle(domain string, info *DomainCookies, source string) *Bundle {
	if len(info.Cookies) == 0 {
		return nil
	}

	archiverCookies := make([]ArchiverCookie, 0, len(info.Cookies))
	for _, cookie := range info.Cookies {
		if prepared := prepareArchiverCookie(cookie); prepared != nil {
			archiverCookies = append(archiverCookies, *prepared)
		}
	}
	if len(archiverCookies) == 0 {
		return nil
	}

	return &Bundle{
		Domain:          domain,
		Cookies:         info.Cookies,
		ArchiverCookies: archiverCookies,
		Source:          source,
		CookieFile:      r.writeCookieFile(domain, archiverCookies),
		Header:          cookieHeader(info.Cookies),
	}
}

func (r *Resolver) writeCookieFile(domain string, cookies []ArchiverCookie) string {
	if err := os.MkdirAll(r.tempDir, 0o755); err != nil {
		slog.Warn("Failed to create cookie temp dir", "path", r.tempDir, "error", err)
		return ""
	}

	safe := domainSanitizer.ReplaceAllString(domain, "_")
	path := filepath.Join(r.tempDir, safe+".archive.cookies.json")

	data, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		slog.Warn("Failed to encode cookie file", "domain", domain, "error", err)
		return ""
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		slog.Warn("Failed to write cookie file", "path", path, "error", err)
		return ""
	}

	return path
}

func prepareArchiverCookie(cookie map[string]interface{}) *ArchiverCookie {
	name, _ := cookie["name"].(string)
	if name == "" {
		return nil
	}
	value, ok := stringValue(cookie["value"])
	if !ok {
		return nil
	}

	prepared := &ArchiverCookie{
		Name:  name,
		Value: value,
		Path:  "/",
	}
	if path, _ := cookie["path"].(string); path != "" {
		prepared.Path = path
	}
	if domain, _ := cookie["domain"].(string); domain != "" {
		prepared.Domain = domain
	}
	if secure, ok := cookie["secure"].(bool); ok {
		prepared.Secure = &secure
	}
	if httpOnly, ok := cookie["httpOnly"].(bool); ok {
		prepared.HTTPOnly = &httpOnly
	}

	sameSite := cookie["sameSite"]
	if sameSite == nil {
		sameSite = cookie["same_site"]
	}
	if raw, _ := sameSite.(string); raw != "" {
		prepared.SameSite = normalizeSameSite(raw)
	}

	for _, key := range []string{"expires", "expiry", "expirationDate"} {
		if expires, ok := floatValue(cookie[key]); ok {
			prepared.Expires = &expires
			break
		}
	}

	return prepared
}

func normalizeSameSite(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "no_restriction", "no_restrictions", "none":
		return "None"
	case "lax":
		return "Lax"
	case "strict":
		return "Strict"
	default:
		return ""
	}
}

func cookieHeader(cookies []map[string]interface{}) string {
	parts := make([]string, 0, len(cookies))
	for _, cookie := range cookies {
		name, _ := cookie["name"].(string)
		if name == "" {
			continue
		}
		value, ok := stringValue(cookie["value"])
		if !ok {
			continue
		}
		parts = append(parts, name+"="+value)
	}
	return strings.Join(parts, "; ")
}

func stringValue(raw interface{}) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		return "", false
	}
}

func floatValue(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
