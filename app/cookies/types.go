package cookies

// Provenance of a resolved cookie set.
const (
	SourceLocalCache = "local_cache"
	SourceRemote     = "remote"
)

// ArchiverCookie is the cookie subset the archiver CLI accepts.
type ArchiverCookie struct {
	Name     string   `json:"name"`
	Value    string   `json:"value"`
	Path     string   `json:"path"`
	Domain   string   `json:"domain,omitempty"`
	Secure   *bool    `json:"secure,omitempty"`
	HTTPOnly *bool    `json:"httpOnly,omitempty"`
	SameSite string   `json:"sameSite,omitempty"`
	Expires  *float64 `json:"expires,omitempty"`
}

// Bundle is the resolved cookie material for a domain.
type Bundle struct {
	Domain          string
	Cookies         []map[string]interface{}
	ArchiverCookies []ArchiverCookie
	Source          string
	CookieFile      string // materialized per-domain file; empty when the write failed
	Header          string // raw "name=value; ..." header string
}

// DomainCookies is the raw cookie material held for one domain, as stored in
// the local cache file or returned by the remote fetcher.
type DomainCookies struct {
	Cookies           []map[string]interface{} `json:"cookies"`
	LocalStorageItems []map[string]interface{} `json:"localStorageItems,omitempty"`
	CreateTime        int64                    `json:"createTime,omitempty"`
	UpdateTime        int64                    `json:"updateTime,omitempty"`
}
