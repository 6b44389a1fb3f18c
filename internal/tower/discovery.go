package tower

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// PingResponse holds the parsed ping/ response.
type PingResponse struct {
	Version    string `json:"version"`
	HA         bool   `json:"ha"`
	ActiveNode string `json:"active_node"`
}

// APIRootServiceEntry is one service under "apis" in an AAP /api/ response.
// Older gateways publish a bare prefix string, newer ones an object.
type APIRootServiceEntry struct {
	Prefix string `json:"prefix"`
}

// UnmarshalJSON accepts either "/api/controller/" or {"prefix": "/api/controller/"}.
func (e *APIRootServiceEntry) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		e.Prefix = s
		return nil
	}
	type plain APIRootServiceEntry
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*e = APIRootServiceEntry(p)
	return nil
}

// APIRootResponse holds the parsed /api/ response.
// AWX / Tower format: {"current_version": "/api/v2/", ...}
// AAP format: {"apis": {"controller": {"prefix": "/api/controller/"}, ...}}
type APIRootResponse struct {
	CurrentVersion string                         `json:"current_version"`
	APIs           map[string]APIRootServiceEntry `json:"apis"`
}

// ParsePingResponse extracts the version from a ping/ JSON response body.
func ParsePingResponse(body []byte) (*PingResponse, error) {
	var resp PingResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing ping response: %w", err)
	}
	if resp.Version == "" {
		return nil, fmt.Errorf("ping response missing version field")
	}
	return &resp, nil
}

// ParseAPIRoot parses the /api/ response body.
func ParseAPIRoot(body []byte) (*APIRootResponse, error) {
	var resp APIRootResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing API root response: %w", err)
	}
	return &resp, nil
}

// DetectAPIPrefix determines the API prefix from the parsed /api/ response.
// Tower: current_version as-is (e.g. "/api/v2/").
// AAP: apis.controller prefix + "v2/" (e.g. "/api/controller/v2/").
// Returns empty string if detection fails.
func DetectAPIPrefix(root *APIRootResponse) string {
	if root == nil {
		return ""
	}
	if root.CurrentVersion != "" {
		prefix := root.CurrentVersion
		if !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		return prefix
	}
	if controller, ok := root.APIs["controller"]; ok && controller.Prefix != "" {
		prefix := controller.Prefix
		if !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		return prefix + "v2/"
	}
	return ""
}

// CompareVersions performs a simple semver comparison.
// Returns -1 if a < b, 0 if a == b, 1 if a > b.
// Handles partial versions (e.g. "2" vs "2.1.1").
func CompareVersions(a, b string) int {
	aParts := parseVersionParts(a)
	bParts := parseVersionParts(b)

	maxLen := len(aParts)
	if len(bParts) > maxLen {
		maxLen = len(bParts)
	}

	for i := 0; i < maxLen; i++ {
		var av, bv int
		if i < len(aParts) {
			av = aParts[i]
		}
		if i < len(bParts) {
			bv = bParts[i]
		}
		if av < bv {
			return -1
		}
		if av > bv {
			return 1
		}
	}
	return 0
}

// VersionAtLeast returns true if version >= min. A side with no leading
// numeric component ("", "devel") counts as a match.
func VersionAtLeast(version, min string) bool {
	if len(parseVersionParts(version)) == 0 || len(parseVersionParts(min)) == 0 {
		return true
	}
	return CompareVersions(version, min) >= 0
}

func parseVersionParts(v string) []int {
	parts := strings.Split(v, ".")
	result := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			break
		}
		result = append(result, n)
	}
	return result
}

// Ping calls <prefix>ping/ and parses the version. If the body has no
// version but HTTP succeeded, an empty PingResponse is returned.
func Ping(t Transport, prefix string) (*PingResponse, error) {
	resp, err := t.Get(prefix + "ping/")
	if err != nil {
		return nil, err
	}
	ping, err := ParsePingResponse([]byte(resp.Body))
	if err != nil {
		return &PingResponse{}, nil
	}
	return ping, nil
}

// Connect discovers the API prefix, reads the server config once and returns
// a handle carrying both. Prefix discovery is best-effort; the config read
// is not.
func Connect(t Transport, logger *slog.Logger) (*API, error) {
	if logger == nil {
		logger = slog.Default()
	}
	prefix := DiscoverPrefix(t, logger)

	resp, err := t.Get(prefix + "config/")
	if err != nil {
		return nil, err
	}
	cfg, err := ParseConfig(resp.Body)
	if err != nil {
		return nil, err
	}
	logger.Debug("connected", slog.String("prefix", prefix), slog.String("version", cfg.Version))
	return NewAPI(t, cfg, WithPrefix(prefix), WithLogger(logger)), nil
}

// DiscoverPrefix asks /api/ for the prefix and falls back to DefaultAPIPrefix.
func DiscoverPrefix(t Transport, logger *slog.Logger) string {
	resp, err := t.Get("/api/")
	if err != nil {
		logger.Debug("prefix discovery failed", slog.String("error", err.Error()))
		return DefaultAPIPrefix
	}
	root, err := ParseAPIRoot([]byte(resp.Body))
	if err != nil {
		logger.Debug("prefix discovery failed", slog.String("error", err.Error()))
		return DefaultAPIPrefix
	}
	if prefix := DetectAPIPrefix(root); prefix != "" {
		return prefix
	}
	return DefaultAPIPrefix
}
