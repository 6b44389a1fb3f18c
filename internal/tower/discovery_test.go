package tower

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePingResponse(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{"awx", `{"version":"23.4.0","ha":false,"active_node":"awx-1"}`, "23.4.0", false},
		{"tower", `{"version":"3.8.6","ha":true,"active_node":"tower-1"}`, "3.8.6", false},
		{"missing version", `{"ha":false}`, "", true},
		{"invalid json", `not json`, "", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := ParsePingResponse([]byte(tc.body))
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, resp.Version)
		})
	}
}

func TestAPIRootServiceEntry_BothForms(t *testing.T) {
	var root APIRootResponse
	body := `{"apis":{"controller":{"prefix":"/api/controller/"},"gateway":"/api/gateway/"}}`
	require.NoError(t, json.Unmarshal([]byte(body), &root))
	assert.Equal(t, "/api/controller/", root.APIs["controller"].Prefix)
	assert.Equal(t, "/api/gateway/", root.APIs["gateway"].Prefix)

	var bad APIRootServiceEntry
	assert.Error(t, json.Unmarshal([]byte(`42`), &bad))
}

func TestDetectAPIPrefix(t *testing.T) {
	tests := []struct {
		name string
		root *APIRootResponse
		want string
	}{
		{"nil", nil, ""},
		{"unknown", &APIRootResponse{}, ""},
		{"tower", &APIRootResponse{CurrentVersion: "/api/v2/"}, "/api/v2/"},
		{"tower without slash", &APIRootResponse{CurrentVersion: "/api/v2"}, "/api/v2/"},
		{"aap", &APIRootResponse{APIs: map[string]APIRootServiceEntry{
			"controller": {Prefix: "/api/controller"},
		}}, "/api/controller/v2/"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DetectAPIPrefix(tc.root))
		})
	}
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"3.8.6", "3.8.6", 0},
		{"1.1", "2", -1},
		{"2.1.1", "2", 1},
		{"3.8.6", "23.4.0", -1},
		{"1.0", "1.0.0", 0},
		{"2", "1.9.9", 1},
	}
	for _, tc := range tests {
		t.Run(tc.a+"_vs_"+tc.b, func(t *testing.T) {
			assert.Equal(t, tc.want, CompareVersions(tc.a, tc.b))
		})
	}
}

func TestVersionAtLeast(t *testing.T) {
	assert.True(t, VersionAtLeast("2.1.1", "2"))
	assert.True(t, VersionAtLeast("3.8.6", "2"))
	assert.False(t, VersionAtLeast("1.1", "2"))
	assert.True(t, VersionAtLeast("", "2"))
	assert.True(t, VersionAtLeast("1.0", ""))
	assert.True(t, VersionAtLeast("devel", "2"))
	assert.False(t, VersionAtLeast("1.9-beta", "2"))
}

func TestPing(t *testing.T) {
	f := newFakeTransport().on("GET", "/api/v2/ping/", ok(`{"version":"3.8.6"}`))
	ping, err := Ping(f, "/api/v2/")
	require.NoError(t, err)
	assert.Equal(t, "3.8.6", ping.Version)

	f = newFakeTransport().on("GET", "/api/v2/ping/", ok(`{}`))
	ping, err = Ping(f, "/api/v2/")
	require.NoError(t, err)
	assert.Empty(t, ping.Version)

	_, err = Ping(newFakeTransport(), "/api/v2/")
	assert.Error(t, err)
}

func TestConnect(t *testing.T) {
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("tower", func(t *testing.T) {
		f := newFakeTransport().
			on("GET", "/api/", ok(`{"current_version":"/api/v2/"}`)).
			on("GET", "/api/v2/config/", ok(`{"version":"3.8.6","license_info":{}}`))
		api, err := Connect(f, discard)
		require.NoError(t, err)
		assert.Equal(t, "/api/v2/", api.Prefix())
		assert.Equal(t, "3.8.6", api.Version())
		assert.Contains(t, api.Config().Raw, "license_info")
	})

	t.Run("aap", func(t *testing.T) {
		f := newFakeTransport().
			on("GET", "/api/", ok(`{"apis":{"controller":"/api/controller/"}}`)).
			on("GET", "/api/controller/v2/config/", ok(`{"version":"4.5.0"}`))
		api, err := Connect(f, discard)
		require.NoError(t, err)
		assert.Equal(t, "/api/controller/v2/", api.Prefix())
		assert.Equal(t, "/api/controller/v2/job_templates/", api.Path("job_templates/"))
	})

	t.Run("discovery falls back", func(t *testing.T) {
		f := newFakeTransport().on("GET", "/api/v2/config/", ok(`{"version":"1.1"}`))
		api, err := Connect(f, discard)
		require.NoError(t, err)
		assert.Equal(t, DefaultAPIPrefix, api.Prefix())
		assert.False(t, api.modernLaunch())
	})

	t.Run("config failure", func(t *testing.T) {
		f := newFakeTransport().
			on("GET", "/api/", ok(`{"current_version":"/api/v2/"}`)).
			on("GET", "/api/v2/config/", status(401))
		_, err := Connect(f, discard)
		assert.Error(t, err)
	})

	t.Run("config not json", func(t *testing.T) {
		f := newFakeTransport().
			on("GET", "/api/", ok(`{"current_version":"/api/v2/"}`)).
			on("GET", "/api/v2/config/", ok(`<html></html>`))
		_, err := Connect(f, discard)
		assert.True(t, IsParseError(err))
	})
}

func TestAPI_Path(t *testing.T) {
	api := NewAPI(newFakeTransport(), Config{}, WithPrefix("/api/controller/v2"))
	assert.Equal(t, "/api/controller/v2/jobs/", api.Path("jobs/"))
	assert.Equal(t, "/api/v2/jobs/", api.Path("/api/v2/jobs/"))
	assert.Equal(t, "https://tower.example.com/api/v2/", api.Path("https://tower.example.com/api/v2/"))
}
