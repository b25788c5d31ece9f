package config

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{APIBase: "https://checkeasy-57905.bubbleapps.io", Version: VersionTest}
}

func TestAPIBaseURL(t *testing.T) {
	cfg := testConfig()
	assert.Equal(t, "https://checkeasy-57905.bubbleapps.io/version-test/api/1.1/wf", cfg.APIBaseURL())

	live := cfg.WithVersion(VersionLive)
	assert.Equal(t, "https://checkeasy-57905.bubbleapps.io/version-live/api/1.1/wf", live.APIBaseURL())
	assert.Equal(t, VersionTest, cfg.Version, "WithVersion must not mutate the receiver")
}

func TestWithVersionIgnoresUnknown(t *testing.T) {
	cfg := testConfig().WithVersion("staging")
	assert.Equal(t, VersionTest, cfg.Version)
}

func TestBuildURL(t *testing.T) {
	cfg := testConfig()
	got := cfg.BuildURL("rapportdataia", map[string]string{"rapport": "123x456"})
	assert.Equal(t, "https://checkeasy-57905.bubbleapps.io/version-test/api/1.1/wf/rapportdataia?rapport=123x456", got)

	assert.True(t, strings.HasSuffix(cfg.BuildURL("endpointrapportform", nil), "/wf/endpointrapportform"))
}

func TestParsePageURL(t *testing.T) {
	tests := []struct {
		raw         string
		wantID      string
		wantVersion string
		wantErr     bool
	}{
		{"http://localhost:8080?rapport=1763564845575x702792386204432800", "1763564845575x702792386204432800", "", false},
		{"https://app.example.com/?rapport=abc&version=live", "abc", "live", false},
		{"1763564845575x702792386204432800", "1763564845575x702792386204432800", "", false},
		{"http://localhost:8080/", "", "", true},
		{"http://localhost:8080?rapport=%20", "", "", true},
		{"", "", "", true},
	}

	for _, tt := range tests {
		got, err := ParsePageURL(tt.raw)
		if tt.wantErr {
			require.Error(t, err, tt.raw)
			assert.True(t, errors.Is(err, ErrMissingReportID), tt.raw)
			assert.Contains(t, err.Error(), ExampleURL)
			continue
		}
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.wantID, got.ReportID)
		assert.Equal(t, tt.wantVersion, got.Version)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("API_VERSION", "live")
	t.Setenv("SESSION_ENDPOINT_ENABLED", "true")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "5")
	t.Setenv("LOAD_TIMEOUT_SECONDS", "")
	t.Setenv("PORT", "")
	t.Setenv("ARCHIVE_ENABLED", "")

	cfg := Load()
	assert.Equal(t, VersionLive, cfg.Version)
	assert.True(t, cfg.SessionEndpointEnabled)
	assert.Equal(t, 5.0, cfg.HTTPTimeout.Seconds())
	assert.Equal(t, DefaultLoadTimeout, cfg.LoadTimeout)
	assert.Equal(t, 8080, cfg.Port)
	assert.False(t, cfg.ArchiveEnabled)
}
