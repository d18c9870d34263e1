package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse_EmptyPayloadUsesDefaults(t *testing.T) {
	cfg := Parse(nil, nil)
	want := Default()
	assert.Equal(t, want, cfg)
}

func TestParse_OverlaysProvidedFields(t *testing.T) {
	raw := json.RawMessage(`{"gradle_cache_dir": "/opt/gradle", "build_on_init": true}`)
	cfg := Parse(raw, nil)
	assert.Equal(t, "/opt/gradle", cfg.GradleCacheDir)
	assert.True(t, cfg.BuildOnInit)
	assert.Equal(t, Default().DBPath, cfg.DBPath)
}

func TestParse_MalformedJSONFallsBackToDefaults(t *testing.T) {
	cfg := Parse(json.RawMessage(`not json`), nil)
	assert.Equal(t, Default(), cfg)
}

func TestParse_UnknownKeysAreIgnored(t *testing.T) {
	cfg := Parse(json.RawMessage(`{"unknown_field": 123, "db_path": "/tmp/x.db"}`), nil)
	assert.Equal(t, "/tmp/x.db", cfg.DBPath)
}
