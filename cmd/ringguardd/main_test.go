package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/ringguard/internal/screen/config"
	"github.com/haukened/ringguard/internal/screen/domain"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func testConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	dir := t.TempDir()
	contactsDir := filepath.Join(dir, "contacts")
	require.NoError(t, os.MkdirAll(contactsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(contactsDir, "family.txt"), []byte("555-123-4567 # Mom\n"), 0o644))

	cfg := config.DEFAULT_APP_CONFIG
	cfg.Env = "dev"
	cfg.Log.Level = "debug"
	cfg.Store.Path = filepath.Join(dir, "state", "ringguard.db")
	cfg.Contacts.Dir = contactsDir
	cfg.Screening.Timezone = "UTC"
	cfg.HTTP.Port = freePort(t)
	return &cfg
}

func postJSON(t *testing.T, url string, body any, out any) int {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(b))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func putJSON(t *testing.T, url string, body any) int {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(b))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp.StatusCode
}

// TestApplication_Integration exercises the full lifecycle over HTTP.
func TestApplication_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	cfg := testConfig(t)
	app, err := buildApplication(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	appErr := make(chan error, 1)
	go func() { appErr <- app.Run(ctx) }()

	base := fmt.Sprintf("http://127.0.0.1:%d", cfg.HTTP.Port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	api := base + "/api/v1"
	require.Equal(t, http.StatusOK, putJSON(t, api+"/blocking", map[string]any{"enabled": true}))
	// an all-day window keeps the test independent of the wall clock
	require.Equal(t, http.StatusOK, putJSON(t, api+"/schedule", map[string]any{
		"startHour": 0, "startMinute": 0, "endHour": 23, "endMinute": 59, "activeDays": "0,1,2,3,4,5,6",
	}))

	var decision struct {
		Block  bool   `json:"block"`
		Reason string `json:"reason"`
	}
	require.Equal(t, http.StatusOK, postJSON(t, api+"/screen", map[string]string{"number": "555-0100"}, &decision))
	assert.True(t, decision.Block)

	require.Equal(t, http.StatusOK, postJSON(t, api+"/screen", map[string]string{"number": "(555) 123-4567"}, &decision))
	assert.False(t, decision.Block)
	assert.Equal(t, "known_contact", decision.Reason)

	resp, err := http.Get(api + "/log/count")
	require.NoError(t, err)
	var count struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&count))
	_ = resp.Body.Close()
	assert.Equal(t, 1, count.Count)

	resp, err = http.Get(base + "/metrics")
	require.NoError(t, err)
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Contains(t, buf.String(), `ringguard_screen_decisions_total{action="block",reason="unknown_caller"} 1`)
	assert.Contains(t, buf.String(), "ringguard_rejection_log_entries 1")
	assert.Contains(t, buf.String(), "ringguard_contact_numbers 1")
	assert.Contains(t, buf.String(), "ringguard_contact_cache_misses_total 2")
	assert.Contains(t, buf.String(), "ringguard_allowlist_entries 0")

	cancel()
	select {
	case err := <-appErr:
		assert.NoError(t, err, "Application should shutdown gracefully")
	case <-time.After(5 * time.Second):
		t.Fatal("Application failed to shutdown within timeout")
	}
}

// TestBuildApplication_ConfigurationVariations tests different configurations
func TestBuildApplication_ConfigurationVariations(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *config.AppConfig)
		wantErr bool
		check   func(t *testing.T, app *Application)
	}{
		{
			name:   "default",
			mutate: func(*config.AppConfig) {},
			check: func(t *testing.T, app *Application) {
				assert.NotNil(t, app.directory)
				assert.NotNil(t, app.cache)
			},
		},
		{
			name:   "cache disabled",
			mutate: func(cfg *config.AppConfig) { cfg.Contacts.CacheSize = 0 },
			check: func(t *testing.T, app *Application) {
				assert.Nil(t, app.cache)
			},
		},
		{
			name:   "no contacts dir",
			mutate: func(cfg *config.AppConfig) { cfg.Contacts.Dir = "" },
			check: func(t *testing.T, app *Application) {
				assert.Nil(t, app.directory)
				assert.False(t, app.engine.Screen(context.Background(), "555-0100").Block)
			},
		},
		{
			name:   "missing contacts dir",
			mutate: func(cfg *config.AppConfig) { cfg.Contacts.Dir = filepath.Join(t.TempDir(), "absent") },
			check: func(t *testing.T, app *Application) {
				assert.Nil(t, app.directory)
			},
		},
		{
			name:   "unsupported platform ignores stored policy",
			mutate: func(cfg *config.AppConfig) { cfg.Platform.Role = "unsupported" },
			check: func(t *testing.T, app *Application) {
				require.NoError(t, app.store.SaveEnabled(true))
				d := app.engine.Screen(context.Background(), "555-0100")
				assert.False(t, d.Block)
				assert.Equal(t, domain.ReasonUnsupported, d.Reason)
				assert.Zero(t, app.bridge.GetBlockedCount())
			},
		},
		{
			name:    "bad timezone",
			mutate:  func(cfg *config.AppConfig) { cfg.Screening.Timezone = "Nowhere/Special" },
			wantErr: true,
		},
		{
			name:    "bad role",
			mutate:  func(cfg *config.AppConfig) { cfg.Platform.Role = "granted" },
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(cfg)
			app, err := buildApplication(cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			t.Cleanup(func() { _ = app.store.Close() })
			if tt.check != nil {
				tt.check(t, app)
			}
		})
	}
}

func TestApplication_ReloadContacts(t *testing.T) {
	cfg := testConfig(t)
	app, err := buildApplication(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.store.Close() })

	require.True(t, app.bridge.SetBlockingEnabled(true))
	require.True(t, app.bridge.SetSchedule(0, 0, 23, 59, "0,1,2,3,4,5,6"))
	ctx := context.Background()

	assert.True(t, app.engine.Screen(ctx, "555-0199").Block)

	require.NoError(t, os.WriteFile(filepath.Join(cfg.Contacts.Dir, "work.txt"), []byte("555-0199\n"), 0o644))
	app.ReloadContacts()
	assert.False(t, app.engine.Screen(ctx, "555-0199").Block, "cached negative dropped on reload")
}

func TestApplication_ReloadWithoutDirectory(t *testing.T) {
	cfg := testConfig(t)
	cfg.Contacts.Dir = ""
	app, err := buildApplication(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.store.Close() })
	assert.NotPanics(t, app.ReloadContacts)
}
