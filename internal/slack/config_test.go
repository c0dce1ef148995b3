package slack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVideolake_Slack_LoadFromEnv(t *testing.T) {
	envVars := []string{
		"SLACK_BOT_TOKEN",
		"SLACK_APP_TOKEN",
		"SLACK_SIGNING_SECRET",
	}

	tests := []struct {
		name            string
		env             map[string]string
		modeFlag        string
		httpAddrFlag    string
		metricsAddrFlag string
		workers         int
		verbose         bool
		enablePprof     bool
		wantErr         bool
		errContains     string
		checkConfig     func(*testing.T, *Config)
	}{
		{
			name:     "socket mode with all required vars",
			env:      map[string]string{"SLACK_BOT_TOKEN": "xoxb-test", "SLACK_APP_TOKEN": "xapp-test"},
			modeFlag: "socket",
			checkConfig: func(t *testing.T, cfg *Config) {
				require.Equal(t, ModeSocket, cfg.Mode)
				require.Equal(t, "xoxb-test", cfg.BotToken)
				require.Equal(t, "xapp-test", cfg.AppToken)
				require.Equal(t, 16, cfg.Workers)
			},
		},
		{
			name:     "http mode with all required vars",
			env:      map[string]string{"SLACK_BOT_TOKEN": "xoxb-test", "SLACK_SIGNING_SECRET": "secret"},
			modeFlag: "http",
			checkConfig: func(t *testing.T, cfg *Config) {
				require.Equal(t, ModeHTTP, cfg.Mode)
				require.Equal(t, "secret", cfg.SigningSecret)
				require.Empty(t, cfg.AppToken)
			},
		},
		{
			name: "auto-detect socket mode",
			env:  map[string]string{"SLACK_BOT_TOKEN": "xoxb-test", "SLACK_APP_TOKEN": "xapp-test"},
			checkConfig: func(t *testing.T, cfg *Config) {
				require.Equal(t, ModeSocket, cfg.Mode)
			},
		},
		{
			name: "auto-detect http mode",
			env:  map[string]string{"SLACK_BOT_TOKEN": "xoxb-test", "SLACK_SIGNING_SECRET": "secret"},
			checkConfig: func(t *testing.T, cfg *Config) {
				require.Equal(t, ModeHTTP, cfg.Mode)
			},
		},
		{
			name:        "missing bot token",
			env:         map[string]string{"SLACK_APP_TOKEN": "xapp-test"},
			modeFlag:    "socket",
			wantErr:     true,
			errContains: "SLACK_BOT_TOKEN is required",
		},
		{
			name:        "missing app token for socket mode",
			env:         map[string]string{"SLACK_BOT_TOKEN": "xoxb-test"},
			modeFlag:    "socket",
			wantErr:     true,
			errContains: "SLACK_APP_TOKEN is required for socket mode",
		},
		{
			name:        "missing signing secret for http mode",
			env:         map[string]string{"SLACK_BOT_TOKEN": "xoxb-test"},
			modeFlag:    "http",
			wantErr:     true,
			errContains: "SLACK_SIGNING_SECRET is required for HTTP mode",
		},
		{
			name:        "invalid mode",
			env:         map[string]string{"SLACK_BOT_TOKEN": "xoxb-test", "SLACK_APP_TOKEN": "xapp-test"},
			modeFlag:    "invalid",
			wantErr:     true,
			errContains: "mode must be 'socket' or 'http'",
		},
		{
			name:            "flags are set correctly",
			env:             map[string]string{"SLACK_BOT_TOKEN": "xoxb-test", "SLACK_APP_TOKEN": "xapp-test"},
			modeFlag:        "socket",
			httpAddrFlag:    "0.0.0.0:3000",
			metricsAddrFlag: "0.0.0.0:8080",
			workers:         4,
			verbose:         true,
			enablePprof:     true,
			checkConfig: func(t *testing.T, cfg *Config) {
				require.Equal(t, "0.0.0.0:3000", cfg.HTTPAddr)
				require.Equal(t, "0.0.0.0:8080", cfg.MetricsAddr)
				require.Equal(t, 4, cfg.Workers)
				require.True(t, cfg.Verbose)
				require.True(t, cfg.EnablePprof)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Don't run subtests in parallel - they modify shared environment variables
			for _, key := range envVars {
				t.Setenv(key, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := LoadFromEnv(tt.modeFlag, tt.httpAddrFlag, tt.metricsAddrFlag, tt.workers, tt.verbose, tt.enablePprof)

			if tt.wantErr {
				require.Error(t, err)
				if tt.errContains != "" {
					require.Contains(t, err.Error(), tt.errContains)
				}
			} else {
				require.NoError(t, err)
				require.NotNil(t, cfg)
				if tt.checkConfig != nil {
					tt.checkConfig(t, cfg)
				}
			}
		})
	}
}
