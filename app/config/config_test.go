package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := &Config{}
	cfg.Telegram.Token = "1234567890:TEST"
	cfg.Dialogue.Length = 15
	cfg.Engine.BaseURL = "http://localhost:5001"

	return cfg
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	cfg := validConfig()
	cfg.ApplyDefaults()

	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsMissingToken(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.Token = ""
	cfg.ApplyDefaults()

	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsNonPositiveDialogueLength(t *testing.T) {
	for _, length := range []int{0, -3} {
		cfg := validConfig()
		cfg.Dialogue.Length = length
		cfg.ApplyDefaults()

		assert.Error(t, cfg.Validate(), "length %d", length)
	}
}

func TestValidateRejectsMissingEngineURL(t *testing.T) {
	cfg := validConfig()
	cfg.Engine.BaseURL = ""
	cfg.ApplyDefaults()

	assert.Error(t, cfg.Validate())
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig()
	cfg.ApplyDefaults()

	require.NotEmpty(t, cfg.Dialogue.Opener)
	require.NotEmpty(t, cfg.Dialogue.ScriptedReply)
	require.NotEmpty(t, cfg.Dialogue.ClosingNotice)
	assert.Equal(t, "_FINISHED_:", cfg.Dialogue.FinishMarkerPrefix)
	assert.Equal(t, 30*time.Second, cfg.Engine.Timeout)
	assert.Equal(t, ":8080", cfg.Web.Addr)
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := validConfig()
	cfg.Dialogue.Opener = "やあ"
	cfg.Web.Addr = ":9090"
	cfg.ApplyDefaults()

	assert.Equal(t, "やあ", cfg.Dialogue.Opener)
	assert.Equal(t, ":9090", cfg.Web.Addr)
}
