package internal

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		BadgerFilepath: "/tmp/chat-ai/badger",
		BlugeFilepath:  "/tmp/chat-ai/bluge",
		LogLevel:       "INFO",
		OpenAIAPIKey:   "sk-test",
		OpenAIModel:    "gpt-4o-mini",
		WordWrap:       100,
	}
}

func Test_Validate_Accepts_Complete_Config(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func Test_Validate_Rejects_Bad_LogLevel(t *testing.T) {
	config := validConfig()
	config.LogLevel = "LOUD"
	require.Error(t, config.Validate())
}

func Test_Validate_Rejects_Bad_BaseURL(t *testing.T) {
	config := validConfig()
	config.OpenAIBaseURL = "not a url"
	require.Error(t, config.Validate())
}

func Test_Validate_Rejects_NonPositive_HistoryLimit(t *testing.T) {
	config := validConfig()
	zero := 0
	config.HistoryLimit = &zero
	require.Error(t, config.Validate())
}
