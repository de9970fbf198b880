package internal

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	BadgerFilepath string `env:"BADGER_FILEPATH,required=true" validate:"required"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH,required=true" validate:"required"`
	LogLevel       string `env:"LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR"`

	OpenAIAPIKey  string `env:"OPENAI_API_KEY,required=true" validate:"required"`
	OpenAIModel   string `env:"OPENAI_MODEL,default=gpt-4o-mini" validate:"required"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL" validate:"omitempty,url"`

	// HistoryLimit caps how many conversations the listing shows. Nil means
	// unlimited; the store itself is never truncated.
	HistoryLimit *int `env:"HISTORY_LIMIT" validate:"omitempty,gt=0"`
	WordWrap     int  `env:"WORD_WRAP,default=100" validate:"gt=0"`
}

// Validate runs the struct rules that go-env tags cannot express.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
