package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Hushmonday/Echo-hackathon/pkg/ai"
	"github.com/Hushmonday/Echo-hackathon/pkg/backend"
)

const (
	KeyBackendURL   = "backend_url"
	KeyOpenAIAPIKey = "open_ai_api_key"
	KeyOpenAIModel  = "openai_model"
	KeyVerbose      = "verbose"
	KeyNoPlayback   = "no_playback"
)

type Config struct {
	BackendURL   string
	OpenAIAPIKey string
	OpenAIModel  string
	Verbose      bool
	NoPlayback   bool
}

// Load reads .env (optional), the environment and the given flags, in increasing priority.
// Environment keys are ECHO_<KEY>, except OPEN_AI_API_KEY which is shared with other tools.
func Load(v *viper.Viper, flags *pflag.FlagSet, envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		log.Debug().Err(err).Msg("Cannot load .env file")
	}

	v.SetDefault(KeyBackendURL, backend.DefaultBaseURL)
	v.SetDefault(KeyOpenAIModel, ai.DefaultModel)
	v.SetDefault(KeyVerbose, false)
	v.SetDefault(KeyNoPlayback, false)

	v.SetEnvPrefix("ECHO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv(KeyOpenAIAPIKey, "ECHO_OPEN_AI_API_KEY", "OPEN_AI_API_KEY"); err != nil {
		return Config{}, err
	}

	if flags != nil {
		for key, flag := range map[string]string{
			KeyBackendURL:   "backend-url",
			KeyOpenAIAPIKey: "openai-api-key",
			KeyOpenAIModel:  "openai-model",
			KeyVerbose:      "verbose",
			KeyNoPlayback:   "no-playback",
		} {
			if f := flags.Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, err
				}
			}
		}
	}

	return Config{
		BackendURL:   v.GetString(KeyBackendURL),
		OpenAIAPIKey: v.GetString(KeyOpenAIAPIKey),
		OpenAIModel:  v.GetString(KeyOpenAIModel),
		Verbose:      v.GetBool(KeyVerbose),
		NoPlayback:   v.GetBool(KeyNoPlayback),
	}, nil
}
