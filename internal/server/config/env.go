package config

import "github.com/kelseyhightower/envconfig"

// parseEnv overlays variables that are present in the environment (a .env
// file is loaded into it by the binary at startup). Unset variables leave
// the current values untouched. Malformed values panic, like the other loaders.
func parseEnv(config *Config) {
	if err := envconfig.Process("", config); err != nil {
		panic(err)
	}
}
