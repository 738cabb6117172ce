package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// LoadEnv loads environment variables from an env file if it exists.
// Variables already present in the environment win over file values.
func LoadEnv(filename string) error {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		// env file is optional
		return nil
	}
	return godotenv.Load(filename)
}

// GetRPCEndpoints returns RPC endpoints from the environment, or nil when
// unset.
func GetRPCEndpoints() []string {
	envEndpoints := os.Getenv("RPC_ENDPOINTS")
	if envEndpoints == "" {
		return nil
	}

	endpoints := strings.Split(envEndpoints, ",")
	result := make([]string, 0, len(endpoints))
	for _, endpoint := range endpoints {
		trimmed := strings.TrimSpace(endpoint)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
