// Package appconf holds the application configuration: the HTTP server
// settings and the YAML run file describing inputs, indexing, line building,
// turnaround detection and exports.
package appconf

import (
	"fmt"
	"strings"
)

type Environment int

const (
	Development Environment = iota
	Test
	Production
)

func (e Environment) String() string {
	switch e {
	case Test:
		return "test"
	case Production:
		return "production"
	default:
		return "development"
	}
}

// EnvFlagToEnvironment maps the -env flag value to an Environment.
func EnvFlagToEnvironment(env string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "", "development", "dev":
		return Development, nil
	case "test":
		return Test, nil
	case "production", "prod":
		return Production, nil
	default:
		return Development, fmt.Errorf("unknown environment %q", env)
	}
}

// Config holds the settings of the HTTP server.
type Config struct {
	Port    int
	Env     Environment
	ApiKeys []string
	// ExemptApiKeys are not rate limited.
	ExemptApiKeys []string
	Verbose       bool
	// RateLimit is the number of requests per second allowed per API key.
	RateLimit int
}

// ParseAPIKeys splits a comma separated key list, dropping blanks.
func ParseAPIKeys(apiKeysFlag string) []string {
	keys := []string{}
	for _, key := range strings.Split(apiKeysFlag, ",") {
		if key = strings.TrimSpace(key); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}
