// Package config provides configuration management for IntelliMap.
//
// This package handles loading, validating, and defaulting configuration from
// YAML files with environment variable overrides.
//
// # Configuration Loading
//
// Configuration can be loaded in three ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("intellimap.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("intellimap.yaml")
//
//  3. From defaults and the environment, with no file:
//     cfg, err := config.LoadFromEnv()
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention INTELLIMAP_SECTION_FIELD:
//
//   - INTELLIMAP_AZURE_ENDPOINT overrides azure.endpoint
//   - INTELLIMAP_AZURE_API_KEY overrides azure.api_key
//   - INTELLIMAP_LIMITS_RATE_PER_MINUTE overrides limits.rate.per_minute
//   - INTELLIMAP_PARSING_BLACKLIST is a comma separated word list
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// Configuration is passed explicitly to the components that need it; there
// is no process-wide instance.
package config
