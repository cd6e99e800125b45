package helpers

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/shellgate/internal/app"
	configapp "github.com/doeshing/shellgate/internal/application/config"
	"github.com/doeshing/shellgate/internal/domain"
	configinfra "github.com/doeshing/shellgate/internal/infrastructure/config"
)

// GetConfigLoader extracts the config loader from container with error handling
func GetConfigLoader(container *app.Container) (*configinfra.FileLoader, error) {
	if container.ConfigLoader == nil {
		return nil, fmt.Errorf("config loader unavailable")
	}
	return container.ConfigLoader, nil
}

// SaveConfigWithValidation validates and saves configuration, backing up the old file first
func SaveConfigWithValidation(container *app.Container, cfg domain.Config) error {
	loader, err := GetConfigLoader(container)
	if err != nil {
		return err
	}

	if err := configapp.Validate(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	if _, err := os.Stat(loader.Path()); err == nil {
		if _, err := loader.Backup(); err != nil {
			return fmt.Errorf("failed to create configuration backup: %w", err)
		}
	}

	if err := loader.Save(cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	return nil
}

// ParseYAMLValue parses a string value as YAML, falling back to literal string
func ParseYAMLValue(input string) interface{} {
	var parsed interface{}
	if err := yaml.Unmarshal([]byte(input), &parsed); err != nil {
		return input
	}
	return parsed
}

// SetNestedMapValue sets a value in a nested map using a key path.
// Intermediate keys that are missing or not maps are replaced by maps.
func SetNestedMapValue(root map[string]interface{}, keyPath []string, value interface{}) bool {
	if len(keyPath) == 0 {
		return false
	}

	current := root
	for _, key := range keyPath[:len(keyPath)-1] {
		child, isMap := current[key].(map[string]interface{})
		if !isMap {
			child = map[string]interface{}{}
			current[key] = child
		}
		current = child
	}

	current[keyPath[len(keyPath)-1]] = value
	return true
}

// TraverseNestedMap retrieves a value from a nested map using a key path
func TraverseNestedMap(data interface{}, keyPath []string) (interface{}, bool) {
	if len(keyPath) == 0 {
		return data, true
	}
	node, ok := data.(map[string]interface{})
	if !ok {
		return nil, false
	}
	next, exists := node[keyPath[0]]
	if !exists {
		return nil, false
	}
	return TraverseNestedMap(next, keyPath[1:])
}

// ConfigToMap converts cfg to a generic map keyed by its YAML names.
func ConfigToMap(cfg domain.Config) (map[string]interface{}, error) {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	var cfgMap map[string]interface{}
	if err := yaml.Unmarshal(raw, &cfgMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal to map: %w", err)
	}
	return cfgMap, nil
}

// MapToConfig converts a generic map back into a validated domain.Config.
func MapToConfig(cfgMap map[string]interface{}) (domain.Config, error) {
	raw, err := yaml.Marshal(cfgMap)
	if err != nil {
		return domain.Config{}, fmt.Errorf("failed to marshal updated map: %w", err)
	}
	var updated domain.Config
	if err := yaml.Unmarshal(raw, &updated); err != nil {
		return domain.Config{}, fmt.Errorf("failed to unmarshal to Config: %w", err)
	}
	if err := configapp.Validate(updated); err != nil {
		return domain.Config{}, fmt.Errorf("validation failed: %w", err)
	}
	return updated, nil
}
