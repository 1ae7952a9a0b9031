package config

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DOCINGEST_"

const maxConfigFileSize = 1024 * 1024 // 1MB

// nested lists the sections whose fields are themselves sections.
var nested = map[string][]string{
	"cache":   {"extraction", "embedding", "query"},
	"engines": {"text", "html", "pdf", "office", "llm"},
}

// Load builds the configuration from defaults, the YAML file at path (if
// path is non-empty), and DOCINGEST_ environment variables, in increasing
// order of precedence. The result is validated.
//
// Environment variables map onto keys by section:
//
//	DOCINGEST_DATA_DIR                      -> data_dir
//	DOCINGEST_FALLBACK_MIN_QUALITY          -> fallback.min_quality
//	DOCINGEST_CACHE_EXTRACTION_TTL_HOURS    -> cache.extraction.ttl_hours
//	DOCINGEST_ENGINES_LLM_ENABLED           -> engines.llm.enabled
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := readConfigFile(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := DefaultConfig()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("config path %s is a directory", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
	}
	return io.ReadAll(io.LimitReader(f, maxConfigFileSize))
}

// envKey maps DOCINGEST_SECTION_FIELD_NAME to section.field_name, and
// DOCINGEST_SECTION_SUB_FIELD to section.sub.field for nested sections.
// Names that match no section map to top-level keys.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, rest, ok := strings.Cut(lower, "_")
	if !ok {
		return lower
	}
	if subs, isNested := nested[section]; isNested {
		if sub, field, ok := strings.Cut(rest, "_"); ok && slices.Contains(subs, sub) {
			return section + "." + sub + "." + field
		}
		return section + "." + rest
	}
	if slices.Contains([]string{"dedup", "fallback", "embedding", "ingest"}, section) {
		return section + "." + rest
	}
	return lower
}
