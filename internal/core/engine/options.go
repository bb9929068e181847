package engine

import "auditor/internal/platform/config"

// FromConfig extracts engine Config from the given config.Conf
func FromConfig(cfg config.Conf) Config {
	ec := cfg.Prefix("ENGINE_")
	return Config{
		Workers: ec.MayInt("WORKERS", 4),
	}
}
