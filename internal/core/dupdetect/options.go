package dupdetect

import "auditor/internal/platform/config"

// FromConfig extracts detector Config from the given config.Conf
func FromConfig(cfg config.Conf) Config {
	dc := cfg.Prefix("DUP_")
	return Config{
		Threshold:  dc.MayFloat64("THRESHOLD", 0.8),
		MaxResults: dc.MayInt("MAX_RESULTS", 5),
	}
}
