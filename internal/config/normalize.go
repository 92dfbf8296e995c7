package config

import "strings"

func orDefault(v, fallback string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return fallback
}

func orDefaultInt(v, fallback int) int {
	if v == 0 {
		return fallback
	}
	return v
}

// trimmed copies input, dropping entries whose key or value is blank.
func trimmed(input map[string]string) map[string]string {
	if input == nil {
		return nil
	}
	out := make(map[string]string, len(input))
	for key, value := range input {
		if k, v := strings.TrimSpace(key), strings.TrimSpace(value); k != "" && v != "" {
			out[k] = v
		}
	}
	return out
}

func normalizeDatabaseConfig(cfg DatabaseRuntimeConfig) DatabaseRuntimeConfig {
	return DatabaseRuntimeConfig{
		DSN:       strings.TrimSpace(cfg.DSN),
		Host:      orDefault(cfg.Host, defaultDBHost),
		Port:      orDefaultInt(cfg.Port, defaultDBPort),
		User:      orDefault(cfg.User, defaultDBUser),
		Password:  orDefault(cfg.Password, defaultDBPassword),
		Name:      orDefault(cfg.Name, defaultDBName),
		Charset:   orDefault(cfg.Charset, defaultDBCharset),
		ParseTime: cfg.ParseTime,
		Loc:       orDefault(cfg.Loc, defaultDBLoc),
		Params:    trimmed(cfg.Params),
	}
}

func normalizeRedisConfig(cfg RedisRuntimeConfig) RedisRuntimeConfig {
	cfg.URL = strings.TrimSpace(cfg.URL)
	if cfg.URL != "" && !strings.Contains(cfg.URL, "://") {
		cfg.URL = "redis://" + cfg.URL
	}
	cfg.Host = strings.TrimSpace(cfg.Host)
	if cfg.URL == "" {
		cfg.Host = orDefault(cfg.Host, defaultRedisHost)
	}
	cfg.Port = orDefaultInt(cfg.Port, defaultRedisPort)
	cfg.Username = strings.TrimSpace(cfg.Username)
	cfg.Password = strings.TrimSpace(cfg.Password)
	if cfg.DB < 0 {
		cfg.DB = defaultRedisDB
	}
	return cfg
}

// normalizeSourceConfig strips trailing slashes and assumes https for bare hosts.
func normalizeSourceConfig(cfg SourceConfig) SourceConfig {
	cfg.URL = strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if cfg.URL != "" && !strings.Contains(cfg.URL, "://") {
		cfg.URL = "https://" + cfg.URL
	}
	cfg.UserAgent = orDefault(cfg.UserAgent, defaultSourceUserAgent)
	return cfg
}

func normalizeStorageConfig(cfg StorageConfig) StorageConfig {
	cfg.Driver = strings.ToLower(orDefault(cfg.Driver, defaultStorageDriver))
	cfg.S3.CustomDomain = strings.TrimRight(cfg.S3.CustomDomain, "/")
	cfg.Local.PublicBaseURL = strings.TrimRight(cfg.Local.PublicBaseURL, "/")
	return cfg
}
