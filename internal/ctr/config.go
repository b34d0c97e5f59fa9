package ctr

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config struct
type Config struct {
	Values map[string]string
}

// configPath returns the config file location: $CARGO_3DS_CONFIG when set,
// otherwise <user config dir>/cargo-3ds/config.
func configPath() string {
	if p := os.Getenv(ConfigEnv); p != "" {
		return p
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "cargo-3ds", "config")
}

// loadConfig reads a key=value file and applies defaults. A missing file
// is fine: the driver works with an empty config.
func loadConfig(path string) (*Config, error) {
	cfg := &Config{Values: make(map[string]string)}

	file, err := os.Open(path)
	if err == nil {
		defer file.Close()
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}
			key := strings.TrimSpace(parts[0])
			val := strings.TrimSpace(parts[1])
			val = strings.Trim(val, `"'`)
			cfg.Values[key] = val
		}
		if err := scanner.Err(); err != nil {
			return cfg, err
		}
	}

	return cfg, nil
}

// mergeEnvOverrides folds CARGO_3DS_* environment variables over the file
// values, stripped of the prefix (CARGO_3DS_LOG_DIR overrides LOG_DIR).
// The config selector itself is not a config value.
func mergeEnvOverrides(cfg *Config) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "CARGO_3DS_") {
			parts := strings.SplitN(env, "=", 2)
			if len(parts) != 2 {
				continue
			}
			key := strings.TrimPrefix(parts[0], "CARGO_3DS_")
			if key == "" || parts[0] == ConfigEnv {
				continue
			}
			cfg.Values[key] = parts[1]
		}
	}
}

// initConfig materializes the config map into the package globals the
// verbs consume. The build pipeline itself needs none of this; an empty
// config leaves its behavior untouched.
func initConfig(cfg *Config) {
	Debug = cfg.Values["DEBUG"] == "1"

	logCapture = cfg.Values["LOG"] == "1"

	logDir = cfg.Values["LOG_DIR"]
	if logDir == "" {
		logDir = "./target/" + targetTriple + "/logs"
	}

	logKeep = 5
	if keep := cfg.Values["LOG_KEEP"]; keep != "" {
		if n, err := strconv.Atoi(keep); err == nil && n > 0 {
			logKeep = n
		}
	}

	distCompr = cfg.Values["DIST_FORMAT"]
	switch distCompr {
	case "gz", "zst":
	case "":
		distCompr = "gz"
	default:
		colWarn.Printf("Unknown DIST_FORMAT %q, using gz\n", distCompr)
		distCompr = "gz"
	}
}
