package configutil

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

func splitExt(f string) (string, string) {
	for i := len(f) - 1; i >= 0; i-- {
		if f[i] == '.' {
			return f[0:i], f[i+1:]
		}
	}
	return f, ""
}

// layer decodes data over out, fields data leaves unset keep their value.
func layer[T any](out *T, data []byte, source string) error {
	var override T
	err := json5.Unmarshal(data, &override)
	if err != nil {
		return fmt.Errorf("%s: %w", source, err)
	}
	err = mergo.Merge(out, override, mergo.WithOverride)
	if err != nil {
		return fmt.Errorf("%s: %w", source, err)
	}
	return nil
}

// localPath is the override file next to name, "a/b.json5" gives
// "a/b.local.json5".
func localPath(name string) string {
	prefix, ext := splitExt(filepath.Base(name))
	return filepath.Join(filepath.Dir(name), fmt.Sprintf("%s.local.%s", prefix, ext))
}

// ReadConfig reads a json5 configuration file, `name` should come with a
// file extension, the local override is found by inserting ".local" before
// it. Files are merged in this order, later ones win:
// 1. <name>.<ext>
// 2. <name>.local.<ext>
func ReadConfig[T any](name string) (T, error) {
	var out T
	found := false

	for _, path := range []string{name, localPath(name)} {
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return out, err
		}
		if len(data) == 0 {
			continue
		}
		err = layer(&out, data, path)
		if err != nil {
			return out, err
		}
		if found {
			slog.Info("merging config with local overrides", "local", path)
		}
		found = true
	}

	if !found {
		return out, os.ErrNotExist
	}
	return out, nil
}

// ReadConfig but it recursively goes up the filesystem until the root
// to find a configuration file matching the name.
func ReadRecursively[T any](name string) (T, error) {
	var defaultOut T

	root, err := filepath.Abs("/")
	if err != nil {
		return defaultOut, err
	}
	current, err := os.Getwd()
	if err != nil {
		return defaultOut, err
	}

	for current != root {
		config, err := ReadConfig[T](filepath.Join(current, name))
		if errors.Is(err, os.ErrNotExist) {
			current = filepath.Dir(current)
			continue
		}
		if err != nil {
			return defaultOut, err
		}
		return config, nil
	}

	return defaultOut, os.ErrNotExist
}

// EnvName is the environment variable holding json5 overrides for the
// config called name, "fimfiction.json5" gives FIMFICTION_CONFIG.
func EnvName(name string) string {
	prefix, _ := splitExt(filepath.Base(name))
	prefix = strings.Map(func(r rune) rune {
		if r == '-' || r == '.' {
			return '_'
		}
		return r
	}, prefix)
	return strings.ToUpper(prefix) + "_CONFIG"
}

// Load reads the config at path if one is given, otherwise it searches for
// name like ReadRecursively. The document in the EnvName(name) variable is
// merged last. Without any of them the zero T is returned together with
// os.ErrNotExist so callers can fall back to defaults.
func Load[T any](path, name string) (T, error) {
	var out T
	var err error
	if path != "" {
		out, err = ReadConfig[T](path)
	} else {
		out, err = ReadRecursively[T](name)
	}
	missing := errors.Is(err, os.ErrNotExist)
	if err != nil && !missing {
		return out, err
	}

	env := EnvName(name)
	overrides := os.Getenv(env)
	if overrides == "" {
		return out, err
	}
	if err := layer(&out, []byte(overrides), env); err != nil {
		return out, err
	}
	return out, nil
}
