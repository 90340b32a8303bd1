package configparser

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrNoFilePath = errors.New("no file path provided")

// LoadYamlFile flattens a YAML file into environment variables:
//
//	redis:
//	  quote_ttl: 10m   ->   REDIS_QUOTE_TTL=10m
//
// Variables that are already set win over the file.
func LoadYamlFile(filepath string) error {
	if filepath == "" {
		return ErrNoFilePath
	}

	file, err := os.Open(filepath)
	if err != nil {
		return fmt.Errorf("could not open YAML file: %w", err)
	}
	defer file.Close()

	vars, err := flattenYaml(file)
	if err != nil {
		return err
	}

	for key, value := range vars {
		if _, ok := os.LookupEnv(key); ok {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("could not set env var %s: %w", key, err)
		}
	}

	return nil
}

// flattenYaml decodes nested maps into upper-case keys joined with "_".
// String values go through ${VAR:-default} substitution.
func flattenYaml(r io.Reader) (map[string]string, error) {
	var doc map[string]any
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("error reading YAML file: %w", err)
	}

	vars := make(map[string]string)
	flatten(vars, "", doc)
	return vars, nil
}

func flatten(vars map[string]string, prefix string, node map[string]any) {
	for key, value := range node {
		fullKey := strings.ToUpper(key)
		if prefix != "" {
			fullKey = prefix + "_" + fullKey
		}

		switch v := value.(type) {
		case map[string]any:
			flatten(vars, fullKey, v)
		case nil:
			// empty section
		case string:
			vars[fullKey] = substitute(v)
		case float64:
			vars[fullKey] = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			vars[fullKey] = fmt.Sprint(v)
		}
	}
}

// substitute resolves ${VAR:-default} against the environment.
func substitute(value string) string {
	if !strings.HasPrefix(value, "${") || !strings.HasSuffix(value, "}") {
		return value
	}

	name, def, _ := strings.Cut(value[2:len(value)-1], ":-")
	if env := os.Getenv(strings.TrimSpace(name)); env != "" {
		return env
	}
	return strings.TrimSpace(def)
}
