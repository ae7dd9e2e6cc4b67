package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"lcm-hq/intellimap/pkg/cli"
	"lcm-hq/intellimap/pkg/records"
)

// stdinName labels input read from standard input.
const stdinName = "-"

// inputSource is one named input: a file path or stdin.
type inputSource struct {
	Name string
	Data []byte
}

// readInputs reads every path. No paths, or "-", reads stdin.
func readInputs(paths []string, stdin io.Reader) ([]inputSource, error) {
	if len(paths) == 0 {
		paths = []string{stdinName}
	}
	out := make([]inputSource, 0, len(paths))
	for _, p := range paths {
		src, err := readInput(p, stdin)
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, nil
}

func readInput(path string, stdin io.Reader) (inputSource, error) {
	if path == stdinName {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return inputSource{}, fmt.Errorf("read stdin: %w", err)
		}
		return inputSource{Name: stdinName, Data: data}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return inputSource{}, fmt.Errorf("read input: %w", err)
	}
	return inputSource{Name: path, Data: data}, nil
}

// rawInput converts a source into mapper input. With structured set, JSON
// sources are decoded into mappings; otherwise the text goes through format
// detection, which keeps key order.
func rawInput(src inputSource, structured bool) (records.RawInput, error) {
	if !structured || !json.Valid(bytes.TrimSpace(src.Data)) {
		return records.FromText(string(src.Data)), nil
	}
	var v any
	if err := json.Unmarshal(src.Data, &v); err != nil {
		return records.RawInput{}, fmt.Errorf("%s: %w", src.Name, err)
	}
	in, skipped, err := records.FromValue(v)
	if err != nil {
		return records.RawInput{}, fmt.Errorf("%s: %w", src.Name, err)
	}
	if skipped > 0 {
		slog.Warn("skipped non-object array elements", "input", src.Name, "skipped", skipped)
	}
	return in, nil
}

// loadTargets merges --target values with the entries of the --targets
// file. YAML and JSON files hold a list of strings; any other file has one
// entry per line, with blank lines and # comments ignored.
func loadTargets(file string, inline []string) ([]string, error) {
	targets := append([]string(nil), inline...)
	if file == "" {
		if len(targets) == 0 {
			return nil, cli.NewConfigError("targets", "provide --targets or at least one --target")
		}
		return targets, nil
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, cli.NewConfigError("targets", err.Error())
	}

	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml", ".json":
		var list []string
		if err := yaml.Unmarshal(data, &list); err != nil {
			return nil, cli.NewConfigError("targets", fmt.Sprintf("%s: %v", file, err))
		}
		targets = append(targets, list...)
	default:
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			targets = append(targets, line)
		}
		if err := scanner.Err(); err != nil {
			return nil, cli.NewConfigError("targets", err.Error())
		}
	}

	if len(targets) == 0 {
		return nil, cli.NewConfigError("targets", fmt.Sprintf("%s has no entries", file))
	}
	return targets, nil
}

// loadPrompt returns --prompt, or the contents of --prompt-file.
func loadPrompt(prompt, file string) (string, error) {
	if prompt != "" && file != "" {
		return "", cli.NewConfigError("prompt", "use either --prompt or --prompt-file, not both")
	}
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", cli.NewConfigError("prompt-file", err.Error())
		}
		prompt = string(data)
	}
	if strings.TrimSpace(prompt) == "" {
		return "", cli.NewConfigError("prompt", "a prompt is required")
	}
	return prompt, nil
}
