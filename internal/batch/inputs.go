package batch

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Prompt is one line of a prompt file.
type Prompt struct {
	Source string `json:"source"`
	Line   int    `json:"line"`
	Text   string `json:"text"`
}

// ExpandPatterns resolves glob patterns (with ** support) to a sorted,
// de-duplicated list of files. A pattern that names an existing file is
// used as-is. A pattern that matches nothing is an error.
func ExpandPatterns(patterns []string) ([]string, error) {
	seen := map[string]bool{}
	var files []string
	for _, pattern := range patterns {
		if info, err := os.Stat(pattern); err == nil && !info.IsDir() {
			if !seen[pattern] {
				seen[pattern] = true
				files = append(files, pattern)
			}
			continue
		}

		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", pattern)
		}
		for _, m := range matches {
			m = filepath.Clean(m)
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// ReadPrompts reads one prompt per line. Blank lines and lines starting
// with # are skipped.
func ReadPrompts(path string) ([]Prompt, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening prompt file: %w", err)
	}
	defer f.Close()

	var prompts []Prompt
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		prompts = append(prompts, Prompt{Source: path, Line: line, Text: text})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return prompts, nil
}

// LoadPrompts expands patterns and reads every matching prompt file.
func LoadPrompts(patterns []string) ([]Prompt, error) {
	files, err := ExpandPatterns(patterns)
	if err != nil {
		return nil, err
	}
	var all []Prompt
	for _, f := range files {
		p, err := ReadPrompts(f)
		if err != nil {
			return nil, err
		}
		all = append(all, p...)
	}
	return all, nil
}
