// Package urllist builds the list of URLs a run fetches.
package urllist

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// File is the YAML layout accepted by Load:
//
//	urls:
//	  - http://example.com/
//	  - http://example.org/
type File struct {
	URLs []string `yaml:"urls"`
}

// Build returns a new list with blank entries dropped. A single URL is
// duplicated, so that every strategy always issues more than one request.
func Build(inputs []string) []string {
	urls := make([]string, 0, len(inputs)+1)
	for _, in := range inputs {
		if s := strings.TrimSpace(in); s != "" {
			urls = append(urls, s)
		}
	}

	if len(urls) == 1 {
		urls = append(urls, urls[0])
	}
	return urls
}

// Load reads URLs from a YAML file. An empty file yields no URLs.
func Load(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read url list: %w", err)
	}

	var f File
	if len(data) == 0 {
		return nil, nil
	}

	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse url list %s: %w", path, err)
	}
	return f.URLs, nil
}
