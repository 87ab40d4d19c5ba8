// pkg/report/check_cache.go
// This file provides a caching mechanism for check results

package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// CheckCache collects host reports from concurrent runs
type CheckCache struct {
	mu    sync.RWMutex
	cache map[string]*AsciiDocReport
}

// NewCheckCache creates an empty cache
func NewCheckCache() *CheckCache {
	return &CheckCache{cache: make(map[string]*AsciiDocReport)}
}

// Put stores a host report in the cache
func (c *CheckCache) Put(hostname string, report *AsciiDocReport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[hostname] = report
}

// Get retrieves a host report from the cache
func (c *CheckCache) Get(hostname string) (*AsciiDocReport, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	report, exists := c.cache[hostname]
	return report, exists
}

// Hostnames returns the cached host names, sorted
func (c *CheckCache) Hostnames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.cache))
	for name := range c.cache {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DataPath returns the JSON results file kept next to a report
func DataPath(outputPath string) string {
	return filepath.Join(filepath.Dir(outputPath), ".data", filepath.Base(outputPath)+".json")
}

// SaveCheckResults saves check results to a JSON file in a .data directory
// beside the report
func SaveCheckResults(report *AsciiDocReport) error {
	jsonFile := DataPath(report.OutputPath)
	if err := os.MkdirAll(filepath.Dir(jsonFile), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	jsonData, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal check results: %w", err)
	}

	if err := os.WriteFile(jsonFile, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write check results: %w", err)
	}

	return nil
}

// LoadCheckResults loads the check results saved for a report
func LoadCheckResults(outputPath string) (*AsciiDocReport, error) {
	jsonData, err := os.ReadFile(DataPath(outputPath))
	if err != nil {
		return nil, fmt.Errorf("failed to read check results: %w", err)
	}

	report := &AsciiDocReport{}
	if err := json.Unmarshal(jsonData, report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal check results: %w", err)
	}
	report.OutputPath = outputPath

	return report, nil
}
