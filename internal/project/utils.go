package project

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DefaultDir is where the CLI keeps project documents.
const DefaultDir = "projects"

// GeneratePath creates a timestamped project filename
func GeneratePath(name string) string {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	clean := strings.ReplaceAll(name, " ", "_")
	return filepath.Join(DefaultDir, fmt.Sprintf("%s_%s.yaml", clean, timestamp))
}

// FindLatest finds the most recent project file in the projects directory
func FindLatest() (string, error) {
	entries, err := os.ReadDir(DefaultDir)
	if err != nil {
		return "", fmt.Errorf("failed to read projects directory: %w", err)
	}

	var projects []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".yaml") {
			projects = append(projects, filepath.Join(DefaultDir, entry.Name()))
		}
	}

	if len(projects) == 0 {
		return "", fmt.Errorf("no project files found in %s", DefaultDir)
	}

	// Sort by modification time (newest first)
	sort.Slice(projects, func(i, j int) bool {
		infoI, _ := os.Stat(projects[i])
		infoJ, _ := os.Stat(projects[j])
		return infoI.ModTime().After(infoJ.ModTime())
	})

	return projects[0], nil
}
