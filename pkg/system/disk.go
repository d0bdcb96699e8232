package system

import (
	"fmt"
	"os"
	"path/filepath"
)

// DiskUsage describes the file system holding a path
type DiskUsage struct {
	Path      string `json:"path"`
	Total     uint64 `json:"total"`
	Used      uint64 `json:"used"`
	Free      uint64 `json:"free"`
	Available uint64 `json:"available"`
}

// UsedPercent returns the used share of the volume
func (d *DiskUsage) UsedPercent() float64 {
	if d.Total == 0 {
		return 0
	}
	return float64(d.Used) / float64(d.Total) * 100
}

// CheckDiskSpace reports usage for the volume holding path.
// A path that does not exist yet is measured at its nearest existing parent.
func CheckDiskSpace(path string) (*DiskUsage, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	probe := absPath
	for {
		if _, err := os.Stat(probe); err == nil {
			break
		}
		parent := filepath.Dir(probe)
		if parent == probe {
			return nil, fmt.Errorf("no existing parent for %s", absPath)
		}
		probe = parent
	}

	usage, err := getDiskUsage(probe)
	if err != nil {
		return nil, err
	}
	usage.Path = absPath
	return usage, nil
}
