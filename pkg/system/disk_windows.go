//go:build windows

package system

import (
	"fmt"

	"golang.org/x/sys/windows"
)

func getDiskUsage(path string) (*DiskUsage, error) {
	pathPtr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, fmt.Errorf("failed to convert path to UTF-16: %w", err)
	}

	var freeBytesAvailable, totalBytes, freeBytes uint64
	if err := windows.GetDiskFreeSpaceEx(pathPtr, &freeBytesAvailable, &totalBytes, &freeBytes); err != nil {
		return nil, fmt.Errorf("GetDiskFreeSpaceEx failed: %w", err)
	}

	return &DiskUsage{
		Total:     totalBytes,
		Used:      totalBytes - freeBytes,
		Free:      freeBytes,
		Available: freeBytesAvailable,
	}, nil
}
