package models

import (
	"fmt"
	"strings"
)

// Platform is a native target of the template project
type Platform string

const (
	PlatformAndroid Platform = "android"
	PlatformIOS     Platform = "ios"
)

// AllPlatforms lists platforms in the order they are built
var AllPlatforms = []Platform{PlatformAndroid, PlatformIOS}

// BuildMode selects debug or signed release builds
type BuildMode string

const (
	ModeDebug   BuildMode = "debug"
	ModeRelease BuildMode = "release"
)

// ParseBuildMode accepts debug/release in any case
func ParseBuildMode(s string) (BuildMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return ModeDebug, nil
	case "release":
		return ModeRelease, nil
	default:
		return "", fmt.Errorf("unknown build mode %q (want debug or release)", s)
	}
}

// PlatformSet holds the enabled platforms
type PlatformSet map[Platform]bool

// NewPlatformSet creates a set from the given platforms
func NewPlatformSet(platforms ...Platform) PlatformSet {
	set := make(PlatformSet, len(platforms))
	for _, p := range platforms {
		set[p] = true
	}
	return set
}

// Has reports whether p is enabled
func (s PlatformSet) Has(p Platform) bool {
	return s[p]
}

// Ordered returns enabled platforms in build order
func (s PlatformSet) Ordered() []Platform {
	var out []Platform
	for _, p := range AllPlatforms {
		if s[p] {
			out = append(out, p)
		}
	}
	return out
}

// ArtifactKind classifies a build output
type ArtifactKind string

const (
	KindPackage  ArtifactKind = "package"
	KindBundle   ArtifactKind = "bundle"
	KindArchive  ArtifactKind = "archive"
	KindAppImage ArtifactKind = "app-image"
)

// BuildArtifact is a collected build output
type BuildArtifact struct {
	Platform   Platform     `json:"platform"`
	Mode       BuildMode    `json:"mode"`
	Kind       ArtifactKind `json:"kind"`
	SourcePath string       `json:"source_path"`
	OutputPath string       `json:"output_path"`
	Size       int64        `json:"size"`
	SHA256     string       `json:"sha256,omitempty"`
}
