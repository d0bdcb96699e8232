package system

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// DependencyStatus represents the status of a dependency
type DependencyStatus struct {
	Name        string    `json:"name"`
	Required    bool      `json:"required"`
	Available   bool      `json:"available"`
	Version     string    `json:"version"`
	Path        string    `json:"path"`
	UsedBy      []string  `json:"used_by"`
	LastChecked time.Time `json:"last_checked"`
	Error       string    `json:"error,omitempty"`
}

// Resolver is the lookup consumed by the credential store and build orchestrator
type Resolver interface {
	CheckDependency(name string) DependencyStatus
	GetInstallInstructions(name string) []string
}

// DependencyManager manages system dependencies
type DependencyManager interface {
	Resolver
	CheckForCommand(command string) []DependencyStatus
	CheckAll() map[string]DependencyStatus
	Names() []string
	ClearCache()
	SetCacheTTL(duration time.Duration)
}

// DefaultDependencyManager is the default implementation
type DefaultDependencyManager struct {
	definitions map[string]DependencyDefinition
	cache       map[string]DependencyStatus
	cacheMu     sync.RWMutex
	cacheTTL    time.Duration
}

// NewDependencyManager creates a new dependency manager over the built-in tools
func NewDependencyManager() DependencyManager {
	return NewDependencyManagerWith(dependencies)
}

// NewDependencyManagerWith creates a dependency manager over custom definitions
func NewDependencyManagerWith(definitions map[string]DependencyDefinition) *DefaultDependencyManager {
	return &DefaultDependencyManager{
		definitions: definitions,
		cache:       make(map[string]DependencyStatus),
		cacheTTL:    5 * time.Minute,
	}
}

// Dependency definitions
var dependencies = map[string]DependencyDefinition{
	"flutter": {
		Name:        "flutter",
		Required:    true,
		UsedBy:      []string{"rebrand (android)", "rebrand (ios)"},
		Description: "Flutter SDK - builds the template for every platform",
		Executables: []string{"flutter"},
		CommonPaths: getCommonFlutterPaths(),
		VersionArgs: []string{"--version"},
	},
	"keytool": {
		Name:        "keytool",
		Required:    false,
		UsedBy:      []string{"rebrand --mode release (first android run)"},
		Description: "Java keytool - generates the Android upload keystore",
		Executables: []string{"keytool"},
		CommonPaths: getCommonJavaPaths("keytool"),
		// keytool has no version flag; finding it is enough
	},
	"xcodebuild": {
		Name:        "xcodebuild",
		Required:    false,
		UsedBy:      []string{"rebrand --mode release (ios)"},
		Description: "Xcode command line tools - archives and exports the iOS app",
		Executables: []string{"xcodebuild"},
		CommonPaths: []string{"/usr/bin/xcodebuild", "/Applications/Xcode.app/Contents/Developer/usr/bin/xcodebuild"},
		VersionArgs: []string{"-version"},
	},
	"pod": {
		Name:        "pod",
		Required:    false,
		UsedBy:      []string{"rebrand --mode release (ios)"},
		Description: "CocoaPods - installs iOS native dependencies",
		Executables: []string{"pod"},
		CommonPaths: []string{"/usr/local/bin/pod", "/opt/homebrew/bin/pod"},
		VersionArgs: []string{"--version"},
	},
}

// DependencyDefinition defines how to check for a dependency
type DependencyDefinition struct {
	Name        string
	Required    bool
	UsedBy      []string
	Description string
	Executables []string
	CommonPaths []string
	VersionArgs []string
}

// CheckDependency checks the status of a specific dependency
func (dm *DefaultDependencyManager) CheckDependency(name string) DependencyStatus {
	// Check cache first
	dm.cacheMu.RLock()
	if cached, exists := dm.cache[name]; exists {
		if time.Since(cached.LastChecked) < dm.cacheTTL {
			dm.cacheMu.RUnlock()
			return cached
		}
	}
	dm.cacheMu.RUnlock()

	var status DependencyStatus
	if def, exists := dm.definitions[name]; exists {
		status = dm.checkDependencyActual(def)
	} else {
		status = lookupExecutable(name)
	}

	dm.cacheMu.Lock()
	dm.cache[name] = status
	dm.cacheMu.Unlock()

	return status
}

// checkDependencyActual performs the actual dependency check
func (dm *DefaultDependencyManager) checkDependencyActual(def DependencyDefinition) DependencyStatus {
	status := DependencyStatus{
		Name:        def.Name,
		Required:    def.Required,
		UsedBy:      def.UsedBy,
		Available:   false,
		LastChecked: time.Now(),
	}

	for _, executable := range def.Executables {
		// First try PATH
		if path, err := exec.LookPath(executable); err == nil {
			if version := dm.getToolVersion(path, def.VersionArgs); version != "" {
				status.Available = true
				status.Path = path
				status.Version = version
				return status
			}
		}

		// Then try common paths
		for _, commonPath := range def.CommonPaths {
			candidates := []string{commonPath}
			if strings.Contains(commonPath, "*") {
				candidates = dm.expandWildcardPath(commonPath)
			}
			for _, candidate := range candidates {
				if _, err := os.Stat(candidate); err != nil {
					continue
				}
				if version := dm.getToolVersion(candidate, def.VersionArgs); version != "" {
					status.Available = true
					status.Path = candidate
					status.Version = version
					return status
				}
			}
		}
	}

	status.Error = fmt.Sprintf("%s not found in PATH or common locations", def.Name)
	return status
}

// lookupExecutable resolves a tool without a built-in definition, such as one
// named by a build command override. A relative path like ./gradlew is kept as
// is and resolved against the command's working directory when it runs.
func lookupExecutable(name string) DependencyStatus {
	status := DependencyStatus{Name: name, LastChecked: time.Now()}

	if strings.ContainsRune(name, '/') || strings.ContainsRune(name, filepath.Separator) {
		if !filepath.IsAbs(name) {
			status.Available = true
			status.Path = name
			status.Version = "unknown"
			return status
		}
	}

	path, err := exec.LookPath(name)
	if err != nil {
		status.Error = "Unknown dependency"
		return status
	}
	status.Available = true
	status.Path = path
	status.Version = "unknown"
	return status
}

// getToolVersion gets the version of a tool
func (dm *DefaultDependencyManager) getToolVersion(toolPath string, versionArgs []string) string {
	if len(versionArgs) == 0 {
		return "unknown"
	}

	cmd := exec.Command(toolPath, versionArgs...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return ""
	}

	// Extract first line as version
	for _, line := range strings.Split(string(output), "\n") {
		if version := strings.TrimSpace(line); version != "" {
			return version
		}
	}

	return "unknown"
}

// expandWildcardPath expands paths with wildcards
func (dm *DefaultDependencyManager) expandWildcardPath(pattern string) []string {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return []string{}
	}
	// Newest SDK directories sort last
	sort.Sort(sort.Reverse(sort.StringSlice(matches)))
	return matches
}

// CheckForCommand checks dependencies required for a platform or stage
func (dm *DefaultDependencyManager) CheckForCommand(command string) []DependencyStatus {
	commandDeps := map[string][]string{
		"android":         {"flutter"},
		"android-release": {"flutter", "keytool"},
		"ios":             {"flutter"},
		"ios-release":     {"pod", "flutter", "xcodebuild"},
	}

	var statuses []DependencyStatus
	for _, dep := range commandDeps[command] {
		statuses = append(statuses, dm.CheckDependency(dep))
	}
	return statuses
}

// CheckAll checks all known dependencies
func (dm *DefaultDependencyManager) CheckAll() map[string]DependencyStatus {
	result := make(map[string]DependencyStatus)
	for name := range dm.definitions {
		result[name] = dm.CheckDependency(name)
	}
	return result
}

// Names returns the known dependency names in sorted order
func (dm *DefaultDependencyManager) Names() []string {
	names := make([]string, 0, len(dm.definitions))
	for name := range dm.definitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetInstallInstructions returns installation instructions for a dependency
func (dm *DefaultDependencyManager) GetInstallInstructions(name string) []string {
	switch name {
	case "flutter":
		return getFlutterInstallInstructions()
	case "keytool":
		return getJavaInstallInstructions()
	case "xcodebuild":
		return []string{
			"Install Xcode from the Mac App Store",
			"Then run: sudo xcode-select --install",
		}
	case "pod":
		return []string{
			"Homebrew: brew install cocoapods",
			"RubyGems: sudo gem install cocoapods",
		}
	default:
		return []string{fmt.Sprintf("Install %s and make sure it is on PATH", name)}
	}
}

// ClearCache clears the dependency cache
func (dm *DefaultDependencyManager) ClearCache() {
	dm.cacheMu.Lock()
	defer dm.cacheMu.Unlock()
	dm.cache = make(map[string]DependencyStatus)
}

// SetCacheTTL sets the cache time-to-live
func (dm *DefaultDependencyManager) SetCacheTTL(duration time.Duration) {
	dm.cacheTTL = duration
}

// Platform-specific path functions
func getCommonFlutterPaths() []string {
	exe := "flutter"
	if runtime.GOOS == "windows" {
		exe = "flutter.bat"
	}

	var paths []string
	switch runtime.GOOS {
	case "linux":
		paths = []string{"/opt/flutter/bin/flutter", "/snap/bin/flutter", "/usr/local/flutter/bin/flutter"}
	case "darwin":
		paths = []string{"/opt/homebrew/bin/flutter", "/usr/local/bin/flutter"}
	case "windows":
		paths = []string{"C:\\flutter\\bin\\flutter.bat", "C:\\src\\flutter\\bin\\flutter.bat"}
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, "flutter", "bin", exe),
			filepath.Join(home, "development", "flutter", "bin", exe),
			filepath.Join(home, "fvm", "default", "bin", exe),
		)
	}
	return paths
}

func getCommonJavaPaths(toolName string) []string {
	if runtime.GOOS == "windows" {
		toolName += ".exe"
	}

	var paths []string
	if javaHome := os.Getenv("JAVA_HOME"); javaHome != "" {
		paths = append(paths, filepath.Join(javaHome, "bin", toolName))
	}

	switch runtime.GOOS {
	case "linux":
		paths = append(paths,
			"/usr/lib/jvm/*/bin/"+toolName,
			"/opt/android-studio/jbr/bin/"+toolName,
		)
	case "darwin":
		paths = append(paths,
			"/Library/Java/JavaVirtualMachines/*/Contents/Home/bin/"+toolName,
			"/Applications/Android Studio.app/Contents/jbr/Contents/Home/bin/"+toolName,
		)
	case "windows":
		paths = append(paths,
			"C:\\Program Files\\Java\\*\\bin\\"+toolName,
			"C:\\Program Files\\Android\\Android Studio\\jbr\\bin\\"+toolName,
		)
	}
	return paths
}

func getFlutterInstallInstructions() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{
			"Homebrew: brew install --cask flutter",
			"Manual: https://docs.flutter.dev/get-started/install/macos",
		}
	case "windows":
		return []string{
			"Download the SDK from https://docs.flutter.dev/get-started/install/windows",
			"Extract to C:\\src\\flutter and add C:\\src\\flutter\\bin to PATH",
		}
	default:
		return []string{
			"Snap: sudo snap install flutter --classic",
			"Manual: https://docs.flutter.dev/get-started/install/linux",
		}
	}
}

func getJavaInstallInstructions() []string {
	switch runtime.GOOS {
	case "linux":
		return []string{
			"Ubuntu/Debian: sudo apt-get install openjdk-17-jdk-headless",
			"Fedora: sudo dnf install java-17-openjdk-devel",
			"Or point JAVA_HOME at the JDK bundled with Android Studio",
		}
	case "darwin":
		return []string{
			"Homebrew: brew install openjdk@17",
			"Or point JAVA_HOME at the JDK bundled with Android Studio",
		}
	case "windows":
		return []string{
			"Install a JDK from https://adoptium.net/",
			"Set JAVA_HOME and add %JAVA_HOME%\\bin to PATH",
		}
	default:
		return []string{"Install a Java Development Kit and add its bin directory to PATH"}
	}
}
