// Package credentials manages the cached Android upload keystore.
//
// The keystore is generated at most once per cache directory. Later runs copy
// the cached files into the working copy and never call keytool again.
package credentials

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/huanfeng/apprebrand/internal/errors"
	"github.com/huanfeng/apprebrand/pkg/models"
	"github.com/huanfeng/apprebrand/pkg/system"
	"github.com/huanfeng/apprebrand/pkg/utils"
	"github.com/magiconair/properties"
	gop12 "software.sslmate.com/src/go-pkcs12"
)

// Cache file names, also used inside the working copy
const (
	KeystoreFile   = "upload-keystore.jks"
	PropertiesFile = "key.properties"
	KeytoolName    = "keytool"
)

// Properties keys read by the template's Gradle signing config
const (
	PropStorePassword = "storePassword"
	PropKeyPassword   = "keyPassword"
	PropKeyAlias      = "keyAlias"
	PropStoreFile     = "storeFile"
)

// SigningDir is where the credentials land inside the working copy
var SigningDir = filepath.Join("android", "app")

// State of the credential cache
type State string

const (
	StateAbsent     State = "absent"
	StateGenerating State = "generating"
	StateReady      State = "ready"
)

// Source collects credential parameters; it is only asked when generation is needed
type Source interface {
	Credentials() (models.SigningCredentials, error)
}

// SourceFunc adapts a function to Source
type SourceFunc func() (models.SigningCredentials, error)

// Credentials calls f
func (f SourceFunc) Credentials() (models.SigningCredentials, error) {
	return f()
}

// Result describes the credentials placed in the working copy
type Result struct {
	State          State  `json:"state"`
	Generated      bool   `json:"generated"`
	KeystorePath   string `json:"keystore_path"`
	PropertiesPath string `json:"properties_path"`
	Subject        string `json:"subject,omitempty"`
	Fingerprint    string `json:"fingerprint,omitempty"`
}

// Store owns the credential cache directory
type Store struct {
	CacheDir string
	Tools    system.Resolver
	Runner   system.Runner
	Source   Source
	Logger   utils.Logger
}

// NewStore creates a credential store
func NewStore(cacheDir string, tools system.Resolver, runner system.Runner, source Source, logger utils.Logger) *Store {
	return &Store{
		CacheDir: cacheDir,
		Tools:    tools,
		Runner:   runner,
		Source:   source,
		Logger:   logger,
	}
}

func (s *Store) keystorePath() string   { return filepath.Join(s.CacheDir, KeystoreFile) }
func (s *Store) propertiesPath() string { return filepath.Join(s.CacheDir, PropertiesFile) }

// State inspects the cache. A cache holding only one of the two files is an error.
func (s *Store) State() (State, error) {
	hasKeystore := fileExists(s.keystorePath())
	hasProps := fileExists(s.propertiesPath())

	switch {
	case hasKeystore && hasProps:
		return StateReady, nil
	case !hasKeystore && !hasProps:
		return StateAbsent, nil
	default:
		missing := s.keystorePath()
		if hasKeystore {
			missing = s.propertiesPath()
		}
		return "", errors.NewError(errors.ErrorTypeConfiguration, errors.CodeCredentialCacheIncomplete,
			"credential cache is incomplete").
			WithContext("cache_dir", s.CacheDir).
			WithContext("missing", missing).
			WithSuggestion("Restore the missing file from a backup; the cache is never regenerated automatically")
	}
}

// Preflight fails when ensuring credentials would need a tool the host lacks
func (s *Store) Preflight() error {
	state, err := s.State()
	if err != nil {
		return err
	}
	if state == StateReady {
		return nil
	}
	_, err = s.resolveKeytool()
	return err
}

// Ensure places the upload keystore and its properties into workDir, generating them once if needed
func (s *Store) Ensure(ctx context.Context, workDir string) (*Result, error) {
	log := s.logger().WithField("cache_dir", s.CacheDir)

	state, err := s.State()
	if err != nil {
		return nil, err
	}

	result := &Result{}
	if state == StateAbsent {
		// The tool check comes first so nothing is asked of the operator in vain.
		keytool, err := s.resolveKeytool()
		if err != nil {
			return nil, err
		}
		log.Info("No cached upload keystore, generating one")
		if err := s.generate(ctx, keytool); err != nil {
			return nil, err
		}
		result.Generated = true
	} else {
		log.Info("Reusing cached upload keystore")
	}

	dstDir := filepath.Join(workDir, SigningDir)
	result.KeystorePath = filepath.Join(dstDir, KeystoreFile)
	result.PropertiesPath = filepath.Join(dstDir, PropertiesFile)
	for src, dst := range map[string]string{
		s.keystorePath():   result.KeystorePath,
		s.propertiesPath(): result.PropertiesPath,
	} {
		if err := utils.CopyFile(src, dst); err != nil {
			return nil, errors.NewFileSystemError(err, "CREDENTIAL_COPY_FAILED",
				"failed to copy credentials into the working copy")
		}
	}
	result.State = StateReady

	s.inspect(result)
	return result, nil
}

func (s *Store) resolveKeytool() (system.DependencyStatus, error) {
	if s.Tools == nil {
		return system.DependencyStatus{}, errors.NewCredentialToolUnavailableError(KeytoolName, nil)
	}
	status := s.Tools.CheckDependency(KeytoolName)
	if !status.Available {
		return status, errors.NewCredentialToolUnavailableError(KeytoolName, s.Tools.GetInstallInstructions(KeytoolName))
	}
	return status, nil
}

func (s *Store) generate(ctx context.Context, keytool system.DependencyStatus) (err error) {
	if s.Source == nil {
		return errors.NewConfigurationError("CREDENTIAL_SOURCE_MISSING", "no credential source configured")
	}
	creds, err := s.Source.Credentials()
	if err != nil {
		return err
	}
	creds.KeystorePath = s.keystorePath()
	if err := creds.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(s.CacheDir, 0700); err != nil {
		return errors.NewFileSystemError(err, "CREDENTIAL_CACHE_CREATE_FAILED", "failed to create credential cache")
	}
	defer func() {
		if err != nil {
			os.Remove(s.keystorePath())
			os.Remove(s.propertiesPath())
		}
	}()

	cmd := KeytoolCommand(keytool.Path, creds)
	cmd.Dir = s.CacheDir
	log := s.logger()
	log.Info("Running %s", cmd.String())

	code, err := s.Runner.Run(ctx, cmd, func(stream system.Stream, line string) {
		log.Debug("[keytool] %s", line)
	})
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeDependency, "KEY_GENERATION_FAILED", "failed to run keytool")
	}
	if code != 0 {
		return errors.NewError(errors.ErrorTypeBuild, "KEY_GENERATION_FAILED",
			fmt.Sprintf("keytool exited with code %d", code)).
			WithContext("command", cmd.String())
	}
	if !fileExists(s.keystorePath()) {
		return errors.NewError(errors.ErrorTypeBuild, "KEY_GENERATION_FAILED", "keytool did not produce a keystore")
	}

	if err := writeProperties(s.propertiesPath(), creds); err != nil {
		return errors.NewFileSystemError(err, "CREDENTIAL_WRITE_FAILED", "failed to write key.properties")
	}
	return nil
}

// KeytoolCommand builds the single keytool invocation; the password is registered as a secret
func KeytoolCommand(path string, creds models.SigningCredentials) system.Command {
	return system.Command{
		Tool: KeytoolName,
		Path: path,
		Args: []string{
			"-genkeypair", "-v",
			"-keystore", creds.KeystorePath,
			"-storetype", "PKCS12",
			"-keyalg", "RSA",
			"-keysize", "2048",
			"-validity", strconv.Itoa(creds.ValidityDays),
			"-alias", creds.Alias,
			"-storepass", creds.Password,
			"-keypass", creds.Password,
			"-dname", creds.DistinguishedName.String(),
		},
		Secrets: []string{creds.Password},
	}
}

func writeProperties(path string, creds models.SigningCredentials) error {
	p := properties.NewProperties()
	p.DisableExpansion = true
	for _, kv := range [][2]string{
		{PropStorePassword, creds.Password},
		{PropKeyPassword, creds.Password},
		{PropKeyAlias, creds.Alias},
		{PropStoreFile, KeystoreFile},
	} {
		if _, _, err := p.Set(kv[0], kv[1]); err != nil {
			return err
		}
	}

	var buf bytes.Buffer
	if _, err := p.Write(&buf, properties.UTF8); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0600)
}

// ReadProperties loads a key.properties file without ${} expansion
func ReadProperties(path string) (*properties.Properties, error) {
	l := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	return l.LoadFile(path)
}

// inspect logs the certificate subject and fingerprint; failures only warn
func (s *Store) inspect(result *Result) {
	log := s.logger()

	props, err := ReadProperties(result.PropertiesPath)
	if err != nil {
		log.Warn("Could not read %s: %v", result.PropertiesPath, err)
		return
	}
	data, err := os.ReadFile(result.KeystorePath)
	if err != nil {
		log.Warn("Could not read keystore: %v", err)
		return
	}
	_, cert, _, err := gop12.DecodeChain(data, props.GetString(PropStorePassword, ""))
	if err != nil {
		log.Warn("Could not inspect keystore: %v", err)
		return
	}

	sum := sha256.Sum256(cert.Raw)
	hexParts := make([]string, len(sum))
	for i, b := range sum {
		hexParts[i] = fmt.Sprintf("%02X", b)
	}
	result.Subject = cert.Subject.String()
	result.Fingerprint = strings.Join(hexParts, ":")
	log.Info("Upload certificate %s (SHA-256 %s)", result.Subject, result.Fingerprint)
}

func (s *Store) logger() utils.Logger {
	if s.Logger == nil {
		return utils.NewNopLogger()
	}
	return s.Logger
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
