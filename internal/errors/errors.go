package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorType represents the type of error
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeValidation
	ErrorTypeFileSystem
	ErrorTypeParsing
	ErrorTypeDependency
	ErrorTypeConfiguration
	ErrorTypeNotFound
	ErrorTypeStructural
	ErrorTypeCancelled
	ErrorTypeBuild
)

// String returns the string representation of the error type
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeValidation:
		return "VALIDATION"
	case ErrorTypeFileSystem:
		return "FILESYSTEM"
	case ErrorTypeParsing:
		return "PARSING"
	case ErrorTypeDependency:
		return "DEPENDENCY"
	case ErrorTypeConfiguration:
		return "CONFIGURATION"
	case ErrorTypeNotFound:
		return "NOT_FOUND"
	case ErrorTypeStructural:
		return "STRUCTURAL"
	case ErrorTypeCancelled:
		return "CANCELLED"
	case ErrorTypeBuild:
		return "BUILD"
	default:
		return "UNKNOWN"
	}
}

// Error codes
const (
	CodeSelfNesting                  = "SELF_NESTING"
	CodeUserCancelled                = "USER_CANCELLED"
	CodeTemplateNotFound             = "TEMPLATE_NOT_FOUND"
	CodeManifestIdentifierNotFound   = "MANIFEST_IDENTIFIER_NOT_FOUND"
	CodeBuildDescriptorFieldNotFound = "BUILD_DESCRIPTOR_FIELD_NOT_FOUND"
	CodeSourceEntryMissing           = "SOURCE_ENTRY_MISSING"
	CodeRuntimeConfigNotFound        = "RUNTIME_CONFIG_NOT_FOUND"
	CodeVersionLineNotFound          = "VERSION_LINE_NOT_FOUND"
	CodeToolUnavailable              = "TOOL_UNAVAILABLE"
	CodeBuildToolFailed              = "BUILD_TOOL_FAILED"
	CodeArtifactNotFound             = "ARTIFACT_NOT_FOUND"
	CodeArtifactIdentityMismatch     = "ARTIFACT_IDENTITY_MISMATCH"
	CodeCredentialCacheIncomplete    = "CREDENTIAL_CACHE_INCOMPLETE"
)

// Sentinels for errors.Is; matching is by Type and Code.
var (
	ErrSelfNesting                = &RebrandError{Type: ErrorTypeValidation, Code: CodeSelfNesting}
	ErrUserCancelled              = &RebrandError{Type: ErrorTypeCancelled, Code: CodeUserCancelled}
	ErrManifestIdentifierNotFound = &RebrandError{Type: ErrorTypeStructural, Code: CodeManifestIdentifierNotFound}
	ErrSourceEntryMissing         = &RebrandError{Type: ErrorTypeStructural, Code: CodeSourceEntryMissing}
	ErrToolUnavailable            = &RebrandError{Type: ErrorTypeDependency, Code: CodeToolUnavailable}
	ErrBuildToolFailed            = &RebrandError{Type: ErrorTypeBuild, Code: CodeBuildToolFailed}
	ErrArtifactNotFound           = &RebrandError{Type: ErrorTypeNotFound, Code: CodeArtifactNotFound}
)

// RebrandError represents an enhanced error with context and suggestions
type RebrandError struct {
	Type        ErrorType         `json:"type"`
	Code        string            `json:"code"`
	Message     string            `json:"message"`
	Cause       error             `json:"-"`
	Context     map[string]string `json:"context,omitempty"`
	Suggestions []string          `json:"suggestions,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
	Stack       []string          `json:"stack,omitempty"`
}

// Error implements the error interface
func (e *RebrandError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *RebrandError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target
func (e *RebrandError) Is(target error) bool {
	if t, ok := target.(*RebrandError); ok {
		return e.Type == t.Type && e.Code == t.Code
	}
	return false
}

// WithContext adds context to the error
func (e *RebrandError) WithContext(key, value string) *RebrandError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion to the error
func (e *RebrandError) WithSuggestion(suggestion string) *RebrandError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *RebrandError) WithSuggestions(suggestions []string) *RebrandError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// FormatDetailed returns a detailed error message with context and suggestions
func (e *RebrandError) FormatDetailed() string {
	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("❌ %s Error [%s]: %s\n", e.Type.String(), e.Code, e.Message))

	if len(e.Context) > 0 {
		builder.WriteString("\n📋 Context:\n")
		for key, value := range e.Context {
			builder.WriteString(fmt.Sprintf("   %s: %s\n", key, value))
		}
	}

	if e.Cause != nil {
		builder.WriteString(fmt.Sprintf("\n🔍 Underlying cause: %v\n", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		builder.WriteString("\n💡 Suggestions:\n")
		for _, suggestion := range e.Suggestions {
			builder.WriteString(fmt.Sprintf("   • %s\n", suggestion))
		}
	}

	return builder.String()
}

// NewError creates a new RebrandError
func NewError(errorType ErrorType, code, message string) *RebrandError {
	return &RebrandError{
		Type:      errorType,
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Context:   make(map[string]string),
		Stack:     captureStack(),
	}
}

// WrapError wraps an existing error with RebrandError
func WrapError(err error, errorType ErrorType, code, message string) *RebrandError {
	return &RebrandError{
		Type:      errorType,
		Code:      code,
		Message:   message,
		Cause:     err,
		Timestamp: time.Now(),
		Context:   make(map[string]string),
		Stack:     captureStack(),
	}
}

// captureStack captures the current stack trace
func captureStack() []string {
	var stack []string

	for i := 2; i < 10; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		if strings.Contains(file, "apprebrand") {
			stack = append(stack, fmt.Sprintf("%s:%d %s", file, line, fn.Name()))
		}
	}

	return stack
}

// Common error constructors

// NewValidationError creates a validation error
func NewValidationError(code, message string) *RebrandError {
	return NewError(ErrorTypeValidation, code, message).
		WithSuggestion("Check the input parameters and try again")
}

// NewFileSystemError wraps a filesystem failure
func NewFileSystemError(err error, code, message string) *RebrandError {
	return WrapError(err, ErrorTypeFileSystem, code, message).
		WithSuggestions([]string{
			"Check file permissions",
			"Verify disk space availability",
		})
}

// NewParsingError creates a parsing error
func NewParsingError(err error, code, message string) *RebrandError {
	return WrapError(err, ErrorTypeParsing, code, message).
		WithSuggestion("Verify the template file is well formed")
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(code, message string) *RebrandError {
	return NewError(ErrorTypeConfiguration, code, message).
		WithSuggestions([]string{
			"Check the configuration file syntax",
			"Run 'apprebrand init' to regenerate configuration",
		})
}

// NewSelfNestingError reports a working copy placed inside its own template
func NewSelfNestingError(source, destination string) *RebrandError {
	return NewError(ErrorTypeValidation, CodeSelfNesting,
		"destination is the template directory or nested inside it").
		WithContext("source", source).
		WithContext("destination", destination).
		WithSuggestion("Choose a workspace root outside the template project")
}

// NewUserCancelledError reports an explicit decline
func NewUserCancelledError(message string) *RebrandError {
	return NewError(ErrorTypeCancelled, CodeUserCancelled, message)
}

// NewStructuralNotFoundError reports an identifier, file or pattern missing from a config artifact
func NewStructuralNotFoundError(code, file, message string) *RebrandError {
	return NewError(ErrorTypeStructural, code, message).
		WithContext("file", file).
		WithSuggestion("Verify the template project layout matches the expected platform structure")
}

// NewManifestIdentifierNotFoundError reports a manifest without a package attribute
func NewManifestIdentifierNotFoundError(file string) *RebrandError {
	return NewStructuralNotFoundError(CodeManifestIdentifierNotFound, file,
		"package identifier not found in manifest")
}

// NewSourceEntryMissingError reports that no entry source file exists under the old package path
func NewSourceEntryMissingError(dir string) *RebrandError {
	return NewStructuralNotFoundError(CodeSourceEntryMissing, dir,
		"no MainActivity.kt or MainActivity.java under the old package path")
}

// NewToolUnavailableError reports a required host tool that cannot be resolved
func NewToolUnavailableError(tool string, instructions []string) *RebrandError {
	return NewError(ErrorTypeDependency, CodeToolUnavailable,
		fmt.Sprintf("required tool %s is not available on this host", tool)).
		WithContext("tool", tool).
		WithSuggestions(instructions).
		WithSuggestion("Run 'apprebrand doctor' to check dependencies")
}

// NewCredentialToolUnavailableError is the credential store flavour of NewToolUnavailableError
func NewCredentialToolUnavailableError(tool string, instructions []string) *RebrandError {
	return NewToolUnavailableError(tool, instructions).
		WithContext("stage", "credentials").
		WithSuggestion("A release build cannot be signed without generating an upload keystore first")
}

// NewArtifactNotFoundWarning reports a build output missing after a build
func NewArtifactNotFoundWarning(platform, mode, path string) *RebrandError {
	return NewError(ErrorTypeNotFound, CodeArtifactNotFound,
		fmt.Sprintf("%s %s artifact not found", platform, mode)).
		WithContext("platform", platform).
		WithContext("mode", mode).
		WithContext("path", path)
}

// BuildToolFailedError is returned when an external build command exits non-zero
type BuildToolFailedError struct {
	*RebrandError
	Platform string
	Command  string
	ExitCode int
}

// NewBuildToolFailedError creates a build failure for the given command
func NewBuildToolFailedError(platform, command string, exitCode int) *BuildToolFailedError {
	base := NewError(ErrorTypeBuild, CodeBuildToolFailed,
		fmt.Sprintf("%s build command %q failed with exit code %d", platform, command, exitCode)).
		WithContext("platform", platform).
		WithContext("command", command).
		WithContext("exit_code", fmt.Sprintf("%d", exitCode)).
		WithSuggestion("Inspect the build output above and fix the native toolchain issue")
	return &BuildToolFailedError{
		RebrandError: base,
		Platform:     platform,
		Command:      command,
		ExitCode:     exitCode,
	}
}

// Unwrap exposes the embedded RebrandError to errors.As
func (e *BuildToolFailedError) Unwrap() error {
	return e.RebrandError
}

// Exit codes
const (
	ExitGeneric    = 1
	ExitValidation = 2
	ExitDependency = 3
	ExitBuild      = 4
	ExitCancelled  = 130
)

// ExitCode maps an error to a process exit status
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var re *RebrandError
	if !stderrors.As(err, &re) {
		return ExitGeneric
	}
	switch re.Type {
	case ErrorTypeCancelled:
		return ExitCancelled
	case ErrorTypeValidation, ErrorTypeConfiguration:
		return ExitValidation
	case ErrorTypeDependency:
		return ExitDependency
	case ErrorTypeBuild:
		return ExitBuild
	default:
		return ExitGeneric
	}
}

// As finds the first RebrandError in err's chain
func As(err error) (*RebrandError, bool) {
	var re *RebrandError
	if stderrors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// ErrorHandler provides centralized error handling
type ErrorHandler struct {
	logger Logger
}

// Logger interface for error logging
type Logger interface {
	Error(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Debug(msg string, args ...interface{})
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs an error and its context, converting plain errors to RebrandError
func (eh *ErrorHandler) Handle(err error) *RebrandError {
	if err == nil {
		return nil
	}

	re, ok := As(err)
	if !ok {
		re = WrapError(err, ErrorTypeUnknown, "UNKNOWN", "unexpected failure")
	}

	if eh.logger != nil {
		eh.logger.Error("Error occurred: %s [%s] %s", re.Type.String(), re.Code, err.Error())
		for key, value := range re.Context {
			eh.logger.Debug("Error context: %s = %s", key, value)
		}
	}

	return re
}
