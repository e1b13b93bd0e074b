// Package environment supplies the default PEP 508 marker variables
// and PEP 425 compatibility tags for the host Go is running on, with
// every value individually overridable by caller configuration.
package environment

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/FFY00/python-resolver/requirement"
	"github.com/FFY00/python-resolver/tag"
)

// Default marker variable names, per PEP 508.
const (
	PythonVersion                 = "python_version"
	PythonFullVersion             = "python_full_version"
	OSName                        = "os_name"
	SysPlatform                   = "sys_platform"
	PlatformMachine               = "platform_machine"
	PlatformPythonImplementation  = "platform_python_implementation"
	PlatformRelease               = "platform_release"
	PlatformSystem                = "platform_system"
	ImplementationName            = "implementation_name"
	ImplementationVersion         = "implementation_version"
)

// Environment bundles a marker-variable lookup and a tag producer for
// one resolution target.
type Environment struct {
	Vars requirement.MapEnv
}

// New builds an Environment whose defaults are derived from the Go
// runtime's GOOS/GOARCH and the given interpreter version, with
// overrides applied on top of (never instead of) those defaults.
func New(pythonVersion string, overrides map[string]string) Environment {
	vars := requirement.MapEnv{
		PythonVersion:                maybeShortVersion(pythonVersion),
		PythonFullVersion:            pythonVersion,
		OSName:                       osName(),
		SysPlatform:                  sysPlatform(),
		PlatformMachine:              platformMachine(),
		PlatformPythonImplementation: "CPython",
		PlatformRelease:              "",
		PlatformSystem:               platformSystem(),
		ImplementationName:           "cpython",
		ImplementationVersion:        pythonVersion,
	}
	for k, v := range overrides {
		vars[k] = v
	}
	return Environment{Vars: vars}
}

// Get implements requirement.Env.
func (e Environment) Get(name string) (string, error) {
	return e.Vars.Get(name)
}

// SupportedTags returns the wheel compatibility tags this environment
// accepts, most-specific first: an exact CPython ABI/platform tag, a
// pure-Python "py3-none" tag for the host platform, and the universal
// "py3-none-any" fallback every pure-Python wheel carries.
func (e Environment) SupportedTags() []tag.Tag {
	major, minor := splitVersion(e.Vars[PythonVersion])
	interpreter := fmt.Sprintf("cp%s%s", major, minor)
	platform := platformTag()

	return []tag.Tag{
		{Interpreter: interpreter, ABI: interpreter, Platform: platform},
		{Interpreter: "py3", ABI: "none", Platform: platform},
		{Interpreter: "py3", ABI: "none", Platform: "any"},
	}
}

func osName() string {
	if runtime.GOOS == "windows" {
		return "nt"
	}
	return "posix"
}

func sysPlatform() string {
	switch runtime.GOOS {
	case "darwin":
		return "darwin"
	case "windows":
		return "win32"
	default:
		return "linux"
	}
}

func platformSystem() string {
	switch runtime.GOOS {
	case "darwin":
		return "Darwin"
	case "windows":
		return "Windows"
	default:
		return "Linux"
	}
}

func platformMachine() string {
	switch runtime.GOARCH {
	case "amd64":
		return "x86_64"
	case "arm64":
		return "aarch64"
	default:
		return runtime.GOARCH
	}
}

func platformTag() string {
	return fmt.Sprintf("%s_%s", strings.ToLower(platformSystem()), platformMachine())
}

func splitVersion(v string) (major, minor string) {
	parts := strings.SplitN(v, ".", 3)
	major = "3"
	minor = "0"
	if len(parts) > 0 && parts[0] != "" {
		major = parts[0]
	}
	if len(parts) > 1 {
		minor = parts[1]
	}
	return major, minor
}

func maybeShortVersion(full string) string {
	major, minor := splitVersion(full)
	return major + "." + minor
}
