package framework

import (
	"errors"
	"fmt"
)

var (
	// ErrManifestNotFound marks a missing package.json or Cargo.toml.
	ErrManifestNotFound = errors.New("manifest not found")
	// ErrEntryPointNotFound marks a project without a runnable entry script.
	ErrEntryPointNotFound = errors.New("entry point not found")
)

// FileOperationError reports a failed precondition or file access. The
// message usually names the remedial command.
type FileOperationError struct {
	Operation string
	Path      string
	Message   string
	Err       error
}

func (e *FileOperationError) Error() string {
	return fmt.Sprintf("File operation '%s' failed on '%s': %s", e.Operation, e.Path, e.Message)
}

func (e *FileOperationError) Unwrap() error { return e.Err }

// FileExistsError is returned when a command refuses to overwrite a path.
type FileExistsError struct {
	Path string
}

func (e *FileExistsError) Error() string {
	return fmt.Sprintf("File already exists: %s", e.Path)
}

// ExternalCommandError is returned when a delegated toolchain exits non-zero.
// Err holds the cause when the process could not start or was cancelled.
type ExternalCommandError struct {
	Command string
	Message string
	Err     error
}

func (e *ExternalCommandError) Error() string {
	return fmt.Sprintf("Command '%s' failed: %s", e.Command, e.Message)
}

func (e *ExternalCommandError) Unwrap() error { return e.Err }

// InternalError reports a state the engine considers impossible, such as a
// successful build that produced no artifact.
type InternalError struct {
	Message string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("Internal error: %s", e.Message)
}

// ManifestParseError wraps a decode failure of a manifest document.
type ManifestParseError struct {
	Path string
	Err  error
}

func (e *ManifestParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ManifestParseError) Unwrap() error { return e.Err }

// ManifestWriteError wraps a failure to serialize or persist a manifest.
type ManifestWriteError struct {
	Path string
	Err  error
}

func (e *ManifestWriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *ManifestWriteError) Unwrap() error { return e.Err }

// NotInitialized builds the precondition error used when a command needs a
// manifest that the working directory lacks.
func NotInitialized(kind ManifestKind, remedy string) error {
	label := "JavaScript"
	if kind == CargoTOML {
		label = "Rust"
	}
	return &FileOperationError{
		Operation: "read " + kind.FileName(),
		Path:      kind.FileName(),
		Message:   fmt.Sprintf("Not in a %s project. Run '%s' first.", label, remedy),
		Err:       ErrManifestNotFound,
	}
}

// EntryPointMissing builds the error returned when neither js/index.js nor
// index.js exists.
func EntryPointMissing(path string) error {
	return &FileOperationError{
		Operation: "read JavaScript entry point",
		Path:      path,
		Message:   "File not found. Run 'cpm init' or create index.js.",
		Err:       ErrEntryPointNotFound,
	}
}
