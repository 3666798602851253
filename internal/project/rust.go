package project

import "path/filepath"

// RustStatus summarizes how far Rust has been integrated into a JavaScript
// project.
type RustStatus int

const (
	RustNone RustStatus = iota
	RustPartial
	RustFull
)

// RustLayout records which pieces of the Rust/WASM layout exist.
type RustLayout struct {
	PackageJSON bool
	CargoToml   bool
	SrcDir      bool
	LibRs       bool
	PkgDir      bool
}

// InspectRust checks the files add-rust creates.
func InspectRust(root string) RustLayout {
	return RustLayout{
		PackageJSON: isFile(filepath.Join(root, "package.json")),
		CargoToml:   isFile(filepath.Join(root, "Cargo.toml")),
		SrcDir:      isDir(filepath.Join(root, "src")),
		LibRs:       isFile(filepath.Join(root, "src", "lib.rs")),
		PkgDir:      isDir(filepath.Join(root, "pkg")),
	}
}

// Status folds the layout into a single integration level.
func (l RustLayout) Status() RustStatus {
	switch {
	case l.CargoToml && l.SrcDir && l.LibRs:
		return RustFull
	case l.CargoToml || l.SrcDir:
		return RustPartial
	default:
		return RustNone
	}
}

func (s RustStatus) String() string {
	switch s {
	case RustFull:
		return "full"
	case RustPartial:
		return "partial"
	default:
		return "none"
	}
}
