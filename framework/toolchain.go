package framework

import (
	"context"

	semver "github.com/Masterminds/semver/v3"
)

// Tool identifies a logical external toolchain independent of the platform
// specific executable name.
type Tool string

const (
	ToolNPM      Tool = "npm"
	ToolNPX      Tool = "npx"
	ToolCargo    Tool = "cargo"
	ToolWasmPack Tool = "wasm-pack"
	ToolJetCrab  Tool = "jetcrab"
	ToolNode     Tool = "node"
	ToolNodemon  Tool = "nodemon"
)

// KnownTools lists every tool the engine may delegate to, in report order.
var KnownTools = []Tool{ToolNPM, ToolNPX, ToolCargo, ToolWasmPack, ToolJetCrab, ToolNode, ToolNodemon}

// Invocation is the resolved, platform-correct way to call a tool.
type Invocation struct {
	Tool    Tool
	Name    string
	Path    string
	Version *semver.Version
	Raw     string
}

// Command prefixes args with the resolved executable name.
func (i Invocation) Command(args ...string) []string {
	return append([]string{i.Name}, args...)
}

// ToolProbe answers whether a tool can be invoked. A missing tool is not an
// error; callers branch on ok.
type ToolProbe interface {
	Probe(ctx context.Context, tool Tool) (Invocation, bool)
}

// FallbackName returns the generic executable name for tool, used when the
// caller runs a tool even though the probe could not confirm it. The child's
// own start failure then surfaces naturally.
func FallbackName(tool Tool) Invocation {
	return Invocation{Tool: tool, Name: string(tool)}
}
