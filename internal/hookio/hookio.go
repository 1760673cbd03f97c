// Package hookio implements the Claude Code hook wire protocol: one JSON
// object on stdin describing the event, plain text on stdout for the user,
// and the exit code as the decision channel (0 allow, 2 block).
package hookio

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Input is the JSON payload piped to hooks via stdin. Tool payloads stay
// raw because their shape varies per tool and per event.
type Input struct {
	SessionID      string          `json:"session_id,omitempty"`
	TranscriptPath string          `json:"transcript_path,omitempty"`
	Cwd            string          `json:"cwd,omitempty"`
	HookEventName  string          `json:"hook_event_name,omitempty"`
	ToolName       string          `json:"tool_name,omitempty"`
	ToolInput      json.RawMessage `json:"tool_input,omitempty"`
	ToolResponse   json.RawMessage `json:"tool_response,omitempty"`
	Source         string          `json:"source,omitempty"`
}

func (in *Input) toolInputField(key string) string {
	var m map[string]interface{}
	if err := json.Unmarshal(in.ToolInput, &m); err != nil {
		return ""
	}
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// Command extracts the "command" field from tool_input (Bash tool).
func (in *Input) Command() string {
	return in.toolInputField("command")
}

// WorkingDir resolves the directory the tool call runs in: the top-level
// cwd field, then a cwd inside tool_input, then the environment, then the
// process working directory.
func (in *Input) WorkingDir() string {
	if in.Cwd != "" {
		return in.Cwd
	}
	if v := in.toolInputField("cwd"); v != "" {
		return v
	}
	if v := os.Getenv("PWD"); v != "" {
		return v
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

// ToolOutput is the recorded result of a completed tool call
// (PostToolUse events).
type ToolOutput struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`
}

// Response decodes tool_response. Missing or malformed payloads decode to
// the zero value so post-tool hooks can still report something useful.
func (in *Input) Response() ToolOutput {
	var out ToolOutput
	if len(in.ToolResponse) == 0 {
		return out
	}
	if err := json.Unmarshal(in.ToolResponse, &out); err != nil {
		return ToolOutput{}
	}
	return out
}

// Read parses an Input from the given reader.
func Read(r io.Reader) (Input, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Input{}, fmt.Errorf("reading stdin: %w", err)
	}
	var in Input
	if err := json.Unmarshal(data, &in); err != nil {
		return Input{}, fmt.Errorf("parsing input: %w", err)
	}
	return in, nil
}

// Disabled reports whether name is listed in CF_HOOK_DISABLED
// (comma-separated, trimmed).
func Disabled(name string) bool {
	v := os.Getenv("CF_HOOK_DISABLED")
	if v == "" {
		return false
	}
	for _, s := range strings.Split(v, ",") {
		if strings.TrimSpace(s) == name {
			return true
		}
	}
	return false
}

// Func is the body of a hook binary: input in, user-facing text and an
// exit code out.
type Func func(Input) (string, int)

// Run is the standard entrypoint for a hook binary. It reads stdin, calls
// the hook function, writes its text to stdout, and exits with the
// returned code. Unparseable input fails open: silent exit 0, never a
// blocked tool call because of our own bug.
func Run(name string, fn Func) {
	if Disabled(name) {
		os.Exit(0)
	}
	in, err := Read(os.Stdin)
	if err != nil {
		os.Exit(0)
	}
	text, code := fn(in)
	if text != "" {
		if !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
		fmt.Print(text)
	}
	os.Exit(code)
}
