package editor

import (
	"os/exec"
	"path/filepath"
	"reflect"
	"testing"
)

func envOf(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestCommand_EditorWithArguments(t *testing.T) {
	o := &Opener{getenv: envOf(map[string]string{"EDITOR": "code --wait"})}

	cmd, err := o.Command("/tmp/action.md")
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	want := []string{"code", "--wait", "/tmp/action.md"}
	if !reflect.DeepEqual(cmd.Args, want) {
		t.Errorf("args = %q, want %q", cmd.Args, want)
	}
}

func TestCommand_Precedence(t *testing.T) {
	o := &Opener{getenv: envOf(map[string]string{
		"ARCHIVIST_EDITOR": "hx",
		"EDITOR":           "vim",
		"VISUAL":           "emacs",
	})}
	cmd, err := o.Command("f")
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Args[0] != "hx" {
		t.Errorf("expected ARCHIVIST_EDITOR to win, got %q", cmd.Args[0])
	}

	o = &Opener{getenv: envOf(map[string]string{"VISUAL": "emacs"})}
	cmd, _ = o.Command("f")
	if cmd.Args[0] != "emacs" {
		t.Errorf("expected VISUAL fallback, got %q", cmd.Args[0])
	}
}

func TestOpenFile_RunsEditor(t *testing.T) {
	truePath, err := exec.LookPath("true")
	if err != nil {
		t.Skip("true not available")
	}
	o := &Opener{getenv: envOf(map[string]string{"EDITOR": truePath})}
	if err := o.OpenFile(filepath.Join(t.TempDir(), "x.md")); err != nil {
		t.Errorf("OpenFile: %v", err)
	}
}

func TestOpenFile_EditorFails(t *testing.T) {
	falsePath, err := exec.LookPath("false")
	if err != nil {
		t.Skip("false not available")
	}
	o := &Opener{getenv: envOf(map[string]string{"EDITOR": falsePath})}
	if err := o.OpenFile("x.md"); err == nil {
		t.Error("expected editor failure to surface")
	}
}
