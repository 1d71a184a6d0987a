// Package obsidian opens archive notes in the Obsidian app.
package obsidian

import (
	"fmt"
	"net/url"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Opener opens notes of an archive that is also an Obsidian vault.
// The vault name is the archive directory's base name.
type Opener struct {
	root   string
	vault  string
	launch func(uri string) error
}

// NewOpener creates an opener for the vault rooted at root
func NewOpener(root string) *Opener {
	return &Opener{
		root:   root,
		vault:  filepath.Base(root),
		launch: systemOpen,
	}
}

// Open shows path in Obsidian
func (o *Opener) Open(path string) error {
	uri, err := o.URI(path)
	if err != nil {
		return err
	}
	return o.launch(uri)
}

// URI returns the obsidian://open link for a note inside the archive
func (o *Opener) URI(path string) (string, error) {
	rel, err := filepath.Rel(o.root, path)
	if err != nil {
		return "", fmt.Errorf("failed to get relative path: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("note is outside the archive: %s", path)
	}

	// Obsidian expects forward slashes and no extension on markdown notes
	rel = strings.TrimSuffix(filepath.ToSlash(rel), ".md")

	q := url.Values{}
	q.Set("vault", o.vault)
	q.Set("file", rel)
	return "obsidian://open?" + strings.ReplaceAll(q.Encode(), "+", "%20"), nil
}

func systemOpen(uri string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", uri)
	case "linux":
		cmd = exec.Command("xdg-open", uri)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", uri)
	default:
		return fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}
	return cmd.Run()
}
