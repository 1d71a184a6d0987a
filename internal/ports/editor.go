package ports

import "os/exec"

// EditorOpener opens files in an external editor
type EditorOpener interface {
	// OpenFile opens the file and waits for the editor to exit
	OpenFile(path string) error

	// Command returns the prepared editor command without running it
	Command(path string) (*exec.Cmd, error)
}
