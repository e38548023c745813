package sync

import "os"

// defaultWriteFile is the production file-write backend for autosave;
// Engine.writeFile is overridable in tests.
func defaultWriteFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}
