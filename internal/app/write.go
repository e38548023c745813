package app

import "os"

// defaultWriteFile is the production save backend; App.writeFile is
// overridable in tests.
func defaultWriteFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}
