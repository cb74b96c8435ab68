package loader

import "os"

// fileExists reports whether path exists and, if so, whether it is a
// directory.
func fileExists(path string) (exists, isDir bool) {
	info, err := os.Stat(path)
	if err != nil {
		return false, false
	}
	return true, info.IsDir()
}
