package rescan

import (
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// addRecursive registers a watch on root and every subdirectory beneath
// it: fsnotify itself only watches the directories it's explicitly
// given, so recursive coverage means walking the tree once up front.
func addRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
