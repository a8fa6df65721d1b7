package filesystem

import (
	"bytes"
	"os/exec"
	"path/filepath"

	"github.com/pkg/errors"
)

// GetChangedFiles lists the files git considers modified, added, renamed or
// untracked below root, as absolute paths. Deleted files are left out since
// there is nothing to run for them.
func GetChangedFiles(root string) ([]string, error) {
	cmd := exec.Command("git", "status", "--porcelain=v1", "-z", "--untracked-files=all")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return nil, errors.Wrap(err, "git status")
	}

	top, err := gitToplevel(root)
	if err != nil {
		return nil, err
	}
	return parseStatus(out, top), nil
}

func gitToplevel(root string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return "", errors.Wrap(err, "git rev-parse")
	}
	return filepath.FromSlash(string(bytes.TrimSpace(out))), nil
}

// parseStatus reads NUL separated "XY path" records. A rename or copy is
// followed by an extra record holding the original path.
func parseStatus(out []byte, top string) []string {
	var files []string
	records := bytes.Split(out, []byte{0})
	for i := 0; i < len(records); i++ {
		rec := records[i]
		if len(rec) < 4 {
			continue
		}
		x, y := rec[0], rec[1]
		if x == 'R' || x == 'C' {
			i++
		}
		if x == 'D' || y == 'D' {
			continue
		}
		files = append(files, filepath.Join(top, filepath.FromSlash(string(rec[3:]))))
	}
	return files
}
