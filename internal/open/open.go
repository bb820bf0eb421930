package open

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Zuo-Peng/rec2csv/internal/index"
	"github.com/Zuo-Peng/rec2csv/internal/search"
)

// OpenRecord opens the source of an indexed record in editor, positioned at
// the record's first line.
func OpenRecord(db *index.DB, key, editor string) error {
	path, seq, err := search.ParseRecordKey(key)
	if err != nil {
		return err
	}
	row, err := db.GetRecord(path, seq)
	if err != nil {
		return fmt.Errorf("get record: %w", err)
	}
	if row == nil {
		return fmt.Errorf("record not found: %s", key)
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("file not found: %s", path)
	}

	if editor == "" {
		editor = "less"
	}
	name, args := EditorArgs(editor, path, max(row.Line, 1))
	cmd := exec.Command(name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// EditorArgs builds the command line that opens filePath at lineNum.
// editor may carry its own arguments, e.g. "code -r".
func EditorArgs(editor, filePath string, lineNum int) (string, []string) {
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		parts = []string{"less"}
	}
	name, args := parts[0], parts[1:]
	line := strconv.Itoa(lineNum)

	switch base := filepath.Base(name); {
	case strings.Contains(base, "vim") || base == "vi" || base == "nano" || base == "emacs":
		args = append(args, "+"+line, filePath)
	case strings.Contains(base, "code"):
		args = append(args, "--goto", filePath+":"+line)
	case strings.Contains(base, "less"):
		args = append(args, "+"+line, filePath)
	default:
		args = append(args, filePath)
	}
	return name, args
}
