package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/diagramkit/pkg/errors"
	"github.com/matzehuels/diagramkit/pkg/format"
)

// stdio is the path that stands for stdin or stdout.
const stdio = "-"

// readInput reads path, or stdin for "-".
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == stdio {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeFileNotFound, "%s does not exist", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// writeOutput writes data to path, or to stdout for "-", creating parent
// directories as needed.
func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == stdio {
		_, err := stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// extension returns the preferred file extension of f.
func extension(f format.Format) string {
	c, err := format.Lookup(f)
	if err != nil || len(c.Extensions) == 0 {
		return "." + string(f)
	}
	return c.Extensions[0]
}

// outputPath derives where the result for input goes: next to the input,
// or inside dir when dir is set. suffix is inserted before the extension.
// A derived path never equals the input.
func outputPath(input, dir, suffix string, f format.Format) string {
	if input == stdio {
		return stdio
	}
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	if dir == "" {
		dir = filepath.Dir(input)
	}
	out := filepath.Join(dir, base+suffix+extension(f))
	if filepath.Clean(out) == filepath.Clean(input) {
		out = filepath.Join(dir, base+suffix+".out"+extension(f))
	}
	return out
}

// isDir reports whether path is an existing directory or is spelled like
// one.
func isDir(path string) bool {
	if strings.HasSuffix(path, "/") || strings.HasSuffix(path, string(filepath.Separator)) {
		return true
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
