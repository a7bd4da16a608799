package utils

import (
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/marcus-crane/boostboard/shared"
)

// DefaultOutputPath swaps the input's extension for .html, so invoices.json
// becomes invoices.html. Leading dots in the file name don't start an
// extension, and a name without one just gains .html.
func DefaultOutputPath(input string) string {
	return strings.TrimSuffix(input, extension(input)) + shared.HTML_EXTENSION
}

func extension(path string) string {
	base := path[strings.LastIndexAny(path, `/`+string(filepath.Separator))+1:]
	return filepath.Ext(strings.TrimLeft(base, "."))
}

// ExpandPath expands environment variables and a leading ~ in the passed
// path and cleans the result.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}

	if strings.HasPrefix(path, "~") {
		var homeDir string
		current, err := user.Current()
		if err == nil {
			homeDir = current.HomeDir
		} else {
			homeDir = os.Getenv("HOME")
		}

		path = strings.Replace(path, "~", homeDir, 1)
	}

	return filepath.Clean(os.ExpandEnv(path))
}
