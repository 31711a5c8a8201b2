package restorecmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// resolveRoot returns the takeout root from args, prompting once if absent
func resolveRoot(args []string, in io.Reader, out io.Writer) (string, error) {
	var root string
	if len(args) == 1 {
		root = args[0]
	} else {
		var err error
		root, err = promptForRoot(in, out)
		if err != nil {
			return "", err
		}
	}

	root, err := expandPath(root)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("takeout folder not found: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", root)
	}
	return root, nil
}

func promptForRoot(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "Enter the path to your Google Photos Takeout folder: ")

	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("failed to read path: %w", err)
		}
		return "", fmt.Errorf("no path entered")
	}

	// Paths dropped onto a terminal arrive quoted
	root := strings.TrimSpace(scanner.Text())
	root = strings.Trim(root, `"'`)
	if root == "" {
		return "", fmt.Errorf("no path entered")
	}
	return root, nil
}

func expandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Abs(path)
}
