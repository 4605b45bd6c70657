package file

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/scylladb/go-set/strset"
	"github.com/spf13/cobra"
)

// UploadOpts for selecting files to upload.
type UploadOpts struct {
	Paths          []string
	FileExtensions []string
}

// GetOpts on the given command.
func GetOpts(cmd *cobra.Command) *UploadOpts {
	opts := &UploadOpts{}
	cmd.Flags().StringSliceVar(&opts.FileExtensions, "ext", nil, "only upload files with these extensions (defaults to the configured ones)")
	return opts
}

// ExtensionSet is a normalized set of file extensions (lower case, leading dot).
type ExtensionSet struct {
	set *strset.Set
}

// NewExtensionSet normalizes and dedupes the given extensions.
func NewExtensionSet(extensions ...string) *ExtensionSet {
	set := strset.New()
	for _, extension := range extensions {
		extension = strings.ToLower(strings.TrimSpace(extension))
		if extension == "" {
			continue
		}
		if !strings.HasPrefix(extension, ".") {
			extension = "." + extension
		}
		set.Add(extension)
	}
	return &ExtensionSet{set: set}
}

// Allows returns true if the filename's extension is in the set.
// An empty set allows everything.
func (s *ExtensionSet) Allows(filename string) bool {
	if s == nil || s.set.IsEmpty() {
		return true
	}
	return s.set.Has(strings.ToLower(filepath.Ext(filename)))
}

// List returns the extensions sorted.
func (s *ExtensionSet) List() []string {
	if s == nil {
		return nil
	}
	list := s.set.List()
	sort.Strings(list)
	return list
}

// String implements fmt.Stringer.
func (s *ExtensionSet) String() string {
	return strings.Join(s.List(), ", ")
}

// Collect returns the files designated by opts, filtered by extension.
// A path may be a file, a directory (its direct children) or `dir/...` (recursive).
func Collect(opts *UploadOpts) ([]string, error) {
	extensions := NewExtensionSet(opts.FileExtensions...)
	seen := strset.New()
	var files []string
	collectFn := func(filepath string) error {
		if seen.Has(filepath) || !extensions.Allows(filepath) {
			return nil
		}
		seen.Add(filepath)
		files = append(files, filepath)
		return nil
	}
	for _, p := range opts.Paths {
		if err := smartParse(p, collectFn); err != nil {
			return nil, fmt.Errorf("smartParse (%s): %w", p, err)
		}
	}
	return files, nil
}

// smartParse understands '/...' logic.
func smartParse(filepath string, parseFileFn func(filepath string) error) error {
	// Expand the path to escape `~`.
	filepath, err := ExpandPath(filepath)
	if err != nil {
		return fmt.Errorf("expanding path: %w", err)
	}
	// Here we remove the "/..." if there is one, and record whether it existed.
	filepath, recurse := strings.CutSuffix(filepath, "/...")

	fileInfo, err := os.Stat(filepath)
	if err != nil {
		return fmt.Errorf("getting os stats: %w", err)
	}
	if !fileInfo.IsDir() {
		if recurse {
			return fmt.Errorf("cannot recurse on a file")
		}
		return parseFileFn(filepath)
	}

	directory := filepath
	dirEntries, err := os.ReadDir(directory)
	if err != nil {
		return fmt.Errorf("reading directory: %w", err)
	}
	for _, dirEntry := range dirEntries {
		if strings.HasPrefix(dirEntry.Name(), ".") {
			continue
		}
		if dirEntry.IsDir() {
			if recurse {
				filepath := path.Join(directory, dirEntry.Name()) + "/..."
				if err := smartParse(filepath, parseFileFn); err != nil {
					return fmt.Errorf("smartParse (%s): %w", filepath, err)
				}
			}
			// If we are not in recursive mode, we have nothing to do with a directory.
			continue
		}
		filepath := path.Join(directory, dirEntry.Name())
		if err := parseFileFn(filepath); err != nil {
			return fmt.Errorf("parseFileFn (%s): %w", filepath, err)
		}
	}
	return nil
}

// ExpandPath expands a path to avoid `~`.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting user home dir: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}

// CreateDirectoryIfNotExist creates a directory if it doesn't already exist.
func CreateDirectoryIfNotExist(directory string) error {
	ok, err := DirectoryExists(directory)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if err := os.MkdirAll(directory, 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	return nil
}

// DirectoryExists returns true if the specified directory exists.
func DirectoryExists(directory string) (bool, error) {
	info, err := os.Stat(directory)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("checking directory existence: %w", err)
	}
	return info.IsDir(), nil
}

// Exists returns true if the specified file exists.
func Exists(filePath string) (bool, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("checking file existence: %w", err)
	}
	return !info.IsDir(), nil
}
