package jsonv

import (
	"errors"
	"fmt"
	"os"
)

// Load reads and decodes the JSON file at path. label and display only shape
// error messages. Nothing is returned unless the whole document decodes.
func Load(path, label, display string) (*Value, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s JSON file does not exist: %s", label, display)
		}
		return nil, fmt.Errorf("unable to read %s JSON %s: %v", label, display, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("unable to read %s JSON %s: not a regular file", label, display)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s JSON %s: %v", label, display, err)
	}

	v, err := Parse(data)
	switch {
	case errors.Is(err, ErrInvalidUTF8):
		return nil, fmt.Errorf("invalid UTF-8 in %s file %s", label, display)
	case err != nil:
		return nil, fmt.Errorf("invalid JSON in %s file %s: %v", label, display, err)
	}
	return v, nil
}
