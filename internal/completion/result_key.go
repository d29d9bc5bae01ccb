package completion

import (
	"fmt"
	"path"
	"strings"

	"github.com/RezaEskandarii/scribeflow/custom_errors"
	"github.com/RezaEskandarii/scribeflow/internal/intake"
)

// ParseResultKey splits a result key of the form <prefix>/<identity>/<job id>.<ext>.
func ParseResultKey(prefix, key string) (user, jobID string, err error) {
	ext := path.Ext(key)
	if ext == "" || ext == "." {
		return "", "", fmt.Errorf("result key %q has no extension: %w", key, custom_errors.ErrMalformedInput)
	}
	parts := strings.Split(strings.TrimSuffix(key, ext), "/")
	if len(parts) != 3 {
		return "", "", fmt.Errorf("result key %q is not %s/<user>/<job id>%s: %w", key, prefix, ext, custom_errors.ErrMalformedInput)
	}
	if parts[0] != prefix {
		return "", "", fmt.Errorf("result key %q is outside prefix %q: %w", key, prefix, custom_errors.ErrMalformedInput)
	}
	if parts[1] == "" {
		return "", "", fmt.Errorf("result key %q has an empty user: %w", key, custom_errors.ErrMalformedInput)
	}
	if !intake.IsJobID(parts[2]) {
		return "", "", fmt.Errorf("result key %q has an invalid job id: %w", key, custom_errors.ErrMalformedInput)
	}
	return parts[1], parts[2], nil
}
