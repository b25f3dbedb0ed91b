package blob

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/studioflow/studioflow/internal/domain"
)

// Bucket names for the two blob classes the pipeline touches.
const (
	BucketRaw     = "raw"
	BucketOutputs = "outputs"
)

var (
	componentPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	filenamePattern  = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)
)

// SanitizeComponent validates a single path component (tenant, job or item
// id). Only alphanumerics, underscore and hyphen are allowed; anything that
// could escape the prefix is rejected.
func SanitizeComponent(component string) (string, error) {
	if component == "" || strings.Contains(component, "..") || !componentPattern.MatchString(component) {
		return "", domain.NewValidationError("invalid path component: %q", component)
	}
	return component, nil
}

// SanitizeFilename strips any directory prefix from filename and validates
// the remaining base name. Filenames additionally allow a dot.
func SanitizeFilename(filename string) (string, error) {
	name := filename
	if idx := strings.LastIndexAny(name, `/\`); idx >= 0 {
		name = name[idx+1:]
	}
	if name == "" || name == "." || name == ".." || !filenamePattern.MatchString(name) {
		return "", domain.NewValidationError("invalid filename: %q", filename)
	}
	return name, nil
}

// RawPath builds the blob path for an item's raw input:
// {tenant}/jobs/{job}/items/{item}/raw/{filename}
func RawPath(tenantID, jobID, itemID, filename string) (string, error) {
	return buildPath(tenantID, jobID, itemID, "raw", filename)
}

// OutputPath builds the blob path for an item's produced output:
// {tenant}/jobs/{job}/items/{item}/outputs/{filename}
func OutputPath(tenantID, jobID, itemID, filename string) (string, error) {
	return buildPath(tenantID, jobID, itemID, "outputs", filename)
}

func buildPath(tenantID, jobID, itemID, kind, filename string) (string, error) {
	tenant, err := SanitizeComponent(tenantID)
	if err != nil {
		return "", err
	}
	job, err := SanitizeComponent(jobID)
	if err != nil {
		return "", err
	}
	item, err := SanitizeComponent(itemID)
	if err != nil {
		return "", err
	}
	name, err := SanitizeFilename(filename)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/jobs/%s/items/%s/%s/%s", tenant, job, item, kind, name), nil
}
