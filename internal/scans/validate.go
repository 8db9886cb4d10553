package scans

import (
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/NikhilSetiya/securex/internal/i18n"
	"github.com/NikhilSetiya/securex/pkg/errors"
	"github.com/NikhilSetiya/securex/pkg/types"
)

// MaxURLLength bounds URL targets
const MaxURLLength = 2048

var allowedExtensions = map[string]bool{
	"js": true, "ts": true, "jsx": true, "tsx": true, "py": true, "html": true,
	"css": true, "json": true, "txt": true, "php": true, "rb": true, "java": true,
	"go": true, "rs": true, "c": true, "cpp": true, "cs": true, "yml": true,
	"yaml": true, "xml": true, "toml": true, "ini": true, "env": true, "tf": true,
	"dockerfile": true, "kt": true, "swift": true, "sh": true, "bash": true,
	"ps1": true, "bat": true, "sql": true, "md": true,
}

var repositoryURL = regexp.MustCompile(`^https://github\.com/[\w-]+/[\w.-]+`)

// FileInput describes an uploaded file. Only its name and size are needed.
type FileInput struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Input is exactly one scan target
type Input struct {
	File       *FileInput `json:"file,omitempty"`
	URL        string     `json:"url,omitempty"`
	Repository string     `json:"repository,omitempty"`
}

// kind returns the scan type the input asks for, or "" unless exactly one
// target is set.
func (in Input) kind() types.ScanType {
	var set []types.ScanType
	if in.File != nil {
		set = append(set, types.ScanTypeFile)
	}
	if strings.TrimSpace(in.URL) != "" {
		set = append(set, types.ScanTypeURL)
	}
	if strings.TrimSpace(in.Repository) != "" {
		set = append(set, types.ScanTypeGitHub)
	}
	if len(set) != 1 {
		return ""
	}
	return set[0]
}

// ValidateURL checks a URL target and returns it trimmed
func ValidateURL(lang i18n.Lang, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	invalid := errors.NewInputError(errors.CodeInvalidURL, i18n.T(lang, "error.invalid_url"))
	if raw == "" || len(raw) > MaxURLLength {
		return "", invalid
	}
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return "", invalid
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", invalid
	}
	return raw, nil
}

// ValidateFile checks a file target against the size ceiling and the
// extension allow-list.
func ValidateFile(lang i18n.Lang, f FileInput, maxSize int64) (string, error) {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return "", errors.NewInputError(errors.CodeMissingTarget, i18n.T(lang, "error.missing_target"))
	}
	if f.Size < 0 {
		return "", errors.NewInputError(errors.CodeInvalidFile, i18n.T(lang, "error.invalid_file"))
	}
	if f.Size > maxSize {
		return "", errors.NewInputError(errors.CodeFileTooLarge, i18n.Format(lang, "error.file_too_large", map[string]string{
			"max": strconv.FormatInt(maxSize/(1024*1024), 10),
		})).WithDetail("max_bytes", strconv.FormatInt(maxSize, 10))
	}
	if !SupportedFile(name) {
		return "", errors.NewInputError(errors.CodeUnsupportedFileType, i18n.T(lang, "error.unsupported_file"))
	}
	return name, nil
}

// SupportedFile reports whether the file name is on the allow-list
func SupportedFile(name string) bool {
	base := strings.ToLower(path.Base(name))
	if base == "dockerfile" {
		return true
	}
	ext := strings.TrimPrefix(path.Ext(base), ".")
	return ext != "" && allowedExtensions[ext]
}

// ValidateRepository checks the repository URL shape. PRO gating happens
// separately so the caller can upsell instead of rejecting.
func ValidateRepository(lang i18n.Lang, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !repositoryURL.MatchString(raw) {
		return "", errors.NewInputError(errors.CodeInvalidRepository, i18n.T(lang, "error.invalid_github"))
	}
	return raw, nil
}
