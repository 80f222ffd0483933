package entity

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrInvalidFileName is returned for attachment names that cannot be stored
var ErrInvalidFileName = errors.New("invalid attachment file name")

// CleanFileName keeps only the final path element of a client supplied name, with
// backslashes read as separators. Attachments are stored and listed under this name.
func CleanFileName(name string) (string, error) {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if base == "" || base == "." || base == ".." || base == "/" {
		return "", fmt.Errorf("%w: %q", ErrInvalidFileName, name)
	}
	return base, nil
}

// StagedAttachment is a file held in memory between selection and record creation
type StagedAttachment struct {
	Name    string
	Content []byte
}

// Size returns the content length in bytes
func (a StagedAttachment) Size() int64 {
	return int64(len(a.Content))
}

// AttachmentInfo describes a file stored against a request
type AttachmentInfo struct {
	FileName string `json:"file_name"`
	URL      string `json:"url"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type,omitempty"`
}

// StoredFile is an attachment read back from storage
type StoredFile struct {
	AttachmentInfo
	Content []byte
}
