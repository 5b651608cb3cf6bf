// Package meta derives document metadata and the file-type lookups used by the encoder.
package meta

import (
	"crypto/md5"
	"encoding/hex"
	"path/filepath"
	"strings"
	"time"

	"github.com/rcliao/utcp/internal/model"
)

// EnvelopeExt is the extension written by the encoder.
const EnvelopeExt = ".utcp"

// DateLayout is the ISO-8601 layout used for META:date.
const DateLayout = "2006-01-02T15:04:05.000Z"

// Domain names for the fixed keyword vocabularies.
const (
	DomainCode   = "code"
	DomainMarkup = "markup"
	DomainStyle  = "style"
)

var domainByType = map[string]string{
	"js": DomainCode, "ts": DomainCode, "java": DomainCode, "py": DomainCode,
	"rb": DomainCode, "c": DomainCode, "cpp": DomainCode, "cs": DomainCode,
	"go": DomainCode, "rs": DomainCode, "php": DomainCode,

	"html": DomainMarkup, "xml": DomainMarkup, "md": DomainMarkup, "rst": DomainMarkup,
	"adoc": DomainMarkup, "tex": DomainMarkup, "yaml": DomainMarkup, "json": DomainMarkup,

	"css": DomainStyle, "scss": DomainStyle, "sass": DomainStyle, "less": DomainStyle,
}

// Checksum returns the hex MD5 digest of content.
func Checksum(content string) string {
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}

// CountLines counts \n-delimited segments; the empty string has one line.
func CountLines(content string) int {
	return strings.Count(content, "\n") + 1
}

// FileType returns the extension of path without the leading dot.
func FileType(path string) string {
	return strings.TrimPrefix(filepath.Ext(path), ".")
}

// SourceType returns the type of the document an envelope path was written for,
// i.e. FileType with a trailing .utcp removed first.
func SourceType(envelopePath string) string {
	return FileType(strings.TrimSuffix(envelopePath, EnvelopeExt))
}

// DomainFor maps a file type to its keyword domain, or "" if none applies.
func DomainFor(fileType string) string {
	return domainByType[strings.ToLower(fileType)]
}

// Generate builds the metadata record for content read from path.
func Generate(path, content string, now time.Time) model.Metadata {
	return model.Metadata{
		Type:     FileType(path),
		Checksum: Checksum(content),
		Size:     len(content),
		Lines:    CountLines(content),
		Date:     now.UTC().Format(DateLayout),
	}
}

// SuggestedOutputName returns the default decode target for an envelope path.
func SuggestedOutputName(path string) string {
	if strings.HasSuffix(path, EnvelopeExt) {
		return strings.TrimSuffix(path, EnvelopeExt)
	}
	return path + ".decompressed"
}
