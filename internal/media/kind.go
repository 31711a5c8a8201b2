package media

import (
	"errors"
	"path/filepath"
	"strings"
)

// Kind classifies a file by how its metadata gets written
type Kind int

const (
	Unsupported Kind = iota
	Image
	Video
)

func (k Kind) String() string {
	switch k {
	case Image:
		return "image"
	case Video:
		return "video"
	default:
		return "unsupported"
	}
}

// ErrUnsupported is returned for files that are neither images nor videos
var ErrUnsupported = errors.New("unsupported media type")

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".heic": true,
	".heif": true,
	".gif":  true,
	".webp": true,
	".tif":  true,
	".tiff": true,
	".dng":  true,
	".cr2":  true,
	".nef":  true,
	".arw":  true,
}

var videoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".m4v":  true,
	".3gp":  true,
	".mkv":  true,
	".webm": true,
	".avi":  true,
	".mts":  true,
	".m2ts": true,
	".mp":   true, // motion photo companion
}

// File is a media file found under a takeout root
type File struct {
	Path string
	Name string
	Kind Kind
}

// NewFile builds a File for path, classifying it by extension
func NewFile(path string) File {
	return File{
		Path: path,
		Name: filepath.Base(path),
		Kind: Classify(path),
	}
}

// Ext returns the lower-cased extension including the dot
func (f File) Ext() string {
	return strings.ToLower(filepath.Ext(f.Path))
}

// Classify decides the kind of path from its lower-cased extension
func Classify(path string) Kind {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case imageExtensions[ext]:
		return Image
	case videoExtensions[ext]:
		return Video
	default:
		return Unsupported
	}
}

// IsAppleDouble reports whether name is a macOS resource fork stub
func IsAppleDouble(name string) bool {
	return strings.HasPrefix(name, "._")
}
