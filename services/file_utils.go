package services

import (
	"mime"
	"path/filepath"
	"strings"
)

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	replacer := strings.NewReplacer("..", "_", "/", "_", "\\", "_")
	return replacer.Replace(name)
}

// validItemName rejects names that could escape their folder once
// joined into a relative path (archive entries, temp files).
func validItemName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}

const genericMimeType = "application/octet-stream"

var extMimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".pdf":  "application/pdf",
	".txt":  "text/plain",
	".mp4":  "video/mp4",
	".mp3":  "audio/mpeg",
	".zip":  "application/zip",
	".doc":  "application/msword",
}

// resolveMimeType keeps the declared content type unless it is missing
// or the generic placeholder, in which case the filename extension
// decides.
func resolveMimeType(declared, filename string) string {
	if declared != "" && declared != genericMimeType {
		return declared
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if mt, ok := extMimeTypes[ext]; ok {
		return mt
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		return mt
	}
	return genericMimeType
}
