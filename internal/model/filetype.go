package model

import (
	"sort"
	"strings"
)

// FileCategory represents a high-level file type category.
type FileCategory int

const (
	CatOther FileCategory = iota
	CatImage
	CatVideo
	CatAudio
	CatCode
	CatArchive
	CatPackage
	CatDocument
	CatLog
	CatExecutable
)

// Categories lists every named category in display order.
var Categories = []FileCategory{
	CatImage, CatVideo, CatAudio, CatCode, CatArchive,
	CatPackage, CatDocument, CatLog, CatExecutable,
}

// CategoryName returns the display name for a category.
func CategoryName(cat FileCategory) string {
	switch cat {
	case CatImage:
		return "Images"
	case CatVideo:
		return "Video"
	case CatAudio:
		return "Audio"
	case CatCode:
		return "Code"
	case CatArchive:
		return "Archives"
	case CatPackage:
		return "Packages"
	case CatDocument:
		return "Documents"
	case CatLog:
		return "Logs"
	case CatExecutable:
		return "Executables"
	default:
		return "Other"
	}
}

// ParseCategory resolves a case-insensitive category name such as "images"
// or "documents".
func ParseCategory(name string) (FileCategory, bool) {
	want := strings.ToLower(strings.TrimSpace(name))
	for _, cat := range Categories {
		if strings.ToLower(CategoryName(cat)) == want {
			return cat, true
		}
	}
	return CatOther, false
}

// extMap maps file extensions to categories.
var extMap = map[string]FileCategory{
	// Images
	".jpg": CatImage, ".jpeg": CatImage, ".png": CatImage, ".gif": CatImage,
	".bmp": CatImage, ".svg": CatImage, ".webp": CatImage, ".ico": CatImage,
	".tiff": CatImage, ".tif": CatImage, ".psd": CatImage, ".raw": CatImage,
	".cr2": CatImage, ".nef": CatImage, ".heic": CatImage, ".heif": CatImage,
	".avif": CatImage,

	// Video
	".mp4": CatVideo, ".mkv": CatVideo, ".avi": CatVideo, ".mov": CatVideo,
	".wmv": CatVideo, ".flv": CatVideo, ".webm": CatVideo, ".m4v": CatVideo,
	".mpg": CatVideo, ".mpeg": CatVideo, ".3gp": CatVideo,

	// Audio
	".mp3": CatAudio, ".flac": CatAudio, ".wav": CatAudio, ".aac": CatAudio,
	".ogg": CatAudio, ".wma": CatAudio, ".m4a": CatAudio, ".opus": CatAudio,
	".mid": CatAudio, ".midi": CatAudio,

	// Code
	".go": CatCode, ".py": CatCode, ".js": CatCode, ".ts": CatCode,
	".rs": CatCode, ".c": CatCode, ".cpp": CatCode, ".h": CatCode,
	".java": CatCode, ".kt": CatCode, ".swift": CatCode, ".rb": CatCode,
	".php": CatCode, ".cs": CatCode, ".sh": CatCode, ".sql": CatCode,
	".html": CatCode, ".css": CatCode, ".json": CatCode, ".yaml": CatCode,
	".yml": CatCode, ".toml": CatCode, ".xml": CatCode, ".proto": CatCode,

	// Archives
	".zip": CatArchive, ".tar": CatArchive, ".gz": CatArchive, ".bz2": CatArchive,
	".xz": CatArchive, ".zst": CatArchive, ".rar": CatArchive, ".7z": CatArchive,
	".tgz": CatArchive, ".iso": CatArchive, ".jar": CatArchive,

	// Installable packages
	".apk": CatPackage, ".aab": CatPackage, ".deb": CatPackage, ".rpm": CatPackage,
	".dmg": CatPackage, ".pkg": CatPackage, ".msi": CatPackage, ".snap": CatPackage,
	".appimage": CatPackage, ".flatpak": CatPackage,

	// Documents
	".pdf": CatDocument, ".doc": CatDocument, ".docx": CatDocument,
	".xls": CatDocument, ".xlsx": CatDocument, ".ppt": CatDocument,
	".pptx": CatDocument, ".odt": CatDocument, ".ods": CatDocument,
	".rtf": CatDocument, ".txt": CatDocument, ".md": CatDocument,
	".csv": CatDocument, ".epub": CatDocument,

	// Logs and scratch files
	".log": CatLog, ".temp": CatLog, ".tmp": CatLog, ".bak": CatLog,
	".swp": CatLog, ".old": CatLog,

	// Executables
	".exe": CatExecutable, ".bin": CatExecutable, ".elf": CatExecutable,
	".out": CatExecutable, ".so": CatExecutable, ".dll": CatExecutable,
	".dylib": CatExecutable, ".wasm": CatExecutable, ".class": CatExecutable,
}

// ClassifyFile returns the category for a given filename.
func ClassifyFile(name string) FileCategory {
	ext := strings.ToLower(getExt(name))
	if cat, ok := extMap[ext]; ok {
		return cat
	}
	return CatOther
}

// Extensions returns the suffixes (without the dot) of a category, sorted.
func Extensions(cat FileCategory) []string {
	var out []string
	for ext, c := range extMap {
		if c == cat {
			out = append(out, ext[1:])
		}
	}
	sort.Strings(out)
	return out
}

// GetExtension returns the lowercase extension of a filename, dot included.
func GetExtension(name string) string {
	return strings.ToLower(getExt(name))
}

// Suffix returns the lowercase extension of a filename without the dot.
func Suffix(name string) string {
	ext := getExt(name)
	if ext == "" {
		return ""
	}
	return strings.ToLower(ext[1:])
}

func getExt(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[i:]
		}
		if name[i] == '/' || name[i] == '\\' {
			break
		}
	}
	return ""
}
