package util

import (
	"strings"

	"github.com/sadopc/fscan/internal/model"
)

// Icon returns a Unicode icon for an entry.
func Icon(e model.Entry) string {
	switch {
	case e.Symlink:
		return "🔗"
	case e.Dir:
		if icon, ok := dirIcons[strings.ToLower(e.Name)]; ok {
			return icon
		}
		return "📁"
	}
	if icon, ok := suffixIcons[e.Suffix()]; ok {
		return icon
	}
	if icon, ok := categoryIcons[e.Category()]; ok {
		return icon
	}
	return "📄"
}

var dirIcons = map[string]string{
	".git":         "🔀",
	"node_modules": "📦",
	"vendor":       "📦",
	"build":        "🔨",
	"dist":         "📤",
	"cache":        "💾",
	".cache":       "💾",
	"tmp":          "🕐",
}

var categoryIcons = map[model.FileCategory]string{
	model.CatImage:      "🖼️",
	model.CatVideo:      "🎬",
	model.CatAudio:      "🎵",
	model.CatCode:       "💻",
	model.CatArchive:    "📦",
	model.CatPackage:    "📲",
	model.CatDocument:   "📝",
	model.CatLog:        "📜",
	model.CatExecutable: "⚡",
}

var suffixIcons = map[string]string{
	"go":   "🐹",
	"py":   "🐍",
	"rs":   "🦀",
	"pdf":  "📕",
	"iso":  "💿",
	"lock": "🔒",
	"env":  "🔐",
}
