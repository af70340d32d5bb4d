package search

import (
	"path/filepath"
	"strings"
)

// languageByExtension maps file extensions to the language name reported in
// search matches.
var languageByExtension = map[string]string{
	".go":  "go",
	".mod": "go",
	".sum": "go",

	".ts":  "typescript",
	".tsx": "typescript",
	".js":  "javascript",
	".jsx": "javascript",
	".mjs": "javascript",
	".cjs": "javascript",

	".py": "python",

	".html": "html",
	".htm":  "html",
	".css":  "css",
	".scss": "scss",

	".json": "json",
	".yaml": "yaml",
	".yml":  "yaml",
	".xml":  "xml",
	".toml": "toml",

	".md":  "markdown",
	".mdx": "markdown",
	".txt": "text",
	".rst": "rst",

	".sh":   "shell",
	".bash": "shell",
	".zsh":  "shell",

	".sql": "sql",

	".c":   "c",
	".cpp": "cpp",
	".h":   "c",
	".hpp": "cpp",

	".java": "java",
	".rs":   "rust",
	".rb":   "ruby",
	".php":  "php",
}

// languageBySpecialName maps filenames with no extension (or a misleading
// one) to a language name.
var languageBySpecialName = map[string]string{
	"Dockerfile":     "dockerfile",
	"Makefile":       "makefile",
	"Jenkinsfile":    "groovy",
	"Vagrantfile":    "ruby",
	"Gemfile":        "ruby",
	"Rakefile":       "ruby",
	"CMakeLists.txt": "cmake",
}

// LanguageForPath detects the language of a file from its name, used to
// populate the language field of a search match. Returns "text" when no
// mapping is known.
func LanguageForPath(path string) string {
	base := filepath.Base(path)
	if lang, ok := languageBySpecialName[base]; ok {
		return lang
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext != "" {
		if lang, ok := languageByExtension[ext]; ok {
			return lang
		}
	}
	return "text"
}
