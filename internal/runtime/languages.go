package runtime

import (
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
)

// Java is the canonical name of the only supported language.
const Java = "java"

// extToLanguage maps file extensions to canonical language names.
var extToLanguage = map[string]string{
	".java": Java,
}

// LanguageForFile returns the canonical language name for a file path based
// on its extension. Returns ("", false) if the extension is not recognized.
func LanguageForFile(path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	lang, ok := extToLanguage[ext]
	return lang, ok
}

// ParserForLanguage returns the tree-sitter Language for a canonical language
// name. Returns (nil, false) if the language is not supported.
func ParserForLanguage(lang string) (*sitter.Language, bool) {
	if lang != Java {
		return nil, false
	}
	return java.GetLanguage(), true
}
