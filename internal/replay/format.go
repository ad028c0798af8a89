package replay

import "strings"

var codeStarts = []string{
	"#include", "#define", "import ", "package ", "using ",
	"int ", "void ", "def ", "class ", "public ", "struct ", "fn ", "func ",
}

var proseStarts = []string{"here", "this", "the ", "note", "explanation", "step ", "sure"}

const codePunctuation = ";{}()[]=<>+-*/&|,#\"'"

// Format drops everything before the first recognizable code line and any
// later line that reads like an explanation.
func Format(text string) string {
	lines := strings.Split(Prepare(text), "\n")

	start := -1
	for i, line := range lines {
		if hasAnyPrefix(strings.TrimSpace(line), codeStarts) {
			start = i
			break
		}
	}

	if start < 0 {
		return strings.TrimSpace(text)
	}

	kept := make([]string, 0, len(lines)-start)
	for _, line := range lines[start:] {
		if isProse(line) {
			continue
		}

		kept = append(kept, line)
	}

	return strings.TrimRight(strings.Join(kept, "\n"), "\n ")
}

func isProse(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}

	punct := 0
	for _, r := range trimmed {
		if strings.ContainsRune(codePunctuation, r) {
			punct++
		}
	}

	if hasAnyPrefix(strings.ToLower(trimmed), proseStarts) && punct == 0 {
		return true
	}

	spaces := strings.Count(trimmed, " ")

	return spaces > 3 && punct*3 < spaces
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}

	return false
}
