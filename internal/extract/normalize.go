package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// MinSolutionLength is the shortest text accepted as a solution.
const MinSolutionLength = 10

var entities = strings.NewReplacer(
	"&nbsp;", " ",
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
)

// NormalizeHTML turns the inner markup of a highlighted code block into
// plain source text: tags dropped, the four common entities unescaped,
// blank lines removed and every line trimmed.
func NormalizeHTML(markup string) string {
	text := markup

	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup)); err == nil {
		text = doc.Text()
	}

	text = unescape(text)
	text = strings.ReplaceAll(text, "\u00a0", " ")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	return fixTrailingBraces(compactLines(text))
}

// unescape repeats until no entity is left; every replacement shortens the
// string so the loop terminates.
func unescape(text string) string {
	for {
		next := entities.Replace(text)
		if next == text {
			return text
		}

		text = next
	}
}

func compactLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]

	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}

	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// fixTrailingBraces removes a duplicated closing brace the highlighter
// sometimes leaves at the end of a block. It only fires when the text has
// more closing than opening braces.
func fixTrailingBraces(text string) string {
	if strings.Count(text, "}") <= strings.Count(text, "{") {
		return text
	}

	switch {
	case strings.HasSuffix(text, "}\n}"):
		return strings.TrimSpace(text[:len(text)-2])
	case strings.HasSuffix(text, "}  }"):
		return text[:len(text)-3] + "}"
	}

	return text
}
