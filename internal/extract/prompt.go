package extract

import "strings"

const promptTemplate = `You are a competitive programming expert. Solve this coding challenge exactly as specified.

PROBLEM:
{{problem}}

REQUIREMENTS:
1. Read the input and output format carefully.
2. Follow the exact output format shown in the examples.
3. Handle every edge case mentioned.
4. Use only the required input and output methods (scanf/printf for C).
5. Do not print any extra text or debug output.

OUTPUT FORMAT:
- Only the complete C/C++ source code
- Start with the #include lines
- Include a main() function
- No explanations and no comments

EXAMPLE STRUCTURE:
#include <stdio.h>
int main() {
    return 0;
}

Generate the solution now:
`

// BuildPrompt embeds the full visible page text into the generation prompt.
func BuildPrompt(pageText string) string {
	return strings.Replace(promptTemplate, "{{problem}}", strings.TrimSpace(pageText), 1)
}
