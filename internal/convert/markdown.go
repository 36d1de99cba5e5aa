package convert

import (
	"fmt"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

// ToMarkdown converts rawHTML to Markdown with ATX ("#") headings.
// Script and style content is dropped. Link targets are not rewritten.
func ToMarkdown(rawHTML string) (string, error) {
	converter := md.NewConverter("", true, &md.Options{HeadingStyle: "atx"})
	converter.Remove("script", "style")

	out, err := converter.ConvertString(rawHTML)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to Markdown: %w", err)
	}
	return out, nil
}
