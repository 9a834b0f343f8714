// Package internal holds presentation helpers shared by the commands.
package internal

import (
	"fmt"

	"github.com/gookit/color"
)

// Colorized log tags, in the style of the startup console output:
// a padded label on a colored background followed by plain text.
var (
	tagLoaded = color.New(color.BgGreen, color.FgWhite)
	tagError  = color.New(color.BgRed, color.FgWhite)
	tagTitle  = color.New(color.BgWhite, color.FgBlack)
)

func LoadedTag(label string) string {
	return tagLoaded.Render(fmt.Sprintf(" [%s] ", label))
}

func ErrorTag(label string) string {
	return tagError.Render(fmt.Sprintf(" [%s] ", label))
}

// Banner renders the application header printed once at startup.
func Banner(name, version, author, description string) string {
	return fmt.Sprintf("\n%s\nBy @%s\n%s\n",
		tagTitle.Render(fmt.Sprintf(" %s (Version %s) ", name, version)),
		author,
		description,
	)
}
