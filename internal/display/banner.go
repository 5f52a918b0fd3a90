package display

import (
	"fmt"
	"io"

	"github.com/backmassage/framestamp/internal/term"
)

const banner = ` _____                         _
|  ___| __ __ _ _ __ ___   ___ | |_ __ _ _ __ ___  _ __
| |_ | '__/ _` + "`" + ` | '_ ` + "`" + ` _ \ / _ \/ __| __/ _` + "`" + ` | '_ ` + "`" + ` _ \| '_ \
|  _|| | | (_| | | | | | |  __/\__ \ || (_| | | | | | | |_) |
|_|  |_|  \__,_|_| |_| |_|\___||___/\__\__,_|_| |_| |_| .__/
                                                      |_|`

// PrintBanner writes the ASCII art banner and version line to w, in magenta
// when colors are enabled.
func PrintBanner(w io.Writer, version string) {
	fmt.Fprintln(w, term.Colorize(term.Magenta, banner))
	fmt.Fprintf(w, "  batch video overlays v%s\n\n", version)
}
