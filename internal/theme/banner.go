package theme

import (
	"fmt"
	"io"
)

// Banner returns the tw banner.
func Banner() string {
	const cyan = "\033[36m"
	const yellow = "\033[33m"
	const reset = "\033[0m"

	return "" +
		cyan + "  ████████ ██     ██\n" + reset +
		cyan + "     ██    ██  █  ██\n" + reset +
		cyan + "     ██    ██ ███ ██\n" + reset +
		cyan + "     ██     ███ ███\n" + reset +
		yellow + "  ───────────────────\n" + reset +
		"  signed posts from your terminal\n"
}

// PrintBanner prints the banner to w.
func PrintBanner(w io.Writer) {
	fmt.Fprint(w, Banner())
}

// VersionLine formats the version with the build revision when known.
func VersionLine(version, revision string) string {
	if revision == "" {
		return "tw v" + version
	}
	return fmt.Sprintf("tw v%s (revision %s)", version, revision)
}
