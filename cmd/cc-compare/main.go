// cc-compare prints one table row per summary_<label>.json found in a results
// directory.
package main

import (
	"CCSpectra/internal/compare"
	"CCSpectra/internal/logging"
	"flag"
	"fmt"
	"os"
)

var dir = flag.String("dir", "results", "Directory holding the summary_<label>.json files.")

func main() {
	flag.Parse()

	summaries, err := compare.LoadSummaries(*dir)
	if err != nil {
		logging.Logger.WithField("dir", *dir).WithError(err).Error("failed to load summaries")
		os.Exit(1)
	}
	fmt.Print(compare.Render(summaries))
}
