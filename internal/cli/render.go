package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/tad-network/tadsim/internal/cliutil"
	"github.com/tad-network/tadsim/internal/launcher"
)

// renderEvents drains the muxed event stream, writing human-readable lines
// when out is a terminal and JSON records otherwise.
func renderEvents(out, errOut io.Writer, events <-chan launcher.Event) {
	if isTerminal(out) {
		for evt := range events {
			fmt.Fprintln(out, cliutil.FormatLogEvent(evt))
		}
		return
	}

	enc := json.NewEncoder(out)
	for evt := range events {
		cliutil.EncodeLogEvent(enc, errOut, evt)
	}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}
