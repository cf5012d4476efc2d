package cli

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"

	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/validator"
)

// PrintReport writes the validation findings of one description and returns the
// number of errors among them.
func PrintReport(w io.Writer, id string, statuses []validator.Status) int {
	out := termenv.NewOutput(w)
	red := out.Color("1")
	yellow := out.Color("3")
	green := out.Color("2")

	errs := 0
	for _, st := range statuses {
		color := yellow
		if st.Severity == validator.SeverityError {
			color = red
			errs++
		}
		fmt.Fprintf(w, "%s %s\n", out.String(string(st.Severity)).Foreground(color).Bold(), st.Code)
		fmt.Fprintf(w, "    %s: %s\n", st.Subject, st.Message)
	}

	if errs == 0 {
		fmt.Fprintf(w, "%s %s is valid (%d warnings)\n", out.String("ok").Foreground(green).Bold(), id, len(statuses))
	} else {
		fmt.Fprintf(w, "%s %s has %d errors\n", out.String("fail").Foreground(red).Bold(), id, errs)
	}
	return errs
}
