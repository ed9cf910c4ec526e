package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "lookup <phrase>",
		Short: "Resolve a phrase against the catalog",
		Long:  "Resolve a symptom name or alias. Exits non-zero when the phrase is not in the catalog.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runLookup,
	}

	RootCmd.AddCommand(cmd)
}

func runLookup(cmd *cobra.Command, args []string) {
	phrase := strings.Join(args, " ")

	a := mustOpenApp()
	defer a.Close()

	sym, ok := a.svc.Lookup(phrase)
	if !ok {
		fmt.Fprintf(os.Stderr, "not found: %q\n", phrase)
		a.Close()
		os.Exit(1)
	}

	printOutput(sym, func(w io.Writer) { printSymptomText(w, sym) })
}
