package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/symptom-catalog/internal/guardrail"
	"github.com/rcliao/symptom-catalog/internal/model"
	"github.com/rcliao/symptom-catalog/internal/service"
)

func init() {
	cmd := &cobra.Command{
		Use:   "extract [transcript]",
		Short: "Extract catalog symptoms from a transcript",
		Long: "Extract validated symptoms and unknown mentions from a transcript.\n" +
			"Reads the transcript from stdin when no argument (or \"-\") is given.",
		Run: runExtract,
	}

	cmd.Flags().Bool("guardrail", false, "Print the summarizer constraint block instead of the result")

	RootCmd.AddCommand(cmd)
}

func runExtract(cmd *cobra.Command, args []string) {
	withGuardrail, _ := cmd.Flags().GetBool("guardrail")

	transcript, err := readTranscript(args, os.Stdin)
	if err != nil {
		exitErr("read transcript", err)
	}

	a := mustOpenApp()
	defer a.Close()

	result, err := a.svc.Extract(cmd.Context(), transcript)
	if err != nil && !errors.Is(err, service.ErrReviewLog) {
		exitErr("extract", err)
	}

	if withGuardrail {
		fmt.Print(guardrail.Block(result))
	} else {
		printOutput(result, func(w io.Writer) { printResultText(w, result) })
	}

	if err != nil {
		exitErr("extract", err)
	}
}

func readTranscript(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return strings.Join(args, " "), nil
	}
	b, err := io.ReadAll(io.LimitReader(stdin, 1<<20))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func printResultText(w io.Writer, r model.ExtractionResult) {
	fmt.Fprintf(w, "Symptoms present (%d):\n", r.SymptomCount())
	for _, v := range r.Validated {
		fmt.Fprintf(w, "  %s  %s [%s]\n", v.Code, v.Name, v.Category)
	}
	fmt.Fprintf(w, "Unknown mentions (%d):\n", r.UnknownCount())
	for _, u := range r.Unknown {
		fmt.Fprintf(w, "  %s\n", u)
	}
}
