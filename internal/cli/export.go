package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the review log as CSV",
		Long: "Export the review log as CSV with columns\n" +
			"Timestamp,Unknown_Symptom,Context_Transcript,Status.",
		Run: runExport,
	}

	cmd.Flags().StringP("output", "o", "", "Write to file instead of stdout")

	unknownsCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	output, _ := cmd.Flags().GetString("output")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if output == "" {
		if _, err := s.ExportCSV(cmd.Context(), os.Stdout); err != nil {
			exitErr("export", err)
		}
		return
	}

	n, err := exportToFile(output, func(w io.Writer) (int, error) {
		return s.ExportCSV(cmd.Context(), w)
	})
	if err != nil {
		exitErr("export", err)
	}
	fmt.Fprintf(os.Stderr, "exported %d review items to %s\n", n, output)
}

// exportToFile creates path and runs write against it.
func exportToFile(path string, write func(io.Writer) (int, error)) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create output: %w", err)
	}
	return writeAndClose(f, write)
}

// writeAndClose reports a failed close like a failed write, since data not
// yet flushed is lost either way.
func writeAndClose(wc io.WriteCloser, write func(io.Writer) (int, error)) (int, error) {
	n, err := write(wc)
	if err != nil {
		wc.Close()
		return n, err
	}
	if err := wc.Close(); err != nil {
		return n, fmt.Errorf("close output: %w", err)
	}
	return n, nil
}
