package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
)

// printOutput writes v in the selected --format. text renders the human
// form; commands without one fall back to JSON.
func printOutput(v interface{}, text func(w io.Writer)) {
	if err := writeOutput(os.Stdout, formatFlag, v, text); err != nil {
		exitErr("write output", err)
	}
}

func writeOutput(w io.Writer, format string, v interface{}, text func(w io.Writer)) error {
	switch format {
	case "yaml":
		b, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	case "text":
		if text != nil {
			text(w)
			return nil
		}
		fallthrough
	case "json", "":
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	default:
		return fmt.Errorf("unknown format %q (use json, yaml or text)", format)
	}
}
