package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/rcliao/symptom-catalog/internal/catalog"
	"github.com/rcliao/symptom-catalog/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show catalog and review log statistics",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

type statsOutput struct {
	CatalogPath    string                  `json:"catalog_path" yaml:"catalog_path"`
	CatalogEntries int                     `json:"catalog_entries" yaml:"catalog_entries"`
	Mappings       int                     `json:"mappings" yaml:"mappings"`
	NextCode       string                  `json:"next_code" yaml:"next_code"`
	Categories     []catalog.CategoryCount `json:"categories" yaml:"categories"`
	Reviews        *store.Stats            `json:"reviews,omitempty" yaml:"reviews,omitempty"`
}

func runStats(cmd *cobra.Command, args []string) {
	a := mustOpenApp()
	defer a.Close()

	snap := a.catalog.Snapshot()
	out := statsOutput{
		CatalogPath:    a.catalog.Path(),
		CatalogEntries: snap.Len(),
		Mappings:       snap.Mappings(),
		NextCode:       a.catalog.NextCode(),
		Categories:     a.catalog.Categories(),
	}
	if a.reviews != nil {
		st, err := a.reviews.Stats(cmd.Context())
		if err != nil {
			exitErr("stats", err)
		}
		out.Reviews = st
	}

	printOutput(out, func(w io.Writer) {
		fmt.Fprintf(w, "catalog:   %s\n", out.CatalogPath)
		fmt.Fprintf(w, "entries:   %d (%d names and aliases)\n", out.CatalogEntries, out.Mappings)
		fmt.Fprintf(w, "next code: %s\n", out.NextCode)
		for _, c := range out.Categories {
			fmt.Fprintf(w, "  %-20s %d\n", c.Category, c.Count)
		}
		if out.Reviews != nil {
			fmt.Fprintf(w, "reviews:   %d mentions, %d sightings (%s, %d bytes)\n",
				out.Reviews.Total, out.Reviews.Sightings, out.Reviews.DBPath, out.Reviews.DBSizeBytes)
			for _, sc := range out.Reviews.ByStatus {
				fmt.Fprintf(w, "  %-20s %d\n", sc.Status, sc.Count)
			}
			for _, tm := range out.Reviews.TopPending {
				fmt.Fprintf(w, "  pending: %s (%d)\n", tm.Mention, tm.SeenCount)
			}
		}
	})
}
