package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/rcliao/symptom-catalog/internal/model"
	"github.com/rcliao/symptom-catalog/internal/store"
)

var unknownsCmd = &cobra.Command{
	Use:   "unknowns",
	Short: "List logged unknown mentions",
	Long:  "List unknown mentions from the review log, most recently seen first.",
	Run:   runUnknowns,
}

func init() {
	unknownsCmd.Flags().StringP("status", "s", "", "Filter by status: pending or approved")
	unknownsCmd.Flags().IntP("limit", "l", 50, "Max results")

	RootCmd.AddCommand(unknownsCmd)
}

func runUnknowns(cmd *cobra.Command, args []string) {
	status, _ := cmd.Flags().GetString("status")
	limit, _ := cmd.Flags().GetInt("limit")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	items, err := s.List(cmd.Context(), store.ListParams{
		Status: status,
		Limit:  limit,
	})
	if err != nil {
		exitErr("list", err)
	}
	if items == nil {
		items = []model.ReviewItem{}
	}

	printOutput(items, func(w io.Writer) { printReviewsText(w, items) })
}

func printReviewsText(w io.Writer, items []model.ReviewItem) {
	for _, it := range items {
		status := it.Status
		if it.ResolvedCode != "" {
			status += " as " + it.ResolvedCode
		}
		fmt.Fprintf(w, "%-30s  seen %-4d  last %s  %s\n",
			it.Mention, it.SeenCount, it.LastSeenAt.Local().Format("2006-01-02 15:04"), status)
	}
}
