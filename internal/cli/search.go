package cli

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/symptom-catalog/internal/model"
	"github.com/rcliao/symptom-catalog/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the review log",
		Long:  "Search logged unknown mentions and their transcript excerpts for matching text.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}

	cmd.Flags().StringP("status", "s", "", "Filter by status: pending or approved")
	cmd.Flags().IntP("limit", "l", 20, "Max results")

	unknownsCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	status, _ := cmd.Flags().GetString("status")
	limit, _ := cmd.Flags().GetInt("limit")
	query := strings.Join(args, " ")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	results, err := s.Search(cmd.Context(), store.SearchParams{
		Query:  query,
		Status: status,
		Limit:  limit,
	})
	if err != nil {
		exitErr("search", err)
	}
	if results == nil {
		results = []model.ReviewItem{}
	}

	printOutput(results, func(w io.Writer) { printReviewsText(w, results) })
}
