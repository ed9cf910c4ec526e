package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/symptom-catalog/internal/model"
	"github.com/rcliao/symptom-catalog/internal/service"
)

func init() {
	cmd := &cobra.Command{
		Use:   "approve <mention>",
		Short: "Approve an unknown mention into the catalog",
		Long: "Bind a mention to a catalog code. A new code creates an entry; an existing\n" +
			"code gains the mention as an alias and takes the given name and category.",
		Args: cobra.MinimumNArgs(1),
		Run:  runApprove,
	}

	cmd.Flags().String("code", "", "Catalog code, e.g. S00031 (required)")
	cmd.Flags().String("name", "", "Canonical symptom name (default: the mention)")
	cmd.Flags().String("category", "", "Symptom category (required)")
	_ = cmd.MarkFlagRequired("code")
	_ = cmd.MarkFlagRequired("category")

	RootCmd.AddCommand(cmd)
}

func runApprove(cmd *cobra.Command, args []string) {
	code, _ := cmd.Flags().GetString("code")
	name, _ := cmd.Flags().GetString("name")
	category, _ := cmd.Flags().GetString("category")
	mention := strings.Join(args, " ")
	if name == "" {
		name = mention
	}

	a := mustOpenApp()
	defer a.Close()

	sym, err := a.svc.Approve(cmd.Context(), service.ApproveParams{
		Mention:  mention,
		Code:     code,
		Name:     name,
		Category: category,
	})
	if err != nil && !errors.Is(err, service.ErrReviewLog) {
		exitErr("approve", err)
	}

	printOutput(sym, func(w io.Writer) { printSymptomText(w, sym) })
	if err != nil {
		exitErr("approve", err)
	}
}

func printSymptomText(w io.Writer, s model.Symptom) {
	fmt.Fprintf(w, "%s  %s [%s]\n", s.Code, s.Name, s.Category)
	if len(s.Aliases) > 0 {
		fmt.Fprintf(w, "  aliases: %s\n", strings.Join(s.Aliases, ", "))
	}
}
