package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rcliao/symptom-catalog/internal/mcp"
)

// Version is set at build time with -ldflags "-X".
var Version = "dev"

func init() {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve MCP tools over stdio",
		Long:  "Serve extract_symptoms, approve_symptom and the review tools to an MCP client over stdin/stdout.",
		Run:   runMCP,
	}

	cmd.Flags().Bool("watch", false, "Reload the catalog when its file changes (overrides catalog.watch)")

	RootCmd.AddCommand(cmd)
}

func runMCP(cmd *cobra.Command, args []string) {
	a := mustOpenApp()
	defer a.Close()

	if cmd.Flags().Changed("watch") {
		a.cfg.Catalog.Watch, _ = cmd.Flags().GetBool("watch")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if a.cfg.Catalog.Watch {
		w, err := startWatcher(ctx, a)
		if err != nil {
			exitErr("watch catalog", err)
		}
		defer w.Stop()
	}

	srv, err := mcp.NewServer(&mcp.Config{
		Name:    "symptom-catalog",
		Version: Version,
		Logger:  a.logger,
	}, a.svc)
	if err != nil {
		exitErr("create mcp server", err)
	}
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		exitErr("mcp", err)
	}
}
