package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/symptom-catalog/internal/catalog"
	"github.com/rcliao/symptom-catalog/internal/model"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and build the symptom catalog",
}

func init() {
	list := &cobra.Command{
		Use:   "list",
		Short: "List catalog entries",
		Run:   runCatalogList,
	}
	list.Flags().String("category", "", "Filter by category")

	initCmd := &cobra.Command{
		Use:   "init <dataset.csv>",
		Short: "Create the catalog from a disease/symptom dataset",
		Long: "Create the catalog file from the header row of a disease/symptom matrix CSV.\n" +
			"Refuses to overwrite an existing catalog.",
		Args: cobra.ExactArgs(1),
		Run:  runCatalogInit,
	}

	convert := &cobra.Command{
		Use:   "convert [dataset.csv]",
		Short: "Convert a disease/symptom dataset to catalog CSV on stdout",
		Args:  cobra.MaximumNArgs(1),
		Run:   runCatalogConvert,
	}

	nextCode := &cobra.Command{
		Use:   "next-code",
		Short: "Print the next unused catalog code",
		Run:   runCatalogNextCode,
	}

	check := &cobra.Command{
		Use:   "check",
		Short: "Validate the catalog file",
		Run:   runCatalogCheck,
	}

	reload := &cobra.Command{
		Use:   "reload",
		Short: "Ask a running server to reload the catalog",
		Run:   runCatalogReload,
	}
	reload.Flags().String("addr", "", "Server address (default: server.host:server.port from config)")

	catalogCmd.AddCommand(list, initCmd, convert, nextCode, check, reload)
	RootCmd.AddCommand(catalogCmd)
}

func openCatalog() (*catalog.Catalog, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return catalog.Open(cfg.Catalog.Path)
}

func runCatalogList(cmd *cobra.Command, args []string) {
	category, _ := cmd.Flags().GetString("category")

	cat, err := openCatalog()
	if err != nil {
		exitErr("open catalog", err)
	}

	entries := cat.All()
	if category != "" {
		filtered := entries[:0]
		for _, e := range entries {
			if strings.EqualFold(e.Category, category) {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}
	if entries == nil {
		entries = []model.Symptom{}
	}

	printOutput(entries, func(w io.Writer) {
		for _, e := range entries {
			printSymptomText(w, e)
		}
	})
}

func runCatalogInit(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}

	symptoms := convertDataset(args[0])
	if err := catalog.Init(cfg.Catalog.Path, symptoms); err != nil {
		exitErr("init catalog", err)
	}
	fmt.Printf(`{"ok":true,"path":%q,"entries":%d}`+"\n", cfg.Catalog.Path, len(symptoms))
}

func runCatalogConvert(cmd *cobra.Command, args []string) {
	src := "-"
	if len(args) == 1 {
		src = args[0]
	}
	if err := catalog.WriteCSV(os.Stdout, convertDataset(src)); err != nil {
		exitErr("write catalog", err)
	}
}

func convertDataset(src string) []model.Symptom {
	var r io.Reader = os.Stdin
	if src != "-" {
		f, err := os.Open(src)
		if err != nil {
			exitErr("open dataset", err)
		}
		defer f.Close()
		r = f
	}
	symptoms, err := catalog.Convert(r)
	if err != nil {
		exitErr("convert dataset", err)
	}
	return symptoms
}

func runCatalogNextCode(cmd *cobra.Command, args []string) {
	cat, err := openCatalog()
	if err != nil {
		exitErr("open catalog", err)
	}
	fmt.Println(cat.NextCode())
}

func runCatalogCheck(cmd *cobra.Command, args []string) {
	cat, err := openCatalog()
	if err != nil {
		exitErr("check catalog", err)
	}
	snap := cat.Snapshot()
	fmt.Printf(`{"ok":true,"entries":%d,"mappings":%d}`+"\n", snap.Len(), snap.Mappings())
}

func runCatalogReload(cmd *cobra.Command, args []string) {
	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		cfg, err := loadConfig()
		if err != nil {
			exitErr("load config", err)
		}
		addr = cfg.Server.Addr()
	}
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}

	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, strings.TrimSuffix(addr, "/")+"/catalog/reload", nil)
	if err != nil {
		exitErr("reload", err)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		exitErr("reload", err)
	}
	defer resp.Body.Close()

	var body map[string]interface{}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body)
	if resp.StatusCode != http.StatusOK {
		exitErr("reload", fmt.Errorf("server returned %s: %v", resp.Status, body["message"]))
	}
	printOutput(body, nil)
}
