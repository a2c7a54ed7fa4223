package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"wbsync/internal"
	"wbsync/internal/config"
	"wbsync/internal/connectors"
	gmailconnector "wbsync/internal/connectors/gmail"
	imapconnector "wbsync/internal/connectors/imap"
	"wbsync/internal/mapping"
	"wbsync/internal/pipeline"
	"wbsync/internal/zeroing"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	switch cmd {
	case "config:check":
		must(checkSetup(cfg))
		fmt.Println("configuration OK")
	case "warehouses:list":
		svc := pipeline.NewUpdateService(cfg)
		warehouses, err := svc.Warehouses(context.Background())
		must(err)
		for _, warehouse := range warehouses {
			fmt.Printf("%d\t%s\n", warehouse.ID, warehouse.Name)
		}
	case "price:fetch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", cfg.MailProvider, "imap|gmail")
		_ = fs.Parse(os.Args[2:])
		conn, err := makeConnector(cfg, *provider)
		must(err)
		created, err := pipeline.NewDownloadService(cfg, conn).Run()
		must(err)
		fmt.Printf("price fetch done files=%d\n", len(created))
	case "stocks:zero":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		yes := fs.Bool("yes", false, "skip confirmation prompt")
		_ = fs.Parse(os.Args[2:])
		summary, err := runZeroing(cfg, confirmFunc(*yes))
		must(err)
		fmt.Printf("zeroing done warehouses=%d skus=%d zeroed=%d failedBatches=%d\n",
			summary.Warehouses, summary.SKUs, summary.Zeroed, summary.BatchesFail)
	case "update:run":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		yes := fs.Bool("yes", false, "skip confirmation prompt")
		_ = fs.Parse(os.Args[2:])
		summary, err := pipeline.NewUpdateService(cfg).Run(context.Background(), confirmFunc(*yes))
		must(err)
		printRunSummary(summary)
	case "run:full":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", cfg.MailProvider, "imap|gmail")
		yes := fs.Bool("yes", false, "skip confirmation prompts")
		_ = fs.Parse(os.Args[2:])
		confirm := confirmFunc(*yes)

		// Failed steps are reported and the cycle moves on; only the final
		// update step or an operator refusal aborts the run.
		zeroSummary, err := runZeroing(cfg, confirm)
		if errors.Is(err, zeroing.ErrCancelled) {
			must(err)
		}
		if err != nil {
			fmt.Printf("warning: zeroing step failed: %v\n", err)
		} else {
			fmt.Printf("zeroing done warehouses=%d zeroed=%d\n", zeroSummary.Warehouses, zeroSummary.Zeroed)
		}

		if cfg.ZeroPauseSec > 0 {
			fmt.Printf("waiting %ds for zeroing to settle...\n", cfg.ZeroPauseSec)
			time.Sleep(time.Duration(cfg.ZeroPauseSec) * time.Second)
		}

		conn, err := makeConnector(cfg, *provider)
		if err != nil {
			fmt.Printf("warning: price fetch step skipped: %v\n", err)
		} else if created, err := pipeline.NewDownloadService(cfg, conn).Run(); err != nil {
			fmt.Printf("warning: price fetch step failed: %v\n", err)
		} else {
			fmt.Printf("price fetch done files=%d\n", len(created))
		}

		summary, err := pipeline.NewUpdateService(cfg).Run(context.Background(), confirm)
		must(err)
		printRunSummary(summary)
	default:
		usage()
		os.Exit(1)
	}
}

func runZeroing(cfg config.Config, confirm internal.ConfirmFunc) (zeroing.Summary, error) {
	table, err := loadMapping(cfg)
	if err != nil {
		return zeroing.Summary{}, err
	}
	return zeroing.NewDriver(cfg).Run(context.Background(), table.SKUs(), confirm)
}

func loadMapping(cfg config.Config) (*mapping.Table, error) {
	path := cfg.MappingFile
	if path == "" {
		found, err := mapping.Find(cfg.BaseDir, cfg.MappingFilePattern)
		if err != nil {
			return nil, fmt.Errorf("locate mapping workbook: %w", err)
		}
		path = found
	}
	table, err := mapping.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load mapping workbook %s: %w", path, err)
	}
	fmt.Printf("mapping workbook %s: %d articles\n", path, table.Len())
	return table, nil
}

// checkSetup validates the environment before a scheduled run: credentials
// present for the configured provider, working directories creatable and the
// mapping workbook locatable. A missing workbook is a warning, the update
// run degrades to unmatched-only rather than failing.
func checkSetup(cfg config.Config) error {
	problems := 0
	check := func(name string, err error) {
		if err != nil {
			problems++
			fmt.Printf("  fail %s: %v\n", name, err)
			return
		}
		fmt.Printf("  ok   %s\n", name)
	}

	check("WB_API_TOKEN", cfg.RequireToken())

	switch strings.ToLower(strings.TrimSpace(cfg.MailProvider)) {
	case "imap":
		check("IMAP_LOGIN", cfg.Require("IMAP_LOGIN", cfg.IMAPLogin))
		check("IMAP_PASSWORD", cfg.Require("IMAP_PASSWORD", cfg.IMAPPassword))
	case "gmail":
		check("GMAIL_CLIENT_ID", cfg.Require("GMAIL_CLIENT_ID", cfg.GmailClientID))
		check("GMAIL_CLIENT_SECRET", cfg.Require("GMAIL_CLIENT_SECRET", cfg.GmailClientSecret))
		check("GMAIL_REFRESH_TOKEN", cfg.Require("GMAIL_REFRESH_TOKEN", cfg.GmailRefreshToken))
	default:
		check("MAIL_PROVIDER", fmt.Errorf("unsupported provider: %s", cfg.MailProvider))
	}
	check("EMAIL_FROM", cfg.Require("EMAIL_FROM", cfg.EmailFrom))
	check("ATTACHMENT_FILENAME", cfg.Require("ATTACHMENT_FILENAME", cfg.AttachmentFilename))

	for _, dir := range []string{cfg.BaseDir, cfg.DownloadDir, cfg.TargetDir} {
		check(dir, os.MkdirAll(dir, 0o755))
	}

	if _, err := loadMapping(cfg); err != nil {
		fmt.Printf("  warn mapping workbook: %v\n", err)
	}

	if problems > 0 {
		return fmt.Errorf("%d configuration problem(s)", problems)
	}
	return nil
}

// confirmFunc returns the confirmation gate for mutating commands. With
// --yes it approves everything, otherwise it prompts on the terminal.
func confirmFunc(yes bool) internal.ConfirmFunc {
	if yes {
		return func(summary string) bool {
			fmt.Printf("%s: pre-approved\n", summary)
			return true
		}
	}
	reader := bufio.NewReader(os.Stdin)
	return func(summary string) bool {
		fmt.Printf("%s. Proceed? [y/N]: ", summary)
		line, err := reader.ReadString('\n')
		if err != nil {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes" || answer == "да"
	}
}

func makeConnector(cfg config.Config, provider string) (connectors.MailConnector, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "imap":
		return imapconnector.NewConnector(cfg)
	case "gmail":
		return gmailconnector.NewConnector(cfg)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func printRunSummary(s pipeline.RunSummary) {
	fmt.Printf("update done brands=%d skipped=%d records=%d matched=%d unmatched=%d\n",
		s.BrandsProcessed, s.BrandsSkipped, s.Records, s.Matched, s.Unmatched)
	fmt.Printf("  stocks sent=%d batches=%d failed=%d\n", s.StocksSent, s.StockBatchesSent, s.StockBatchesFail)
	fmt.Printf("  prices sent=%d batches=%d failed=%d\n", s.PricesSent, s.PriceBatchesSent, s.PriceBatchesFail)
}

func usage() {
	fmt.Println("usage: wbsync <command>")
	fmt.Println("commands:")
	fmt.Println("  config:check")
	fmt.Println("  warehouses:list")
	fmt.Println("  price:fetch --provider=imap|gmail")
	fmt.Println("  stocks:zero [--yes]")
	fmt.Println("  update:run [--yes]")
	fmt.Println("  run:full --provider=imap|gmail [--yes]")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
