package pipeline

import (
	"fmt"
	"path/filepath"

	"wbsync/internal/config"
	"wbsync/internal/connectors"
	"wbsync/internal/pricefile"
)

// DownloadService fetches the price archive from the mailbox, unpacks it
// and splits the price list into per-brand files under the target dir.
type DownloadService struct {
	cfg   config.Config
	fetch *connectors.FetchService
}

func NewDownloadService(cfg config.Config, connector connectors.MailConnector) *DownloadService {
	return &DownloadService{cfg: cfg, fetch: connectors.NewFetchService(cfg, connector)}
}

func (s *DownloadService) Run() ([]string, error) {
	zipPath, err := s.fetch.FetchArchive()
	if err != nil {
		return nil, fmt.Errorf("fetch price archive: %w", err)
	}
	fmt.Printf("archive saved: %s\n", zipPath)

	if err := pricefile.Unzip(zipPath, s.cfg.TargetDir); err != nil {
		return nil, err
	}

	priceFile, err := pricefile.FindPriceFile(s.cfg.TargetDir)
	if err != nil {
		return nil, err
	}
	fmt.Printf("price file: %s\n", priceFile)

	created, err := pricefile.SplitByBrand(priceFile, s.cfg.TargetDir)
	if err != nil {
		return nil, fmt.Errorf("split %s by brand: %w", priceFile, err)
	}
	for _, path := range created {
		fmt.Printf("  wrote %s\n", filepath.Base(path))
	}
	return created, nil
}
