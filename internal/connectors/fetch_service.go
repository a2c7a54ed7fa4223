package connectors

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"wbsync/internal/config"
)

// FetchService pulls the supplier's price archive from the mailbox and
// saves it into the download directory.
type FetchService struct {
	cfg       config.Config
	connector MailConnector
}

func NewFetchService(cfg config.Config, connector MailConnector) *FetchService {
	return &FetchService{cfg: cfg, connector: connector}
}

// FetchArchive downloads the newest matching attachment and returns the
// local path it was saved to.
func (s *FetchService) FetchArchive() (string, error) {
	attachment, err := s.connector.FetchLatestAttachment(s.cfg.EmailFrom, s.cfg.AttachmentFilename, s.cfg.MailScanMax)
	if err != nil {
		return "", err
	}
	if len(attachment.Content) == 0 {
		return "", errors.New("fetched attachment is empty")
	}

	if err := os.MkdirAll(s.cfg.DownloadDir, 0o755); err != nil {
		return "", err
	}

	name := attachment.Filename
	if name == "" {
		name = "price.zip"
	}
	path := filepath.Join(s.cfg.DownloadDir, filepath.Base(name))
	if err := os.WriteFile(path, attachment.Content, 0o644); err != nil {
		return "", err
	}

	fmt.Printf("fetched %q from %s (%s, %d bytes)\n", attachment.Filename, attachment.From, attachment.ReceivedAt, len(attachment.Content))
	return path, nil
}
