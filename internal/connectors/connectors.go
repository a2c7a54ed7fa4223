package connectors

import (
	"bytes"
	"strings"

	"github.com/jhillyerd/enmime"

	"wbsync/internal"
)

// MailConnector pulls the newest attachment matching a sender and filename
// filter out of a mailbox, scanning at most maxScan recent messages.
type MailConnector interface {
	FetchLatestAttachment(from, filename string, maxScan int) (internal.MailAttachment, error)
}

// ExtractAttachment parses a raw RFC 822 message and returns the first
// attachment whose filename matches the filter. Some senders attach the
// archive as an inline part, so those are scanned too.
func ExtractAttachment(raw []byte, filter string) (string, []byte, bool, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return "", nil, false, err
	}
	for _, part := range env.Attachments {
		if MatchesFilename(part.FileName, filter) {
			return part.FileName, part.Content, true, nil
		}
	}
	for _, part := range env.OtherParts {
		if MatchesFilename(part.FileName, filter) {
			return part.FileName, part.Content, true, nil
		}
	}
	return "", nil, false, nil
}

// MatchesFilename reports whether an attachment name satisfies the filter.
// An empty filter matches any named attachment.
func MatchesFilename(name, filter string) bool {
	if name == "" {
		return false
	}
	if filter == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(filter))
}
