package imap

import (
	"crypto/tls"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	imapclient "github.com/emersion/go-imap/client"

	"wbsync/internal"
	"wbsync/internal/config"
	"wbsync/internal/connectors"
)

type Connector struct {
	server   string
	port     int
	login    string
	password string
}

func NewConnector(cfg config.Config) (*Connector, error) {
	if err := cfg.Require("IMAP_LOGIN", cfg.IMAPLogin); err != nil {
		return nil, err
	}
	if err := cfg.Require("IMAP_PASSWORD", cfg.IMAPPassword); err != nil {
		return nil, err
	}

	return &Connector{
		server:   cfg.IMAPServer,
		port:     cfg.IMAPPort,
		login:    cfg.IMAPLogin,
		password: cfg.IMAPPassword,
	}, nil
}

type fetched struct {
	messageID  string
	subject    string
	from       string
	receivedAt time.Time
	raw        []byte
}

func (c *Connector) FetchLatestAttachment(from, filename string, maxScan int) (internal.MailAttachment, error) {
	addr := fmt.Sprintf("%s:%d", c.server, c.port)
	client, err := imapclient.DialTLS(addr, &tls.Config{ServerName: c.server})
	if err != nil {
		return internal.MailAttachment{}, err
	}
	defer client.Logout()

	if err := client.Login(c.login, c.password); err != nil {
		return internal.MailAttachment{}, err
	}

	if _, err := client.Select("INBOX", true); err != nil {
		return internal.MailAttachment{}, err
	}

	criteria := imap.NewSearchCriteria()
	if from != "" {
		criteria.Header.Add("From", from)
	}
	ids, err := client.Search(criteria)
	if err != nil {
		return internal.MailAttachment{}, err
	}
	if len(ids) == 0 {
		return internal.MailAttachment{}, fmt.Errorf("no messages from %q in INBOX", from)
	}
	if maxScan > 0 && len(ids) > maxScan {
		ids = ids[len(ids)-maxScan:]
	}

	candidates, err := c.fetchMessages(client, ids)
	if err != nil {
		return internal.MailAttachment{}, err
	}

	// Newest mail first. Sequence numbers roughly follow arrival order but
	// the internal date is authoritative.
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].receivedAt.After(candidates[j].receivedAt)
	})

	for _, msg := range candidates {
		name, content, found, err := connectors.ExtractAttachment(msg.raw, filename)
		if err != nil {
			fmt.Printf("warning: cannot parse message %s: %v\n", msg.messageID, err)
			continue
		}
		if !found {
			continue
		}
		return internal.MailAttachment{
			Provider:   "imap",
			MessageID:  msg.messageID,
			Subject:    msg.subject,
			From:       msg.from,
			ReceivedAt: msg.receivedAt.UTC().Format(time.RFC3339),
			Filename:   name,
			Content:    content,
		}, nil
	}

	return internal.MailAttachment{}, fmt.Errorf("no attachment matching %q in the last %d message(s)", filename, len(candidates))
}

func (c *Connector) fetchMessages(client *imapclient.Client, ids []uint32) ([]fetched, error) {
	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchInternalDate, imap.FetchUid, section.FetchItem()}
	messages := make(chan *imap.Message, len(ids))
	fetchDone := make(chan error, 1)
	go func() { fetchDone <- client.Fetch(seqset, items, messages) }()

	out := make([]fetched, 0, len(ids))
	for msg := range messages {
		if msg == nil {
			continue
		}
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		raw, err := io.ReadAll(body)
		if err != nil {
			return nil, err
		}

		entry := fetched{raw: raw, receivedAt: time.Now().UTC()}
		if msg.Envelope != nil {
			entry.messageID = msg.Envelope.MessageId
			entry.subject = msg.Envelope.Subject
			entry.from = formatAddresses(msg.Envelope.From)
		}
		if entry.messageID == "" {
			entry.messageID = fmt.Sprintf("imap-%d", msg.Uid)
		}
		if !msg.InternalDate.IsZero() {
			entry.receivedAt = msg.InternalDate
		}
		out = append(out, entry)
	}

	if err := <-fetchDone; err != nil {
		return nil, err
	}
	return out, nil
}

func formatAddresses(addrs []*imap.Address) string {
	if len(addrs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if a == nil {
			continue
		}
		email := strings.Trim(strings.Join([]string{a.MailboxName, a.HostName}, "@"), "@")
		if a.PersonalName != "" {
			parts = append(parts, fmt.Sprintf("%s <%s>", a.PersonalName, email))
		} else {
			parts = append(parts, email)
		}
	}
	return strings.Join(parts, ", ")
}
