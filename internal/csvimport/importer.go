package csvimport

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"ContactScanner/internal/domain"
)

// Importer turns exported connection and message CSVs into contacts and a
// previously-messaged lookup set. Column positions are resolved from the
// header row, so exports with reordered columns still load.
type Importer struct {
	logger *slog.Logger
}

// NewImporter wires an optional logger.
func NewImporter(logger *slog.Logger) *Importer {
	return &Importer{logger: logger}
}

// connection export header names, matched case-insensitively after trimming
var connectionColumns = map[string][]string{
	"firstName": {"first name", "firstname"},
	"lastName":  {"last name", "lastname"},
	"email":     {"email address", "email"},
	"company":   {"company"},
	"position":  {"position", "title"},
	"connected": {"connected on", "connected"},
	"url":       {"url", "profile url", "profile link"},
}

// Connections parses a connections export into pending contacts. Rows
// missing both a name and a URL are dropped; malformed rows are logged and
// skipped rather than failing the import.
func (im *Importer) Connections(r io.Reader) ([]domain.Contact, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := readHeader(reader)
	if err != nil {
		return nil, fmt.Errorf("read connections header: %w", err)
	}
	cols := resolveColumns(header, connectionColumns)
	if cols["firstName"] < 0 && cols["url"] < 0 {
		return nil, fmt.Errorf("connections file: unrecognized header %v", header)
	}

	var contacts []domain.Contact
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			im.warn("skip malformed connections row", "line", line, "error", err)
			continue
		}

		contact := domain.Contact{
			FirstName:  field(record, cols["firstName"]),
			LastName:   field(record, cols["lastName"]),
			Email:      field(record, cols["email"]),
			ProfileURL: field(record, cols["url"]),
			Profile: domain.ProfileInfo{
				Company: field(record, cols["company"]),
				Role:    field(record, cols["position"]),
			},
			Activity:  domain.ActivityInfo{Level: domain.ActivityUnknown, PostFrequency: domain.PostUnknown},
			Status:    domain.StatusPending,
			CreatedAt: time.Now(),
		}
		if contact.FullName() == "" && contact.ProfileURL == "" {
			continue
		}

		if raw := field(record, cols["connected"]); raw != "" {
			if parsed, err := dateparse.ParseAny(raw); err == nil {
				contact.ConnectionDate = &parsed
			} else {
				im.warn("unparseable connection date", "line", line, "value", raw)
			}
		}

		contact.ID = contactID(contact)
		contacts = append(contacts, contact)
	}

	return contacts, nil
}

var messageColumns = map[string][]string{
	"conversation": {"conversation id", "conversationid"},
	"from":         {"from", "sender"},
	"to":           {"to", "recipient profile urls", "recipient"},
	"date":         {"date", "datetime"},
	"content":      {"content", "message"},
}

// MessagedSet parses a messages export and returns the set of normalized
// profile handles that have already been contacted.
func (im *Importer) MessagedSet(r io.Reader) (map[string]bool, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := readHeader(reader)
	if err != nil {
		return nil, fmt.Errorf("read messages header: %w", err)
	}
	cols := resolveColumns(header, messageColumns)
	if cols["to"] < 0 && cols["from"] < 0 {
		return nil, fmt.Errorf("messages file: unrecognized header %v", header)
	}

	messaged := map[string]bool{}
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			im.warn("skip malformed messages row", "line", line, "error", err)
			continue
		}

		for _, col := range []int{cols["from"], cols["to"]} {
			for _, ref := range strings.Split(field(record, col), ";") {
				if handle := NormalizeHandle(ref); handle != "" {
					messaged[handle] = true
				}
			}
		}
	}

	return messaged, nil
}

// NormalizeHandle reduces a profile URL to its stable lowercase handle so
// that http/https, hosts, query strings, and trailing slashes all compare
// equal.
func NormalizeHandle(ref string) string {
	ref = strings.TrimSpace(strings.ToLower(ref))
	if ref == "" {
		return ""
	}
	for _, prefix := range []string{"https://", "http://"} {
		ref = strings.TrimPrefix(ref, prefix)
	}
	if i := strings.IndexByte(ref, '?'); i >= 0 {
		ref = ref[:i]
	}
	if i := strings.IndexByte(ref, '#'); i >= 0 {
		ref = ref[:i]
	}
	ref = strings.TrimSuffix(ref, "/")

	if i := strings.Index(ref, "/in/"); i >= 0 {
		return ref[i+len("/in/"):]
	}
	// bare handle or unknown shape: last path segment
	if i := strings.LastIndexByte(ref, '/'); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

func contactID(c domain.Contact) string {
	if handle := NormalizeHandle(c.ProfileURL); handle != "" {
		return handle
	}
	name := strings.ToLower(strings.ReplaceAll(c.FullName(), " ", "-"))
	return "name:" + name
}

func readHeader(reader *csv.Reader) ([]string, error) {
	for {
		record, err := reader.Read()
		if err != nil {
			return nil, err
		}
		// LinkedIn-style exports prepend free-text notes before the header.
		if len(record) >= 3 {
			return record, nil
		}
	}
}

func resolveColumns(header []string, wanted map[string][]string) map[string]int {
	cols := map[string]int{}
	for key := range wanted {
		cols[key] = -1
	}
	for idx, name := range header {
		cleaned := strings.ToLower(strings.TrimSpace(name))
		for key, aliases := range wanted {
			for _, alias := range aliases {
				if cleaned == alias {
					cols[key] = idx
				}
			}
		}
	}
	return cols
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func (im *Importer) warn(msg string, args ...any) {
	if im.logger != nil {
		im.logger.Warn(msg, args...)
	}
}
