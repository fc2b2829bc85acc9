// Package export appends decoded leads to a Google Sheets spreadsheet.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"leadgen/leads"
)

// ErrNotAuthenticated is returned by Deliver before the OAuth flow has been
// completed.
var ErrNotAuthenticated = errors.New("google sheets not authenticated; run `leadgen sheets-auth`")

// header is the column layout of exported rows.
var header = []string{"Timestamp", "Company", "Contact Info", "Email", "Summary", "Outreach Message", "Tools Used"}

// SheetsExporter appends one row per lead to a spreadsheet range.
type SheetsExporter struct {
	config        *oauth2.Config
	tokenFile     string
	spreadsheetID string
	writeRange    string
	now           func() time.Time

	mu      sync.RWMutex
	service *sheets.Service
}

// NewSheetsExporter creates an exporter with OAuth credentials.
func NewSheetsExporter(clientID, clientSecret, redirectURL, tokenFile, spreadsheetID, writeRange string) *SheetsExporter {
	return &SheetsExporter{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{sheets.SpreadsheetsScope},
			Endpoint:     google.Endpoint,
		},
		tokenFile:     tokenFile,
		spreadsheetID: spreadsheetID,
		writeRange:    writeRange,
		now:           time.Now,
	}
}

// Init initializes the Sheets service.
// Returns an auth URL if the user needs to authenticate, empty string if already authenticated.
func (s *SheetsExporter) Init(ctx context.Context) (authURL string, err error) {
	if s.config.ClientID == "" || s.config.ClientSecret == "" {
		return "", fmt.Errorf("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET are required")
	}

	token, err := s.tokenFromFile()
	if err != nil {
		return s.config.AuthCodeURL("state-token", oauth2.AccessTypeOffline), nil
	}

	return "", s.connect(ctx, token)
}

// CompleteAuth finishes the OAuth flow with the authorization code.
func (s *SheetsExporter) CompleteAuth(ctx context.Context, authCode string) error {
	token, err := s.config.Exchange(ctx, authCode)
	if err != nil {
		return fmt.Errorf("exchanging auth code: %w", err)
	}

	if err := s.saveToken(token); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}

	return s.connect(ctx, token)
}

func (s *SheetsExporter) connect(ctx context.Context, token *oauth2.Token) error {
	client := s.config.Client(ctx, token)
	service, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return fmt.Errorf("creating sheets service: %w", err)
	}

	s.mu.Lock()
	s.service = service
	s.mu.Unlock()
	return nil
}

func (s *SheetsExporter) Name() string {
	return "google_sheets"
}

// Deliver appends the leads below the existing rows of the configured range.
// An empty range gets the column header first.
func (s *SheetsExporter) Deliver(ctx context.Context, list leads.LeadList) error {
	s.mu.RLock()
	service := s.service
	s.mu.RUnlock()

	if service == nil {
		return ErrNotAuthenticated
	}

	rows := Rows(list, s.now())
	existing, err := service.Spreadsheets.Values.Get(s.spreadsheetID, s.writeRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("reading range: %w", err)
	}
	if len(existing.Values) == 0 {
		rows = append([][]any{headerRow()}, rows...)
	}

	values := &sheets.ValueRange{Values: rows}
	_, err = service.Spreadsheets.Values.Append(s.spreadsheetID, s.writeRange, values).
		Context(ctx).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Do()
	if err != nil {
		return fmt.Errorf("appending rows: %w", err)
	}
	return nil
}

func headerRow() []any {
	row := make([]any, len(header))
	for i, h := range header {
		row[i] = h
	}
	return row
}

// Rows lays out one spreadsheet row per lead, in header order.
func Rows(list leads.LeadList, at time.Time) [][]any {
	stamp := at.Format("2006-01-02 15:04:05")
	rows := make([][]any, 0, list.Len())
	for _, l := range list.Leads {
		rows = append(rows, []any{
			stamp,
			l.Company,
			l.ContactInfo,
			l.Email,
			l.Summary,
			l.OutreachMessage,
			strings.Join(l.ToolsUsed, ", "),
		})
	}
	return rows
}

func (s *SheetsExporter) tokenFromFile() (*oauth2.Token, error) {
	f, err := os.Open(s.tokenFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	token := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(token)
	return token, err
}

func (s *SheetsExporter) saveToken(token *oauth2.Token) error {
	f, err := os.OpenFile(s.tokenFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}
