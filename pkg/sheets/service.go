// Package sheets is the Google Sheets persistence adapter. It exposes the
// spreadsheet as three row tables (tasks, threads, reminders) behind typed
// operations; every stringly-typed storage quirk stays inside this package.
package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Options configure the adapter. Worksheet names default to the original
// layout when empty.
type Options struct {
	SpreadsheetID   string
	CredentialsFile string // service-account JSON key
	TasksSheet      string
	ThreadsSheet    string
	RemindersSheet  string
}

// Store is a thin client over one spreadsheet. It holds no row data between
// calls: every operation re-reads the sheet, so external edits are picked up
// on the next call.
type Store struct {
	srv            *sheets.Service
	spreadsheetID  string
	tasksSheet     string
	threadsSheet   string
	remindersSheet string
	sheetIDs       map[string]int64 // worksheet title -> numeric sheet id
}

// New authenticates with the service-account key, builds the Sheets client
// and makes sure the three worksheets exist with their header rows.
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.TasksSheet == "" {
		opts.TasksSheet = "tasks"
	}
	if opts.ThreadsSheet == "" {
		opts.ThreadsSheet = "threads"
	}
	if opts.RemindersSheet == "" {
		opts.RemindersSheet = "reminders"
	}

	key, err := os.ReadFile(opts.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read service account file %s: %w", opts.CredentialsFile, err)
	}
	conf, err := google.JWTConfigFromJSON(key, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service account file: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets client: %w", err)
	}

	s := &Store{
		srv:            srv,
		spreadsheetID:  opts.SpreadsheetID,
		tasksSheet:     opts.TasksSheet,
		threadsSheet:   opts.ThreadsSheet,
		remindersSheet: opts.RemindersSheet,
		sheetIDs:       make(map[string]int64),
	}
	if err := s.ensureSheets(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// ensureSheets creates missing worksheets and rewrites header rows that
// drifted from the fixed layout.
func (s *Store) ensureSheets(ctx context.Context) error {
	ss, err := s.srv.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to open spreadsheet %s: %w", s.spreadsheetID, err)
	}
	for _, sheet := range ss.Sheets {
		s.sheetIDs[sheet.Properties.Title] = sheet.Properties.SheetId
	}

	wanted := map[string][]string{
		s.tasksSheet:     taskHeaders,
		s.threadsSheet:   threadHeaders,
		s.remindersSheet: reminderHeaders,
	}
	for title, headers := range wanted {
		if _, ok := s.sheetIDs[title]; !ok {
			resp, err := s.srv.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
				Requests: []*sheets.Request{{
					AddSheet: &sheets.AddSheetRequest{
						Properties: &sheets.SheetProperties{Title: title},
					},
				}},
			}).Context(ctx).Do()
			if err != nil {
				return fmt.Errorf("unable to create worksheet %s: %w", title, err)
			}
			s.sheetIDs[title] = resp.Replies[0].AddSheet.Properties.SheetId
			slog.Info("worksheet created", "sheet", title)
		}
		if err := s.ensureHeaders(ctx, title, headers); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ensureHeaders(ctx context.Context, title string, headers []string) error {
	resp, err := s.srv.Spreadsheets.Values.Get(s.spreadsheetID, title+"!1:1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to read headers of %s: %w", title, err)
	}
	if len(resp.Values) > 0 && headerMatches(resp.Values[0], headers) {
		return nil
	}
	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	_, err = s.srv.Spreadsheets.Values.Update(s.spreadsheetID, title+"!A1", &sheets.ValueRange{
		Values: [][]interface{}{row},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to write headers of %s: %w", title, err)
	}
	slog.Info("headers updated", "sheet", title)
	return nil
}

func headerMatches(got []interface{}, want []string) bool {
	if len(got) < len(want) {
		return false
	}
	for i, h := range want {
		if fmt.Sprint(got[i]) != h {
			return false
		}
	}
	return true
}
