package sheet

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// GoogleAuth carries the OAuth client credentials for the Sheets API.
type GoogleAuth struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	RefreshToken string
}

// GoogleClient binds Store to the Google Sheets v4 API.
type GoogleClient struct {
	svc *sheetsapi.Service
}

func NewGoogleClient(ctx context.Context, auth GoogleAuth) (*GoogleClient, error) {
	if auth.ClientID == "" || auth.ClientSecret == "" || auth.RefreshToken == "" {
		return nil, fmt.Errorf("missing google sheets credentials")
	}

	oauthCfg := &oauth2.Config{
		ClientID:     auth.ClientID,
		ClientSecret: auth.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  auth.RedirectURI,
		Scopes:       []string{sheetsapi.SpreadsheetsScope},
	}
	tokenSource := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: auth.RefreshToken})

	svc, err := sheetsapi.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, err
	}
	return &GoogleClient{svc: svc}, nil
}

// Open returns a Store over one spreadsheet document.
func (c *GoogleClient) Open(spreadsheetID string) Store {
	return &googleStore{svc: c.svc, id: spreadsheetID}
}

type googleStore struct {
	svc *sheetsapi.Service
	id  string
}

func (s *googleStore) sheetID(name string) (int64, error) {
	meta, err := s.svc.Spreadsheets.Get(s.id).Fields("sheets.properties").Do()
	if err != nil {
		return 0, err
	}
	for _, sh := range meta.Sheets {
		if sh.Properties != nil && sh.Properties.Title == name {
			return sh.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrTabNotFound, name)
}

func (s *googleStore) Tab(name string) (Tab, error) {
	sheetID, err := s.sheetID(name)
	if err != nil {
		return nil, err
	}
	return &googleTab{store: s, name: name, sheetID: sheetID}, nil
}

func (s *googleStore) HasTab(name string) bool {
	_, err := s.sheetID(name)
	return err == nil
}

func (s *googleStore) InsertTab(name string) (Tab, error) {
	req := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			AddSheet: &sheetsapi.AddSheetRequest{
				Properties: &sheetsapi.SheetProperties{Title: name},
			},
		}},
	}
	resp, err := s.svc.Spreadsheets.BatchUpdate(s.id, req).Do()
	if err != nil {
		return nil, err
	}
	added := resp.Replies[0].AddSheet.Properties
	return &googleTab{store: s, name: name, sheetID: added.SheetId}, nil
}

func (s *googleStore) DeleteTab(name string) error {
	sheetID, err := s.sheetID(name)
	if err != nil {
		return err
	}
	req := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			DeleteSheet: &sheetsapi.DeleteSheetRequest{SheetId: sheetID},
		}},
	}
	_, err = s.svc.Spreadsheets.BatchUpdate(s.id, req).Do()
	return err
}

func (s *googleStore) TabNames() ([]string, error) {
	meta, err := s.svc.Spreadsheets.Get(s.id).Fields("sheets.properties").Do()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(meta.Sheets))
	for _, sh := range meta.Sheets {
		if sh.Properties != nil {
			names = append(names, sh.Properties.Title)
		}
	}
	return names, nil
}

// Flush is a no-op: the Sheets API applies writes synchronously.
func (s *googleStore) Flush() error { return nil }

type googleTab struct {
	store   *googleStore
	name    string
	sheetID int64
}

func (t *googleTab) Name() string { return t.name }

func (t *googleTab) rangeRef(row, col, numRows, numCols int) string {
	return fmt.Sprintf("%s!%s%d:%s%d",
		t.name, ColumnName(col), row, ColumnName(col+numCols-1), row+numRows-1)
}

func (t *googleTab) LastRow() (int, error) {
	resp, err := t.store.svc.Spreadsheets.Values.Get(t.store.id, t.name).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Do()
	if err != nil {
		return 0, err
	}
	last := 0
	for i, row := range resp.Values {
		if !IsRowEmpty(row) {
			last = i + 1
		}
	}
	return last, nil
}

func (t *googleTab) GetRange(row, col, numRows, numCols int) ([][]Value, error) {
	resp, err := t.store.svc.Spreadsheets.Values.Get(t.store.id, t.rangeRef(row, col, numRows, numCols)).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Do()
	if err != nil {
		return nil, err
	}

	out := make([][]Value, numRows)
	for i := 0; i < numRows; i++ {
		cells := make([]Value, numCols)
		if i < len(resp.Values) {
			for j := 0; j < numCols && j < len(resp.Values[i]); j++ {
				cells[j] = resp.Values[i][j]
			}
		}
		out[i] = cells
	}
	return out, nil
}

func (t *googleTab) SetRange(row, col int, values [][]Value) error {
	if len(values) == 0 {
		return nil
	}
	width := 0
	body := make([][]any, len(values))
	for i, r := range values {
		if len(r) > width {
			width = len(r)
		}
		cells := make([]any, len(r))
		for j, v := range r {
			if v == nil {
				cells[j] = ""
			} else {
				cells[j] = v
			}
		}
		body[i] = cells
	}

	_, err := t.store.svc.Spreadsheets.Values.Update(t.store.id,
		t.rangeRef(row, col, len(values), width),
		&sheetsapi.ValueRange{Values: body}).
		ValueInputOption("RAW").
		Do()
	return err
}

func (t *googleTab) ClearRange(row, col, numRows, numCols int) error {
	_, err := t.store.svc.Spreadsheets.Values.Clear(t.store.id,
		t.rangeRef(row, col, numRows, numCols),
		&sheetsapi.ClearValuesRequest{}).
		Do()
	return err
}

func (t *googleTab) Sort(row, col, numRows, numCols, byCol int, ascending bool) error {
	order := "ASCENDING"
	if !ascending {
		order = "DESCENDING"
	}
	req := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			SortRange: &sheetsapi.SortRangeRequest{
				Range: &sheetsapi.GridRange{
					SheetId:          t.sheetID,
					StartRowIndex:    int64(row - 1),
					EndRowIndex:      int64(row - 1 + numRows),
					StartColumnIndex: int64(col - 1),
					EndColumnIndex:   int64(col - 1 + numCols),
				},
				SortSpecs: []*sheetsapi.SortSpec{{
					DimensionIndex: int64(byCol - 1),
					SortOrder:      order,
				}},
			},
		}},
	}
	_, err := t.store.svc.Spreadsheets.BatchUpdate(t.store.id, req).Do()
	return err
}
