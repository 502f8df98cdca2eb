// Package sheets stores the tables in a Google Sheets spreadsheet, one worksheet per table.
// Row 1 of every worksheet holds the column names.
package sheets

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/trezcool/tutor/core"
	"github.com/trezcool/tutor/storage/table"
)

var errMissingSpreadsheet = errors.New("no spreadsheet ID configured")

type (
	// valuesAPI is the part of the Sheets values service we rely on.
	valuesAPI interface {
		Get(ctx context.Context, rng string) ([][]interface{}, error)
		Append(ctx context.Context, rng string, row []interface{}) error
		Update(ctx context.Context, rng string, value interface{}) error
	}

	Options struct {
		SpreadsheetID   string
		CredentialsFile string
		CredentialsJSON string
		Timeout         time.Duration
	}

	Store struct {
		api     valuesAPI
		timeout time.Duration
	}
)

var _ table.Store = (*Store)(nil)

// Open connects to the spreadsheet with service account credentials.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.SpreadsheetID == "" {
		return nil, core.NewConnectivityError(errMissingSpreadsheet)
	}

	clientOpts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	if opts.CredentialsJSON != "" {
		clientOpts = append(clientOpts, option.WithCredentialsJSON([]byte(opts.CredentialsJSON)))
	} else {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}

	svc, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, core.NewConnectivityError(errors.Wrap(err, "creating sheets service"))
	}
	return newStore(&sheetValues{svc: svc.Spreadsheets.Values, id: opts.SpreadsheetID}, opts.Timeout), nil
}

func newStore(api valuesAPI, timeout time.Duration) *Store {
	return &Store{api: api, timeout: timeout}
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Ping checks that every worksheet exists and carries the expected column names.
func (s *Store) Ping(ctx context.Context) error {
	for _, t := range table.AllTables {
		header, err := s.header(ctx, t)
		if err != nil {
			return err
		}
		for _, col := range t.Columns() {
			if indexOf(header, col) < 0 {
				return core.NewConnectivityError(errors.Errorf("worksheet %s: missing column %q", t, col))
			}
		}
	}
	return nil
}

func (s *Store) FetchTable(ctx context.Context, t table.Table) ([]table.Row, error) {
	if !t.Valid() {
		return nil, errors.Wrap(table.ErrUnknownTable, string(t))
	}
	grid, err := s.get(ctx, string(t))
	if err != nil {
		return nil, err
	}
	if len(grid) == 0 {
		return []table.Row{}, nil
	}

	header := cellsToStrings(grid[0])
	rows := make([]table.Row, 0, len(grid)-1)
	for _, cells := range grid[1:] {
		values := cellsToStrings(cells)
		if isBlank(values) {
			continue
		}
		row := make(table.Row, len(header))
		for i, col := range header {
			if col == "" {
				continue
			}
			if i < len(values) {
				row[col] = values[i]
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *Store) AppendRow(ctx context.Context, t table.Table, values []string) error {
	if err := table.CheckAppend(t, values); err != nil {
		return err
	}
	header, err := s.header(ctx, t)
	if err != nil {
		return err
	}

	// place values under their column, whatever the worksheet order is
	row := make([]interface{}, len(header))
	for i := range row {
		row[i] = ""
	}
	for i, col := range t.Columns() {
		idx := indexOf(header, col)
		if idx < 0 {
			return core.NewConnectivityError(errors.Errorf("worksheet %s: missing column %q", t, col))
		}
		row[idx] = cellValue(col, values[i])
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.api.Append(ctx, string(t), row); err != nil {
		return core.NewConnectivityError(errors.Wrapf(err, "appending to %s", t))
	}
	return nil
}

func (s *Store) UpdateCell(ctx context.Context, t table.Table, rowKey, field, value string) error {
	key, err := table.CheckUpdate(t, field)
	if err != nil {
		return err
	}
	grid, err := s.get(ctx, string(t))
	if err != nil {
		return err
	}
	if len(grid) == 0 {
		return table.ErrRowNotFound
	}

	header := cellsToStrings(grid[0])
	keyIdx, fieldIdx := indexOf(header, key), indexOf(header, field)
	if keyIdx < 0 || fieldIdx < 0 {
		return core.NewConnectivityError(errors.Errorf("worksheet %s: missing column %q or %q", t, key, field))
	}

	for i, cells := range grid[1:] {
		values := cellsToStrings(cells)
		if keyIdx < len(values) && values[keyIdx] == rowKey {
			// +1 for the header row, +1 because A1 rows start at 1
			cell := fmt.Sprintf("%s!%s%d", t, columnName(fieldIdx), i+2)

			ctx, cancel := s.withTimeout(ctx)
			defer cancel()
			if err := s.api.Update(ctx, cell, value); err != nil {
				return core.NewConnectivityError(errors.Wrapf(err, "updating %s", cell))
			}
			return nil
		}
	}
	return table.ErrRowNotFound
}

func (s *Store) header(ctx context.Context, t table.Table) ([]string, error) {
	grid, err := s.get(ctx, string(t)+"!1:1")
	if err != nil {
		return nil, err
	}
	if len(grid) == 0 {
		return nil, core.NewConnectivityError(errors.Errorf("worksheet %s has no header row", t))
	}
	return cellsToStrings(grid[0]), nil
}

func (s *Store) get(ctx context.Context, rng string) ([][]interface{}, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	grid, err := s.api.Get(ctx, rng)
	if err != nil {
		return nil, core.NewConnectivityError(errors.Wrapf(err, "reading %s", rng))
	}
	return grid, nil
}

// columnName converts a 0-based column index to its A1 letters (0 -> A, 26 -> AA).
func columnName(idx int) string {
	name := ""
	for n := idx + 1; n > 0; n = (n - 1) / 26 {
		name = string(rune('A'+(n-1)%26)) + name
	}
	return name
}

// cellValue keeps minutes numeric in the sheet so it can still sum them.
func cellValue(col, v string) interface{} {
	if col == table.ColMinutes {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return v
}

func cellsToStrings(cells []interface{}) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		if c == nil {
			continue
		}
		out[i] = strings.TrimSpace(fmt.Sprint(c))
	}
	return out
}

func isBlank(values []string) bool {
	for _, v := range values {
		if v != "" {
			return false
		}
	}
	return true
}

func indexOf(header []string, col string) int {
	for i, h := range header {
		if h == col {
			return i
		}
	}
	return -1
}

// sheetValues adapts the generated Sheets client to valuesAPI.
type sheetValues struct {
	svc *sheets.SpreadsheetsValuesService
	id  string
}

func (v *sheetValues) Get(ctx context.Context, rng string) ([][]interface{}, error) {
	resp, err := v.svc.Get(v.id, rng).
		ValueRenderOption("FORMATTED_VALUE").
		MajorDimension("ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (v *sheetValues) Append(ctx context.Context, rng string, row []interface{}) error {
	_, err := v.svc.Append(v.id, rng, &sheets.ValueRange{Values: [][]interface{}{row}}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

func (v *sheetValues) Update(ctx context.Context, rng string, value interface{}) error {
	_, err := v.svc.Update(v.id, rng, &sheets.ValueRange{Values: [][]interface{}{{value}}}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	return err
}
