// Package table is the field-map view of the tutoring spreadsheet.
// Column names are the contract with the sheet and must not be renamed.
package table

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

type Table string

// Tables
const (
	Students  Table = "Students"
	StudyLogs Table = "StudyLogs"
	Homework  Table = "Homework"
	Summaries Table = "Summaries"
)

// Columns
const (
	ColName           = "이름"
	ColPassword       = "비밀번호"
	ColRole           = "역할"
	ColDate           = "날짜"
	ColSubject        = "과목"
	ColMinutes        = "시간(분)"
	ColMemo           = "메모"
	ColID             = "ID"
	ColContent        = "내용"
	ColDone           = "완료여부"
	ColStudentName    = "학생이름"
	ColLessonContent  = "수업내용"
	ColHomeworkNotice = "숙제및공지"
)

// Wire values of the 완료여부 column.
const (
	True  = "TRUE"
	False = "FALSE"
)

var (
	ErrRowNotFound   = errors.New("row not found")
	ErrUnknownTable  = errors.New("unknown table")
	ErrUnknownColumn = errors.New("unknown column")
	ErrNotUpdatable  = errors.New("table has no key column")

	AllTables = []Table{Students, StudyLogs, Homework, Summaries}

	columns = map[Table][]string{
		Students:  {ColName, ColPassword, ColRole},
		StudyLogs: {ColDate, ColName, ColSubject, ColMinutes, ColMemo},
		Homework:  {ColID, ColDate, ColName, ColContent, ColDone},
		Summaries: {ColDate, ColStudentName, ColLessonContent, ColHomeworkNotice},
	}
	keyColumns = map[Table]string{
		Homework: ColID,
	}
)

// Row is one record keyed by column name.
type Row map[string]string

// Store is a backend holding the four tables.
// Implementations report transport and credential failures as core.ConnectivityError.
type Store interface {
	// Ping checks that every table can be reached.
	Ping(ctx context.Context) error
	// FetchTable returns the rows of t in sheet order.
	FetchTable(ctx context.Context, t Table) ([]Row, error)
	// AppendRow adds a row; values follow t.Columns().
	AppendRow(ctx context.Context, t Table, values []string) error
	// UpdateCell sets `field` of the row whose key column equals rowKey.
	UpdateCell(ctx context.Context, t Table, rowKey, field, value string) error
}

func (t Table) Columns() []string {
	return columns[t]
}

func (t Table) KeyColumn() (string, bool) {
	col, ok := keyColumns[t]
	return col, ok
}

func (t Table) Valid() bool {
	_, ok := columns[t]
	return ok
}

// ColumnIndex returns the position of col in the schema of t, -1 when absent.
func (t Table) ColumnIndex(col string) int {
	for i, c := range columns[t] {
		if c == col {
			return i
		}
	}
	return -1
}

// CheckAppend validates an AppendRow call against the schema.
func CheckAppend(t Table, values []string) error {
	if !t.Valid() {
		return errors.Wrap(ErrUnknownTable, string(t))
	}
	if len(values) != len(t.Columns()) {
		return errors.Errorf("%s expects %d values, got %d", t, len(t.Columns()), len(values))
	}
	return nil
}

// CheckUpdate validates an UpdateCell call against the schema and returns the key column.
func CheckUpdate(t Table, field string) (string, error) {
	if !t.Valid() {
		return "", errors.Wrap(ErrUnknownTable, string(t))
	}
	key, ok := t.KeyColumn()
	if !ok {
		return "", errors.Wrap(ErrNotUpdatable, string(t))
	}
	if t.ColumnIndex(field) < 0 || field == key {
		return "", errors.Wrapf(ErrUnknownColumn, "%s.%s", t, field)
	}
	return key, nil
}

// FormatBool encodes b as the sheet's boolean text.
func FormatBool(b bool) string {
	if b {
		return True
	}
	return False
}

// ParseBool decodes the sheet's boolean text. Anything but TRUE is false.
func ParseBool(s string) bool {
	return strings.TrimSpace(s) == True
}
