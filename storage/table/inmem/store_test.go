package inmem

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/tutor/core"
	"github.com/trezcool/tutor/storage/table"
)

const seed = `
Students:
  - {이름: 민지, 비밀번호: "1234", 역할: Student}
Homework:
  - {ID: hw-1, 날짜: 2024-03-06, 이름: 민지, 내용: Workbook, 완료여부: true}
  - {ID: hw-2, 날짜: 2024-03-07, 이름: 민지, 내용: Essay, 완료여부: false}
`

func TestStore_Seed(t *testing.T) {
	s := New()
	require.NoError(t, s.Seed([]byte(seed)))

	hws, err := s.FetchTable(context.Background(), table.Homework)
	require.NoError(t, err)
	require.Len(t, hws, 2)
	assert.Equal(t, table.Row{
		table.ColID:      "hw-1",
		table.ColDate:    "2024-03-06",
		table.ColName:    "민지",
		table.ColContent: "Workbook",
		table.ColDone:    table.True,
	}, hws[0])
	assert.Equal(t, table.False, hws[1][table.ColDone])

	assert.ErrorIs(t, s.Seed([]byte("Grades: []")), table.ErrUnknownTable)
	assert.Error(t, s.Seed([]byte("{not yaml")))
}

func TestOpen(t *testing.T) {
	s, err := Open("")
	require.NoError(t, err)
	rows, err := s.FetchTable(context.Background(), table.Students)
	require.NoError(t, err)
	assert.Empty(t, rows)

	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o600))
	s, err = Open(path)
	require.NoError(t, err)
	rows, err = s.FetchTable(context.Background(), table.Students)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = Open(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestStore_AppendAndUpdate(t *testing.T) {
	s := New()
	require.NoError(t, s.Seed([]byte(seed)))
	ctx := context.Background()

	require.NoError(t, s.AppendRow(ctx, table.Summaries, []string{"2024-03-05", "민지", "Algebra", "p.10"}))
	sums, err := s.FetchTable(ctx, table.Summaries)
	require.NoError(t, err)
	require.Len(t, sums, 1)
	assert.Equal(t, "Algebra", sums[0][table.ColLessonContent])

	assert.Error(t, s.AppendRow(ctx, table.Summaries, []string{"2024-03-05"}))

	require.NoError(t, s.UpdateCell(ctx, table.Homework, "hw-2", table.ColDone, table.True))
	hws, _ := s.FetchTable(ctx, table.Homework)
	assert.Equal(t, table.True, hws[1][table.ColDone])
	assert.ErrorIs(t, s.UpdateCell(ctx, table.Homework, "hw-9", table.ColDone, table.True), table.ErrRowNotFound)
	assert.ErrorIs(t, s.UpdateCell(ctx, table.Students, "민지", table.ColRole, "Teacher"), table.ErrNotUpdatable)
}

func TestStore_FetchTableReturnsCopies(t *testing.T) {
	s := New()
	require.NoError(t, s.Seed([]byte(seed)))
	ctx := context.Background()

	hws, _ := s.FetchTable(ctx, table.Homework)
	hws[0][table.ColDone] = table.False

	again, _ := s.FetchTable(ctx, table.Homework)
	assert.Equal(t, table.True, again[0][table.ColDone])
}

func TestStore_SetUnavailable(t *testing.T) {
	s := New()
	ctx := context.Background()

	s.SetUnavailable(errors.New("network is unreachable"))
	assert.True(t, core.IsConnectivity(s.Ping(ctx)))
	_, err := s.FetchTable(ctx, table.Students)
	assert.True(t, core.IsConnectivity(err))
	assert.True(t, core.IsConnectivity(s.AppendRow(ctx, table.Summaries, []string{"", "", "", ""})))

	s.SetUnavailable(nil)
	assert.NoError(t, s.Ping(ctx))
}

func TestStore_concurrentAccess(t *testing.T) {
	s := New()
	require.NoError(t, s.Seed([]byte(seed)))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.AppendRow(ctx, table.Summaries, []string{"2024-03-05", "민지", "x", "y"})
		}()
		go func() {
			defer wg.Done()
			_, _ = s.FetchTable(ctx, table.Summaries)
		}()
	}
	wg.Wait()

	sums, err := s.FetchTable(ctx, table.Summaries)
	require.NoError(t, err)
	assert.Len(t, sums, 20)
}
