package report

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"gitlab.com/slon/wgetter/harness"
)

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")

	err := WriteXLSX(path, []harness.Measurement{
		{Name: "Synchronous", Elapsed: 1200 * time.Millisecond, Result: 20},
		{Name: "Worker pool", Elapsed: 300 * time.Millisecond, Result: 20},
		{Name: "Cooperative", Elapsed: 5 * time.Millisecond, Err: errors.New("refused")},
	})
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheet)
	require.NoError(t, err)

	expected := [][]string{
		{"Strategy", "Elapsed ms", "Result", "Error"},
		{"Synchronous", "1200", "20"},
		{"Worker pool", "300", "20"},
		{"Cooperative", "5", "0", "refused"},
	}
	require.Empty(t, cmp.Diff(expected, rows))
}

func TestWriteXLSX_BadPath(t *testing.T) {
	err := WriteXLSX(filepath.Join(t.TempDir(), "missing", "report.xlsx"), nil)
	require.Error(t, err)
}
