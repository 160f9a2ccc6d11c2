package archive

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAppendsRecords(t *testing.T) {
	svc := NewAt(filepath.Join(t.TempDir(), "sessions.jsonl"))

	first := Record{
		ExportID:   "1700000000:42:yubot",
		SessionID:  "42",
		Turns:      15,
		History:    []string{"こんにちは", "元気です"},
		FinishedAt: time.Unix(1700000000, 0).UTC(),
	}
	second := Record{
		ExportID:  "1700000100:43:yubot",
		SessionID: "43",
		Turns:     15,
	}

	require.NoError(t, svc.Save(first))
	require.NoError(t, svc.Save(second))

	records, err := svc.Load()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, first, records[0])
	assert.Equal(t, "1700000100:43:yubot", records[1].ExportID)
}

func TestLoadEmptyArchive(t *testing.T) {
	svc := NewAt(filepath.Join(t.TempDir(), "sessions.jsonl"))

	records, err := svc.Load()
	require.NoError(t, err)
	assert.Empty(t, records)
}
