package sink

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NeoPangea/dbatools/event"
)

func sampleRecord() event.Record {
	return event.Record{
		"ComputerName": "SQL01",
		"Database":     "AdventureWorks",
		"Index":        "PK_Orders",
		"Schema":       "dbo",
		"Table":        "Orders",
		"action":       "REBUILD",
		"options":      "ONLINE=ON",
		"outcome":      "Succeeded",
		"Duration":     "00:00:12",
		"Endtime":      "2017-05-01 02:00:15",
		"PageCount":    "1250",
	}
}

func TestJSONSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewJSONSink(&buf)
	require.NoError(t, s.Write(sampleRecord()))
	require.NoError(t, s.Write(event.Record{"Database": "Northwind"}))
	require.NoError(t, s.Close())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first map[string]string
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "AdventureWorks", first["Database"])
	assert.Equal(t, "REBUILD", first["action"])
	assert.Equal(t, "1250", first["PageCount"])
}

func TestCSVSinkSparseColumns(t *testing.T) {
	var buf bytes.Buffer
	s := NewCSVSink(&buf)
	require.NoError(t, s.Write(event.Record{"Database": "a", "PageCount": "12"}))
	require.NoError(t, s.Write(event.Record{"Database": "b", "outcome": "Succeeded"}))
	require.NoError(t, s.Close())

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"Database", "PageCount", "outcome"}, rows[0])
	assert.Equal(t, []string{"a", "12", ""}, rows[1])
	assert.Equal(t, []string{"b", "", "Succeeded"}, rows[2])
}

func TestCSVSinkEmpty(t *testing.T) {
	var buf bytes.Buffer
	s := NewCSVSink(&buf)
	require.NoError(t, s.Close())
	assert.Zero(t, buf.Len(), "no records should mean no output, not a bare header")
}

func TestStoreRoundTrip(t *testing.T) {
	store, err := OpenStore(t.TempDir() + "/maint.db")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Write(sampleRecord()))
	require.NoError(t, store.Write(event.Record{
		"Database": "Northwind",
		"outcome":  "Failed",
		"Duration": "not a duration",
		"Endtime":  "not a timestamp",
	}))

	var rows []IndexAction
	require.NoError(t, store.db.Order("id").Find(&rows).Error)
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, "AdventureWorks", first.DatabaseName)
	assert.Equal(t, "PK_Orders", first.IndexName)
	assert.Equal(t, "REBUILD", first.Action)
	assert.Equal(t, int64(12), first.DurationSeconds)
	require.NotNil(t, first.EndTime)
	assert.Equal(t, 2017, first.EndTime.Year())

	var extra map[string]string
	require.NoError(t, json.Unmarshal([]byte(first.ExtraJSON), &extra))
	assert.Equal(t, map[string]string{"PageCount": "1250"}, extra)

	second := rows[1]
	assert.Equal(t, "Failed", second.Outcome)
	assert.Zero(t, second.DurationSeconds, "unparseable duration keeps only the raw string")
	assert.Nil(t, second.EndTime, "unparseable timestamp stays null")
	assert.Equal(t, "not a duration", second.Duration)
}
