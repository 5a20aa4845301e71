package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mercator-hq/matchgram/pkg/evidence"
)

func sample() []*evidence.Record {
	t := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return []*evidence.Record{
		{ID: "a", Time: t, Source: "http", RuleSet: "anti-spam", RuleName: "gambling", Matched: true, ChatID: -100},
		{ID: "b", Time: t.Add(time.Second), Source: "nats", Group: -1, Error: "bad, \"quoted\" error"},
	}
}

func TestJSONExporter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONExporter(false).Export(context.Background(), sample(), &buf))

	var got []*evidence.Record
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "gambling", got[0].RuleName)

	buf.Reset()
	require.NoError(t, NewJSONExporter(true).Export(context.Background(), nil, &buf))
	assert.Equal(t, "[]\n", buf.String())
}

func TestJSONLinesExporter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSONLinesExporter{}.Export(context.Background(), sample(), &buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
}

func TestCSVExporter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewCSVExporter(true).Export(context.Background(), sample(), &buf))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, header, rows[0])
	assert.Equal(t, "2026-03-01T12:00:00Z", rows[1][1])
	assert.Equal(t, "true", rows[1][7])
	assert.Equal(t, "-100", rows[1][10])
	assert.Equal(t, `bad, "quoted" error`, rows[2][15])
}

func TestNew(t *testing.T) {
	for _, f := range Formats {
		_, err := New(f)
		assert.NoError(t, err, f)
	}
	_, err := New("xml")
	assert.Error(t, err)
}
