package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"FinTrack/internal/handler/api"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFile = `[
  {"amount": "100", "date": "2024-01-05T10:00:00Z", "description": "salary"},
  {"amount": "-50", "date": "2024-01-20T10:00:00Z", "description": "groceries"},
  {"amount": "200", "date": "2024-02-03T10:00:00Z", "description": "bonus"}
]`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var root CLI
	var out bytes.Buffer
	root.Out = &out
	parser, err := kong.New(&root, kong.Name("fintrack"), kong.BindTo(context.Background(), (*context.Context)(nil)))
	require.NoError(t, err)
	kctx, err := parser.Parse(args)
	if err != nil {
		return "", err
	}
	err = kctx.Run(&root.Globals)
	return out.String(), err
}

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tx.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleFile), 0o600))
	return path
}

func TestSummaryOfflineJSON(t *testing.T) {
	path := writeSample(t)
	out, err := run(t, "--timezone", "UTC", "summary", "--file", path,
		"--start", "2024-01-01", "--end", "2024-03-01", "--format", "json")
	require.NoError(t, err)

	var rows []api.GroupSummaryDTO
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-01", rows[0].Period)
	assert.Equal(t, json.Number("50"), rows[0].Total)
	assert.Equal(t, 2, rows[0].Count)
	assert.Equal(t, "2024-02", rows[1].Period)
	assert.Equal(t, json.Number("200"), rows[1].Total)
}

func TestSummaryOfflineExpenseTable(t *testing.T) {
	path := writeSample(t)
	out, err := run(t, "--timezone", "UTC", "summary", "-f", path, "--mode", "expense", "--group-by", "year")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "PERIOD")
	assert.Contains(t, lines[1], "2024")
	assert.Contains(t, lines[1], "-50")
}

func TestSummaryRejectsBadInput(t *testing.T) {
	path := writeSample(t)

	_, err := run(t, "summary", "--file", path, "--group-by", "quarter")
	assert.ErrorContains(t, err, "quarter")

	_, err = run(t, "summary", "--file", path, "--period", "fortnight")
	assert.ErrorContains(t, err, "fortnight")

	_, err = run(t, "summary")
	assert.ErrorContains(t, err, "--file or --server")

	_, err = run(t, "summary", "--file", path, "--server", "http://localhost")
	assert.Error(t, err)
}

func TestSummaryRemote(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":200,"message":"OK","data":[{"period":"2024-W01","total":12.5,"count":1,"startDate":"2024-01-02T00:00:00Z","endDate":"2024-01-02T00:00:00Z"}]}`))
	}))
	defer srv.Close()

	out, err := run(t, "summary", "--server", srv.URL+"/", "--mode", "income", "--group-by", "week", "--period", "lastmonth", "--format", "json")
	require.NoError(t, err)
	assert.Equal(t, "/api/summary/income", gotPath)
	assert.Contains(t, gotQuery, "groupBy=week")
	assert.Contains(t, gotQuery, "period=lastmonth")
	assert.NotContains(t, gotQuery, "startDate")

	var rows []api.GroupSummaryDTO
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "2024-W01", rows[0].Period)
	assert.Equal(t, json.Number("12.5"), rows[0].Total)
}

func TestSummaryRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":400,"message":"Bad Request","data":[{"code":"ERR_UNSUPPORTED_GROUP_BY"}]}`))
	}))
	defer srv.Close()

	_, err := run(t, "summary", "--server", srv.URL, "--group-by", "quarter")
	assert.ErrorContains(t, err, "400")
}

func TestFeedURL(t *testing.T) {
	cases := map[string]string{
		"http://localhost:8080":           "ws://localhost:8080/api/feed",
		"https://fin.example/":            "wss://fin.example/api/feed",
		"ws://localhost:8080/custom/feed": "ws://localhost:8080/custom/feed",
	}
	for in, want := range cases {
		got, err := feedURL(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := feedURL("ftp://nope")
	assert.Error(t, err)
}
