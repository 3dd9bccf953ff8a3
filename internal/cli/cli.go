// Package cli implements the fintrack command line: offline and remote
// summaries, plus a live view of transaction events.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"FinTrack/internal/domain/models"
	domrepo "FinTrack/internal/domain/repository"
	domsvc "FinTrack/internal/domain/service"
	"FinTrack/internal/handler/api"
	"FinTrack/internal/repository"
	"FinTrack/internal/service/feed"
	"FinTrack/internal/usecase"
	xhttp "FinTrack/pkg/http"
	applogger "FinTrack/pkg/logger"
	"FinTrack/pkg/util"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Globals holds flags shared by every command.
type Globals struct {
	Timezone string    `help:"IANA timezone that defines the local calendar." env:"FINTRACK_TIMEZONE"`
	LogLevel string    `name:"log-level" help:"Log level written to stderr." default:"warn" enum:"debug,info,warn,error"`
	Out      io.Writer `kong:"-"`
}

func (g *Globals) logger() *applogger.Logger {
	level, err := zerolog.ParseLevel(g.LogLevel)
	if err != nil {
		level = zerolog.WarnLevel
	}
	return applogger.NewWriter(os.Stderr, level)
}

func (g *Globals) out() io.Writer {
	if g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// CLI is the root command.
type CLI struct {
	Globals

	Summary SummaryCmd `cmd:"" help:"Summarize transactions per calendar period."`
	Watch   WatchCmd   `cmd:"" help:"Print live transaction events from a server."`
}

type SummaryCmd struct {
	File    string `short:"f" help:"JSON file of transactions to summarize offline." xor:"source" type:"existingfile"`
	Server  string `short:"s" help:"Base URL of a running FinTrack server." xor:"source"`
	Mode    string `short:"m" help:"Which transactions to include." default:"total" enum:"total,income,expense"`
	GroupBy string `name:"group-by" short:"g" help:"day, week, month or year." default:"month"`
	Period  string `short:"p" help:"today, yesterday, thisweek, lastweek, thismonth, lastmonth, thisyear or lastyear."`
	Start   string `help:"Window start: YYYY-MM-DD, RFC3339 or unix seconds."`
	End     string `help:"Window end: YYYY-MM-DD, RFC3339 or unix seconds."`
	Format  string `help:"Output format." default:"table" enum:"table,json"`
}

func (c *SummaryCmd) Run(ctx context.Context, g *Globals) error {
	var (
		rows []api.GroupSummaryDTO
		err  error
	)
	switch {
	case c.File != "":
		rows, err = c.offline(ctx, g)
	case c.Server != "":
		rows, err = c.remote(ctx)
	default:
		return fmt.Errorf("one of --file or --server is required")
	}
	if err != nil {
		return err
	}
	return writeSummary(g.out(), c.Format, rows)
}

func (c *SummaryCmd) offline(ctx context.Context, g *Globals) ([]api.GroupSummaryDTO, error) {
	clock, err := domsvc.NewSystemClock(g.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}
	txs, err := repository.ReadTransactionsFile(c.File)
	if err != nil {
		return nil, err
	}
	for i := range txs {
		if txs[i].ID == uuid.Nil {
			txs[i].ID = uuid.New()
		}
	}
	store := repository.NewMemoryStore()
	store.Seed(txs)

	q, err := c.query(clock.Now().Location())
	if err != nil {
		return nil, err
	}
	mode, err := domrepo.ParseFilterMode(modeName(c.Mode))
	if err != nil {
		return nil, err
	}

	uc := usecase.NewSummaryUseCase(store, clock, usecase.WithSummaryLogger(g.logger()))
	groups, err := uc.Summarize(ctx, q, mode)
	if err != nil {
		return nil, err
	}
	return api.NewGroupSummaryDTOs(groups), nil
}

func (c *SummaryCmd) query(loc *time.Location) (usecase.SummaryQuery, error) {
	var q usecase.SummaryQuery
	var err error
	if q.GroupBy, err = domrepo.ParseGroupBy(c.GroupBy); err != nil {
		return q, err
	}
	if q.Period, err = domrepo.ParsePeriod(c.Period); err != nil {
		return q, err
	}
	if q.Start, err = util.ParseOptionalTime(c.Start, loc); err != nil {
		return q, err
	}
	if q.End, err = util.ParseOptionalTime(c.End, loc); err != nil {
		return q, err
	}
	return q, nil
}

func (c *SummaryCmd) remote(ctx context.Context) ([]api.GroupSummaryDTO, error) {
	params := map[string][]string{"groupBy": {c.GroupBy}}
	for k, v := range map[string]string{"period": c.Period, "startDate": c.Start, "endDate": c.End} {
		if v != "" {
			params[k] = []string{v}
		}
	}
	endpoint := strings.TrimRight(c.Server, "/") + "/api/summary/" + c.Mode

	var rows []api.GroupSummaryDTO
	if err := xhttp.NewClient().GetData(ctx, endpoint, params, &rows); err != nil {
		return nil, fmt.Errorf("summary request: %w", err)
	}
	return rows, nil
}

// modeName maps the CLI/URL mode name onto the filter mode.
func modeName(s string) string {
	if s == "total" {
		return string(domrepo.ModeAll)
	}
	return s
}

func writeSummary(w io.Writer, format string, rows []api.GroupSummaryDTO) error {
	if rows == nil {
		rows = []api.GroupSummaryDTO{}
	}
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "PERIOD\tTOTAL\tCOUNT\tFIRST\tLAST\t")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t\n",
			r.Period, r.Total, r.Count,
			r.StartDate.Format(time.DateOnly), r.EndDate.Format(time.DateOnly))
	}
	return tw.Flush()
}

type WatchCmd struct {
	Server string `short:"s" required:"" help:"Server base URL or feed websocket URL."`
	Count  int    `short:"n" help:"Exit after this many events (0 watches forever)."`
}

func (c *WatchCmd) Run(ctx context.Context, g *Globals) error {
	target, err := feedURL(c.Server)
	if err != nil {
		return err
	}
	w := g.out()
	seen := 0
	return feed.Watch(ctx, target, func(ev models.TransactionEventJSON) error {
		t := ev.Transaction
		fmt.Fprintf(w, "%s %-20s %s %12s %s\n",
			ev.OccurredAt.Format(time.RFC3339), ev.Type, t.ID, t.Amount.String(), t.Description)
		seen++
		if c.Count > 0 && seen >= c.Count {
			return feed.ErrStop
		}
		return nil
	})
}

// feedURL turns an http(s) base URL into the websocket feed endpoint.
func feedURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("server url: unsupported scheme %q", u.Scheme)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/api/feed"
	}
	return u.String(), nil
}
