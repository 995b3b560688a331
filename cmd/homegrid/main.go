package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/nicobailon/homegrid/internal/cache"
	"github.com/nicobailon/homegrid/internal/config"
	"github.com/nicobailon/homegrid/internal/content"
	"github.com/nicobailon/homegrid/internal/grid"
	"github.com/nicobailon/homegrid/internal/history"
	"github.com/nicobailon/homegrid/internal/logging"
	"github.com/nicobailon/homegrid/internal/shell"
	"github.com/nicobailon/homegrid/internal/tui"
	"github.com/nicobailon/homegrid/internal/tui/theme"
	"github.com/nicobailon/homegrid/pkg/version"
	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"
)

var (
	versionFlag  bool
	resolveFlag  bool
	matchFlag    string
	keysFlag     string
	traceFlag    bool
	historyLimit int
)

func main() {
	err := rootCmd.Execute()
	logging.Shutdown()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "homegrid",
	Short:        "Browse a paginated media home screen in the terminal",
	SilenceUsage: true,
	RunE:         runRoot,
}

func init() {
	rootCmd.Version = version.Version
	rootCmd.Flags().BoolVarP(&versionFlag, "version", "v", false, "Show version")

	listCmd.Flags().BoolVar(&resolveFlag, "resolve", false, "Resolve every deferred row before printing")
	listCmd.Flags().StringVar(&matchFlag, "match", "", "Fuzzy filter rows by row or tile title")
	navCmd.Flags().StringVar(&keysFlag, "keys", "", "Comma separated commands: left,right,up,down (or h,l,k,j)")
	navCmd.Flags().BoolVar(&traceFlag, "trace", false, "Print every presenter call")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Entries to show")

	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatsCmd)

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(navCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(cacheCmd)
}

type services struct {
	cfg    *config.Config
	cache  *cache.Store
	client *content.Client
}

func (s *services) Close() {
	if s.cache != nil {
		s.cache.Close()
	}
}

func loadServices() (*services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Init(logging.Config{
		Dir:    cfg.LogDir(),
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Debug:  cfg.Log.Debug,
	})

	svc := &services{cfg: cfg}
	if cfg.Cache.Enabled {
		store, err := cache.Open(cfg.Cache.Path)
		if err != nil {
			logging.Logger().Warn("cache_unavailable", slog.String("path", cfg.Cache.Path), slog.Any("err", err))
		} else {
			svc.cache = store
		}
	}
	svc.client = content.New(content.Options{
		BaseURL:           cfg.APIBaseURL,
		ImageRatio:        cfg.ImageRatio,
		Timeout:           cfg.RequestTimeout(),
		RequestsPerSecond: cfg.RequestsPerSecond,
		Cache:             svc.cache,
		CacheTTL:          cfg.CacheTTL(),
	})
	return svc, nil
}

func gridOptions(cfg *config.Config) grid.Options {
	return grid.Options{
		PrefetchThresholdRows: cfg.PrefetchThresholdRows,
		FetchBatchLimit:       cfg.FetchBatchLimit,
		PreviewDelay:          cfg.PreviewDelay(),
		Dedup:                 grid.DedupKey(cfg.DedupKey),
		ResolveConcurrency:    cfg.ResolveConcurrency,
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runRoot(cmd *cobra.Command, args []string) error {
	if versionFlag {
		fmt.Println(version.Version)
		return nil
	}

	svc, err := loadServices()
	if err != nil {
		return err
	}
	defer svc.Close()

	if !theme.Apply(svc.cfg.Theme) {
		logging.Logger().Warn("unknown_theme", slog.String("theme", svc.cfg.Theme))
	}

	hist, err := history.Load()
	if err != nil {
		logging.Logger().Warn("history_unavailable", slog.Any("err", err))
		hist = nil
	}

	deps := tui.Deps{
		Content:   svc.client,
		Options:   gridOptions(svc.cfg),
		History:   hist,
		Commander: &shell.ExecCommander{},
		Player:    svc.cfg.Player,
	}
	if svc.cfg.ProbeAssets {
		deps.Prober = content.NewProber(nil, svc.cfg.RequestsPerSecond)
	}
	return tui.New(deps).Run()
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the rows of the home screen",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := loadServices()
		if err != nil {
			return err
		}
		defer svc.Close()
		ctx, cancel := signalContext()
		defer cancel()
		return listAction(ctx, cmd.OutOrStdout(), svc.client, gridOptions(svc.cfg), resolveFlag, matchFlag)
	},
}

func listAction(ctx context.Context, w io.Writer, src grid.ContentService, opts grid.Options, resolve bool, match string) error {
	p := grid.NewPipeline(grid.NewRowStore(), src, opts)
	p.LoadInitial(ctx)
	if resolve {
		for p.Pending() > 0 {
			if _, err := p.FetchMore(ctx, opts.FetchBatchLimit); err != nil {
				return err
			}
		}
	}
	rows := p.DrainReady()

	if match != "" {
		haystack := make([]string, len(rows))
		for i, r := range rows {
			names := []string{r.Title}
			for _, t := range r.Children {
				names = append(names, t.Title)
			}
			haystack[i] = strings.Join(names, " ")
		}
		var filtered []*grid.Row
		for _, m := range fuzzy.Find(match, haystack) {
			filtered = append(filtered, rows[m.Index])
		}
		rows = filtered
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Rows")
	for _, r := range rows {
		fmt.Fprintf(w, " %3d  %-32s %2d tiles\n", r.ID, r.Title, len(r.Children))
	}
	if n := p.Pending(); n > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%d deferred rows not resolved (use --resolve)\n", n)
	}
	fmt.Fprintln(w)
	return nil
}

var navCmd = &cobra.Command{
	Use:   "nav",
	Short: "Replay navigation commands without a terminal UI",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmds, err := parseKeys(keysFlag)
		if err != nil {
			return err
		}
		svc, err := loadServices()
		if err != nil {
			return err
		}
		defer svc.Close()
		ctx, cancel := signalContext()
		defer cancel()
		return navAction(ctx, cmd.OutOrStdout(), svc.client, gridOptions(svc.cfg), cmds, traceFlag)
	},
}

func parseKeys(s string) ([]grid.Command, error) {
	var out []grid.Command
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		c, err := grid.ParseCommand(part)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func navAction(ctx context.Context, w io.Writer, src grid.ContentService, opts grid.Options, cmds []grid.Command, trace bool) error {
	view := &textPresenter{w: w, trace: trace}
	p := grid.NewPipeline(grid.NewRowStore(), src, opts)
	p.LoadInitial(ctx)
	ctrl := grid.NewController(p, view, grid.NewPreviewScheduler(heldClock{}, view))
	ctrl.Start()

	for _, c := range cmds {
		eff, err := ctrl.Dispatch(ctx, c)
		if err != nil {
			return err
		}
		if trace {
			fmt.Fprintf(w, "%-5s moved=%t prefetch=%t\n", c, eff.Moved, eff.Prefetch)
		}
	}

	rows := ctrl.Rows()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Rendered order")
	for i, r := range rows {
		fmt.Fprintf(w, " %3d  %s\n", i, r.Title)
	}
	fmt.Fprintln(w)
	pos, tileIdx, ok := ctrl.Focus()
	if !ok {
		fmt.Fprintln(w, "Focus: none")
		return nil
	}
	tile, _ := ctrl.FocusedTile()
	fmt.Fprintf(w, "Focus: row %d (%s), tile %d (%s)\n", pos, rows[pos].Title, tileIdx, tile.Title)
	fmt.Fprintf(w, "Pending: %d\n", ctrl.Pending())
	return nil
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently previewed titles",
	RunE: func(cmd *cobra.Command, args []string) error {
		hist, err := history.Load()
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		entries := hist.Recent(historyLimit)
		if len(entries) == 0 {
			fmt.Fprintln(w, "No previews yet.")
			return nil
		}
		fmt.Fprintln(w)
		for _, e := range entries {
			fmt.Fprintf(w, " %s  %-32s %-24s %dx\n", e.LastSeen.Format("2006-01-02 15:04"), e.Title, e.RowTitle, e.Views)
		}
		fmt.Fprintln(w)
		return nil
	},
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the response cache",
}

func openCache() (*cache.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return cache.Open(cfg.Cache.Path)
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every cached response",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCache()
		if err != nil {
			return err
		}
		defer store.Close()
		n, err := store.Clear(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached responses\n", n)
		return nil
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show how many responses are cached",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCache()
		if err != nil {
			return err
		}
		defer store.Close()
		n, err := store.Count(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d cached responses\n", n)
		return nil
	},
}
