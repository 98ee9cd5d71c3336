package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pavelanni/examdash/internal/auth"
	"github.com/pavelanni/examdash/internal/handler"
	appI18n "github.com/pavelanni/examdash/internal/i18n"
	"github.com/pavelanni/examdash/internal/model"
	"github.com/pavelanni/examdash/internal/records"
	"github.com/pavelanni/examdash/internal/store"
	"github.com/pavelanni/examdash/internal/table"
	"github.com/pavelanni/examdash/internal/views"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("error loading .env file", "error", err)
	}
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "examdash",
		Short: "Exam management dashboard for admins and students",
	}

	serve := serveCmd()
	root.AddCommand(serve, listCmd(), exportCmd(), resetCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `examdash --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func addCommonFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("db", "examdash.db", "SQLite database path")
	f.StringP("lang", "l", "en", "UI language (en, ru)")
	f.String("superadmin-username", auth.DefaultSuperAdminUsername, "Super admin username")
	f.String("superadmin-password", auth.DefaultSuperAdminPassword, "Super admin password (or set EXAMDASH_SUPERADMIN_PASSWORD)")
	f.Int("bcrypt-cost", 0, "bcrypt cost for stored passwords (0 = library default)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP dashboard server",
		RunE:  runServe,
	}
	addCommonFlags(cmd)
	f := cmd.Flags()
	f.StringP("addr", "a", "127.0.0.1:8080", "HTTP listen address")
	f.Duration("login-delay", auth.DefaultLatency, "Simulated latency of login, registration and admin creation")
	f.Duration("generate-delay", records.DefaultLatency, "Simulated latency of result generation")
	f.Int("page-size", table.DefaultPageSize, "Rows per table page")
	f.Bool("secure-cookies", false, "Set Secure flag on session cookies")
	return cmd
}

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "list {exam-types|periods|subjects|exams|results|notifications|users}",
		Short:     "Print a table of records",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"exam-types", "periods", "subjects", "exams", "results", "notifications", "users"},
		RunE:      runList,
	}
	addCommonFlags(cmd)
	f := cmd.Flags()
	f.StringP("search", "s", "", "Case-insensitive substring filter")
	f.String("sort", "", "Column key to sort by")
	f.Bool("desc", false, "Sort descending")
	f.IntP("page", "p", 1, "Page number (1-based)")
	f.Int("page-size", table.DefaultPageSize, "Rows per page")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export exam results as JSON",
		RunE:  runExport,
	}
	addCommonFlags(cmd)
	f := cmd.Flags()
	f.String("exam-id", "", "Exam identifier (required)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")

	_ = cmd.MarkFlagRequired("exam-id")

	return cmd
}

func resetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all persisted data so fixtures are seeded on next start",
		RunE:  runReset,
	}
	f := cmd.Flags()
	f.String("db", "examdash.db", "SQLite database path")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("EXAMDASH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("examdash")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/examdash")
	v.AddConfigPath("/etc/examdash")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// app bundles the three stores every command works against.
type app struct {
	db      *store.Store
	auth    *auth.Service
	records *records.Store
}

func openApp(v *viper.Viper) (*app, error) {
	db, err := store.New(v.GetString("db"))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a, err := auth.New(db, auth.Options{
		Latency:            v.GetDuration("login-delay"),
		HashCost:           v.GetInt("bcrypt-cost"),
		SuperAdminUsername: v.GetString("superadmin-username"),
		SuperAdminPassword: v.GetString("superadmin-password"),
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load session store: %w", err)
	}
	rs, err := records.New(db, records.Options{Latency: v.GetDuration("generate-delay")})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load record store: %w", err)
	}
	return &app{db: db, auth: a, records: rs}, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	a, err := openApp(v)
	if err != nil {
		return err
	}
	defer a.db.Close()

	cfg := model.DashboardConfig{
		Lang:          lang,
		PageSize:      v.GetInt("page-size"),
		SecureCookies: v.GetBool("secure-cookies"),
	}
	h := handler.New(a.auth, a.records, cfg)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"db", v.GetString("db"),
		"lang", lang,
		"page_size", cfg.PageSize,
		"login_delay", v.GetDuration("login-delay"),
		"generate_delay", v.GetDuration("generate-delay"),
	)
	return http.ListenAndServe(addr, r)
}

func runList(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	if err := appI18n.Init(v.GetString("lang")); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}
	a, err := openApp(v)
	if err != nil {
		return err
	}
	defer a.db.Close()

	opts := listOptions{
		search:   v.GetString("search"),
		sort:     v.GetString("sort"),
		desc:     v.GetBool("desc"),
		page:     v.GetInt("page") - 1,
		pageSize: v.GetInt("page-size"),
		lang:     v.GetString("lang"),
	}
	out := cmd.OutOrStdout()
	rs := a.records

	switch args[0] {
	case "exam-types":
		printTable(out, "Exam Types", rs.ExamTypes.List(), views.ExamTypes(), opts)
	case "periods":
		printTable(out, "Exam Periods", rs.Periods.List(), views.Periods(), opts)
	case "subjects":
		printTable(out, "Subjects", rs.Subjects.List(), views.Subjects(), opts)
	case "exams":
		printTable(out, "Exams", rs.Exams.List(), views.Exams(rs), opts)
	case "results":
		printTable(out, "Results", rs.Results.List(), views.Results(), opts)
	case "notifications":
		printTable(out, "Notifications", rs.Notifications.List(), views.Notifications(), opts)
	case "users":
		printTable(out, "Users", a.auth.AllUsers(), views.Users(), opts)
	default:
		return fmt.Errorf("unknown record kind %q", args[0])
	}
	return nil
}

type listOptions struct {
	search   string
	sort     string
	desc     bool
	page     int
	pageSize int
	lang     string
}

func printTable[T any](w io.Writer, title string, items []T, cfg table.Config[T], opts listOptions) {
	cfg.PageSize = opts.pageSize
	cfg.Language = appI18n.Match(opts.lang)

	view := table.New(cfg)
	view.SetQuery(opts.search)
	if opts.sort != "" {
		dir := table.Asc
		if opts.desc {
			dir = table.Desc
		}
		view.SetSort(opts.sort, dir)
	}
	view.SetPage(opts.page)

	color.New(color.FgCyan, color.Bold).Fprintf(w, "\n%s\n", title)
	table.Render(w, view, view.Apply(items))
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	a, err := openApp(v)
	if err != nil {
		return err
	}
	defer a.db.Close()

	export, err := a.records.Export(v.GetString("exam-id"))
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = cmd.OutOrStdout()
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	_, _ = fmt.Fprintln(w)

	slog.Info("exported results", "exam_id", export.ExamID, "count", export.Summary.Count)
	return nil
}

func runReset(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	n, err := resetStore(db)
	if err != nil {
		return err
	}
	color.Green("Deleted %d keys from %s", n, v.GetString("db"))
	return nil
}

// resetStore deletes every stored slice and reports how many were removed.
func resetStore(db *store.Store) (int, error) {
	keys, err := db.Keys()
	if err != nil {
		return 0, fmt.Errorf("list keys: %w", err)
	}
	for _, key := range keys {
		if err := db.Delete(key); err != nil {
			return 0, fmt.Errorf("delete %s: %w", key, err)
		}
		slog.Debug("deleted slice", "key", key)
	}
	return len(keys), nil
}
