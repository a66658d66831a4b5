// Package main provides the CLI entrypoint for studyclock.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	_ "time/tzdata"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/studyclock/internal/cache"
	"github.com/verte-zerg/studyclock/internal/calendar"
	"github.com/verte-zerg/studyclock/internal/config"
	"github.com/verte-zerg/studyclock/internal/model"
	"github.com/verte-zerg/studyclock/internal/session"
	"github.com/verte-zerg/studyclock/internal/stats"
	"github.com/verte-zerg/studyclock/internal/statsui"
	"github.com/verte-zerg/studyclock/internal/store"
	"github.com/verte-zerg/studyclock/internal/timer"
	"github.com/verte-zerg/studyclock/internal/tui"
)

const (
	defaultTimezone = "Local"
	defaultBackend  = store.BackendSQLite
)

var (
	timerMinutes int

	userID    string
	timezone  string
	backend   string
	storePath string
	storeURL  string

	statsPlain bool
	statsDays  int
)

// settings is the merged result of flags, config file, environment and cache.
type settings struct {
	cfg      model.Config
	store    model.StoreConfig
	cal      calendar.Calendar
	cache    *cache.FileCache
	cached   cache.TimerState
	hasCache bool
	// deviceID is the generated user id remembered in the cache.
	deviceID string
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "studyclock",
		Short:         "Terminal study timer with daily time accounting",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runTimerCmd,
	}

	rootCmd.Flags().IntVar(&timerMinutes, "minutes", timer.DefaultFocusMinutes, "focus length in minutes")
	rootCmd.PersistentFlags().StringVar(&userID, "user", "", "user id owning the records (default: generated device id)")
	rootCmd.PersistentFlags().StringVar(&timezone, "tz", defaultTimezone, "IANA time zone used for day boundaries")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", defaultBackend, "time store backend (sqlite or rtdb)")
	rootCmd.PersistentFlags().StringVar(&storePath, "db", "", "sqlite database path")
	rootCmd.PersistentFlags().StringVar(&storeURL, "url", "", "realtime database base url")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newTodayCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newSetCmd())
	rootCmd.AddCommand(newDeleteCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newImportCmd())

	return rootCmd
}

func runTimerCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(s)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close store: %v\n", cerr)
		}
	}()

	clock := timer.SystemClock{}
	engine := timer.New(clock, s.cfg.FocusMinutes)
	if s.hasCache && s.cached.FocusMinutes > 0 && !cmd.Flags().Changed("minutes") {
		engine.Restore(s.cached.FocusMinutes, s.cached.RemainingSeconds)
	}
	finalizer := session.NewFinalizer(st, s.cfg.UserID, s.cal, clock)
	ctrl := session.NewController(engine, finalizer)

	closeLog, err := redirectLog()
	if err != nil {
		return err
	}
	defer closeLog()

	m := tui.NewModel(ctrl, s.cache, s.deviceID, clock)
	program := tea.NewProgram(m, tea.WithAltScreen())
	_, err = program.Run()
	m.Wait()
	if err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func loadSettings(cmd *cobra.Command) (settings, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.LoadEnv(config.DefaultEnvPath()); err != nil {
		logErrf("ignoring env file: %v\n", err)
	}
	if cmd.Flags().Lookup("minutes") != nil {
		applyIntConfig(cmd, "minutes", &timerMinutes, fileCfg.Timer.FocusMinutes)
	}
	applyStringConfig(cmd, "user", &userID, fileCfg.User.ID)
	applyStringConfig(cmd, "tz", &timezone, fileCfg.User.Timezone)
	applyStringConfig(cmd, "backend", &backend, fileCfg.Store.Backend)
	applyStringConfig(cmd, "db", &storePath, fileCfg.Store.Path)
	applyStringConfig(cmd, "url", &storeURL, fileCfg.Store.URL)

	timerMinutes = clampMinutes(timerMinutes)
	cal, err := calendar.New(timezone)
	if err != nil {
		return settings{}, err
	}

	s := settings{
		cal:   cal,
		cache: cache.NewFileCache(config.DefaultCachePath()),
	}
	s.cached, s.hasCache, err = s.cache.Load()
	if err != nil {
		logErrf("ignoring timer cache: %v\n", err)
		s.hasCache = false
	}
	s.deviceID = s.cached.UserID

	user := strings.TrimSpace(userID)
	if user == "" {
		if s.deviceID == "" {
			s.deviceID = uuid.NewString()
			if err := rememberDeviceID(s); err != nil {
				logErrf("failed to remember device id: %v\n", err)
			}
		}
		user = s.deviceID
	}

	path := storePath
	if path == "" {
		path = config.DefaultDBPath()
	}
	s.cfg = model.Config{
		UserID:       user,
		FocusMinutes: timerMinutes,
		Timezone:     timezone,
	}
	s.store = model.StoreConfig{
		Backend: backend,
		Path:    path,
		URL:     storeURL,
		Auth:    config.RTDBAuth(),
	}
	return s, nil
}

func rememberDeviceID(s settings) error {
	state := s.cached
	if !s.hasCache {
		state.FocusMinutes = timerMinutes
		state.RemainingSeconds = int64(timer.ClampMinutes(timerMinutes)) * 60
	}
	state.UserID = s.deviceID
	return s.cache.Save(state)
}

func openStore(s settings) (store.TimeStore, error) {
	if strings.EqualFold(s.store.Backend, store.BackendRTDB) && strings.TrimSpace(s.store.URL) == "" {
		return nil, fmt.Errorf("the rtdb backend needs --url or [store] url in %s", config.DefaultConfigPath())
	}
	st, err := store.OpenBackend(s.store)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return st, nil
}

// redirectLog sends library log output to a file while a TUI owns the
// terminal.
func redirectLog() (func(), error) {
	path := config.DefaultLogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := tea.LogToFile(path, "studyclock")
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return func() {
		log.SetOutput(io.Discard)
		if cerr := f.Close(); cerr != nil {
			// Best-effort log close.
			_ = cerr
		}
	}, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the weekly dashboard",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a text report instead of the dashboard")
	cmd.Flags().IntVar(&statsDays, "days", stats.DefaultHistoryDays, "days shown in the history tab")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	if statsDays <= 0 {
		return fmt.Errorf("--days must be > 0")
	}
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(s)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close store: %v\n", cerr)
		}
	}()

	clock := timer.SystemClock{}
	if statsPlain {
		report := stats.BuildWeekReport(cmd.Context(), st, s.cfg.UserID, s.cal, clock.Now())
		if err := stats.RenderWeek(cmd.OutOrStdout(), report); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	closeLog, err := redirectLog()
	if err != nil {
		return err
	}
	defer closeLog()

	m := statsui.NewModel(st, model.StatsConfig{UserID: s.cfg.UserID, HistoryDays: statsDays}, s.cal, clock)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# studyclock configuration
# Uncomment a value to enable it. CLI flags override config values.

[timer]
# focus-minutes = %d      # Focus length in minutes (%d-%d)

[user]
# id = "me"               # Record owner (default: generated device id)
# timezone = %q      # IANA zone for day boundaries

[store]
# backend = %q        # sqlite or rtdb
# path = ""               # SQLite file (default: %s)
# url = ""                # Realtime Database base url; secret in %s
`,
		timer.DefaultFocusMinutes,
		timer.MinFocusMinutes,
		timer.MaxFocusMinutes,
		defaultTimezone,
		defaultBackend,
		config.DefaultDBPath(),
		config.RTDBAuthEnv,
	)
}

func clampMinutes(minutes int) int {
	clamped := timer.ClampMinutes(minutes)
	if clamped != minutes {
		logErrf("focus length %d min is out of range, using %d\n", minutes, clamped)
	}
	return clamped
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
