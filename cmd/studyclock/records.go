package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/studyclock/internal/calendar"
	"github.com/verte-zerg/studyclock/internal/model"
	"github.com/verte-zerg/studyclock/internal/stats"
	"github.com/verte-zerg/studyclock/internal/store"
)

const defaultExportDays = 30

var (
	historyDays int

	setDate  string
	setStudy string
	setBreak string

	deleteDate string

	exportFrom string
	exportTo   string
	exportOut  string

	importIn string
)

// recordFile is the YAML document written by export and read by import.
type recordFile struct {
	User    string        `yaml:"user"`
	Records []recordEntry `yaml:"records"`
}

type recordEntry struct {
	Date         string `yaml:"date"`
	StudySeconds int64  `yaml:"study_seconds"`
	BreakSeconds int64  `yaml:"break_seconds"`
}

func newTodayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Print today's study and break totals",
		Args:  cobra.NoArgs,
		RunE:  runTodayCmd,
	}
}

func runTodayCmd(cmd *cobra.Command, _ []string) error {
	return withStore(cmd, func(ctx context.Context, s settings, st store.TimeStore) error {
		date := s.cal.Today(time.Now())
		rec, err := st.Get(ctx, s.cfg.UserID, date)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", date, err)
		}
		if err := stats.RenderToday(cmd.OutOrStdout(), date, rec); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	})
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print recent days with a sparkline",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().IntVar(&historyDays, "days", stats.DefaultHistoryDays, "number of days ending today")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	if historyDays <= 0 {
		return fmt.Errorf("--days must be > 0")
	}
	return withStore(cmd, func(ctx context.Context, s settings, st store.TimeStore) error {
		days := stats.BuildHistory(ctx, st, s.cfg.UserID, s.cal, time.Now(), historyDays)
		if err := stats.RenderHistory(cmd.OutOrStdout(), days); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	})
}

func newSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Overwrite the totals of a day",
		Args:  cobra.NoArgs,
		RunE:  runSetCmd,
	}
	cmd.Flags().StringVar(&setDate, "date", "", "day to correct (YYYY-MM-DD, default: today)")
	cmd.Flags().StringVar(&setStudy, "study", "", "study time (seconds or duration like 1h20m)")
	cmd.Flags().StringVar(&setBreak, "break", "", "break time (seconds or duration like 15m)")
	return cmd
}

func runSetCmd(cmd *cobra.Command, _ []string) error {
	if !cmd.Flags().Changed("study") && !cmd.Flags().Changed("break") {
		return fmt.Errorf("nothing to set: pass --study and/or --break")
	}
	return withStore(cmd, func(ctx context.Context, s settings, st store.TimeStore) error {
		date, err := resolveDate(s.cal, setDate)
		if err != nil {
			return err
		}
		rec, err := st.Get(ctx, s.cfg.UserID, date)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", date, err)
		}
		if cmd.Flags().Changed("study") {
			if rec.StudySeconds, err = parseSeconds(setStudy); err != nil {
				return fmt.Errorf("invalid --study: %w", err)
			}
		}
		if cmd.Flags().Changed("break") {
			if rec.BreakSeconds, err = parseSeconds(setBreak); err != nil {
				return fmt.Errorf("invalid --break: %w", err)
			}
		}
		if err := st.Set(ctx, s.cfg.UserID, date, rec); err != nil {
			return fmt.Errorf("failed to write %s: %w", date, err)
		}
		return stats.RenderToday(cmd.OutOrStdout(), date, rec)
	})
}

func newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove the record of a day",
		Args:  cobra.NoArgs,
		RunE:  runDeleteCmd,
	}
	cmd.Flags().StringVar(&deleteDate, "date", "", "day to remove (YYYY-MM-DD)")
	if err := cmd.MarkFlagRequired("date"); err != nil {
		logErrf("failed to mark --date required: %v\n", err)
	}
	return cmd
}

func runDeleteCmd(cmd *cobra.Command, _ []string) error {
	return withStore(cmd, func(ctx context.Context, s settings, st store.TimeStore) error {
		date, err := resolveDate(s.cal, deleteDate)
		if err != nil {
			return err
		}
		if err := st.Delete(ctx, s.cfg.UserID, date); err != nil {
			return fmt.Errorf("failed to delete %s: %w", date, err)
		}
		logErrf("Deleted %s\n", date)
		return nil
	})
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write records of a date range as YAML",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVar(&exportFrom, "from", "", fmt.Sprintf("first day (default: %d days ago)", defaultExportDays-1))
	cmd.Flags().StringVar(&exportTo, "to", "", "last day (default: today)")
	cmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default: stdout)")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	return withStore(cmd, func(ctx context.Context, s settings, st store.TimeStore) error {
		now := time.Now()
		to := s.cal.Today(now)
		if exportTo != "" {
			parsed, err := resolveDate(s.cal, exportTo)
			if err != nil {
				return err
			}
			to = parsed
		}
		from := s.cal.Key(s.cal.StartOfDay(now).AddDate(0, 0, -(defaultExportDays - 1)))
		if exportFrom != "" {
			parsed, err := resolveDate(s.cal, exportFrom)
			if err != nil {
				return err
			}
			from = parsed
		}
		if from > to {
			return fmt.Errorf("--from %s is after --to %s", from, to)
		}
		records, err := st.List(ctx, s.cfg.UserID, from, to)
		if err != nil {
			return fmt.Errorf("failed to list records: %w", err)
		}

		out := cmd.OutOrStdout()
		if exportOut != "" {
			f, err := os.Create(exportOut)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", exportOut, err)
			}
			defer func() {
				if cerr := f.Close(); cerr != nil {
					logErrf("failed to close %s: %v\n", exportOut, cerr)
				}
			}()
			out = f
		}
		if err := writeRecords(out, s.cfg.UserID, records); err != nil {
			return err
		}
		if exportOut != "" {
			logErrf("Exported %d records to %s\n", len(records), exportOut)
		}
		return nil
	})
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Overwrite records from a YAML export",
		Args:  cobra.NoArgs,
		RunE:  runImportCmd,
	}
	cmd.Flags().StringVarP(&importIn, "in", "i", "", "input file (default: stdin)")
	return cmd
}

func runImportCmd(cmd *cobra.Command, _ []string) error {
	in := cmd.InOrStdin()
	if importIn != "" {
		f, err := os.Open(importIn)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", importIn, err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil {
				// Best-effort close of a read-only file.
				_ = cerr
			}
		}()
		in = f
	}
	file, err := readRecords(in)
	if err != nil {
		return err
	}
	return withStore(cmd, func(ctx context.Context, s settings, st store.TimeStore) error {
		n, err := importRecords(ctx, st, s.cfg.UserID, s.cal, file)
		if err != nil {
			return err
		}
		logErrln(fmt.Sprintf("Imported %d records for %s", n, s.cfg.UserID))
		return nil
	})
}

func withStore(cmd *cobra.Command, fn func(ctx context.Context, s settings, st store.TimeStore) error) error {
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
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, s, st)
}

func writeRecords(w io.Writer, user string, records []model.DatedRecord) error {
	file := recordFile{User: user, Records: make([]recordEntry, 0, len(records))}
	for _, r := range records {
		file.Records = append(file.Records, recordEntry{
			Date:         r.Date,
			StudySeconds: r.Record.StudySeconds,
			BreakSeconds: r.Record.BreakSeconds,
		})
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}
	return nil
}

func readRecords(r io.Reader) (recordFile, error) {
	var file recordFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if err == io.EOF {
			return recordFile{}, fmt.Errorf("no records to import")
		}
		return recordFile{}, fmt.Errorf("failed to decode records: %w", err)
	}
	return file, nil
}

// importRecords overwrites each listed day. Every entry is validated before
// anything is written.
func importRecords(ctx context.Context, st store.TimeStore, user string, cal calendar.Calendar, file recordFile) (int, error) {
	for _, r := range file.Records {
		if _, err := cal.Parse(r.Date); err != nil {
			return 0, err
		}
		if r.StudySeconds < 0 || r.BreakSeconds < 0 {
			return 0, fmt.Errorf("record %s has negative seconds", r.Date)
		}
	}
	for i, r := range file.Records {
		rec := model.DailyRecord{StudySeconds: r.StudySeconds, BreakSeconds: r.BreakSeconds}
		if err := st.Set(ctx, user, strings.TrimSpace(r.Date), rec); err != nil {
			return i, fmt.Errorf("failed to import %s: %w", r.Date, err)
		}
	}
	return len(file.Records), nil
}

func resolveDate(cal calendar.Calendar, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "today") {
		return cal.Today(time.Now()), nil
	}
	t, err := cal.Parse(value)
	if err != nil {
		return "", err
	}
	return cal.Key(t), nil
}

// parseSeconds accepts plain seconds ("900") or a duration ("15m").
func parseSeconds(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty value")
	}
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("%q is negative", value)
		}
		return n, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%q is neither seconds nor a duration", value)
	}
	if d < 0 {
		return 0, fmt.Errorf("%q is negative", value)
	}
	return int64(d / time.Second), nil
}
