package cmd

import (
	"fmt"
	"strconv"
	"time"

	"countme/internal/cli/output"
	"countme/internal/cookie"
	"countme/internal/history"

	"github.com/spf13/cobra"
)

var statusLimit int

// statusReport is the status command's output document.
type statusReport struct {
	LastCounted *time.Time      `json:"last_counted,omitempty" yaml:"last_counted,omitempty"`
	WindowOpen  bool            `json:"window_open" yaml:"window_open"`
	NextBucket  int             `json:"next_bucket" yaml:"next_bucket"`
	History     []history.Entry `json:"history,omitempty" yaml:"history,omitempty"`
}

// TableData renders the report for the default table format.
func (s statusReport) TableData() *output.Table {
	last := "never"
	if s.LastCounted != nil {
		last = s.LastCounted.Format(time.RFC3339)
	}
	window := "closed"
	if s.WindowOpen {
		window = "open"
	}

	t := &output.Table{
		Headers: []string{"last counted", "window", "next bucket"},
		Rows:    [][]string{{last, window, strconv.Itoa(s.NextBucket)}},
	}
	return t
}

// statusCmd shows the cookie state and recent run history.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show counting-window state and recent runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := Config()
		now := time.Now()

		ck, err := cookie.NewStore(c.Cookie.Path).Load()
		if err != nil {
			Log().Warn("could not read cookie", "error", err)
			ck = nil
		}

		report := statusReport{
			WindowOpen: !ck.ExistingWindow(now),
			NextBucket: ck.WindowCounter(now),
		}
		if ck != nil {
			t := ck.LastCounted
			report.LastCounted = &t
		}

		if c.History.Enabled {
			journal, err := history.Open(Context(), c.History.Path)
			if err != nil {
				Log().Warn("could not open history journal", "error", err)
			} else {
				defer journal.Close()
				entries, err := journal.Recent(Context(), statusLimit)
				if err != nil {
					Log().Warn("could not read history", "error", err)
				} else {
					report.History = entries
				}
			}
		}

		w := output.NewWriter(output.ParseFormat(c.Output.Format))
		if err := w.Write(report); err != nil {
			return err
		}

		// The table format only covers the cookie line; append history rows.
		if w.Format() == output.FormatTable && len(report.History) > 0 {
			w.Println()
			ht := &output.Table{Headers: []string{"counted at", "bucket", "requests"}}
			for _, e := range report.History {
				ht.Rows = append(ht.Rows, []string{
					e.CountedAt.Format(time.RFC3339),
					strconv.Itoa(e.Bucket),
					fmt.Sprintf("%d/%d", e.Successes, e.Total),
				})
			}
			if err := w.Write(ht); err != nil {
				return err
			}
		}

		return nil
	},
}

func init() {
	statusCmd.Flags().IntVar(&statusLimit, "limit", 10, "number of recent runs to show")
	rootCmd.AddCommand(statusCmd)
}
