package cmd

import (
	"fmt"

	"countme/internal/cookie"
	"countme/internal/countme"
	"countme/internal/history"
	"countme/internal/logger"
	"countme/internal/release"
	"countme/internal/repo"

	"github.com/spf13/cobra"
)

// sendCmd runs one counting pass. It is the command the scheduler invokes.
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send counting requests if a new reporting window has opened",
	Long: `Checks whether the current reporting window has already been counted
and, if not, sends one anonymous GET request per opted-in repository.
The cookie is only updated when at least one request succeeds.

Exit status is 0 when requests were sent or there was nothing to do,
and non-zero when the host is unsupported or every request failed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := Context()
		c := Config()
		log := logger.FromContext(ctx)

		reporter := &countme.Reporter{
			PlatformSupported: countme.MarkerCheck(c.Platform.MarkerPath),
			MarkerPath:        c.Platform.MarkerPath,
			LoadRepos:         func() ([]repo.Repo, error) { return repo.Load(c.Repos.Dirs) },
			LoadRelease:       func() (*release.Release, error) { return release.Load(c.Release.Path) },
			Cookies:           cookie.NewStore(c.Cookie.Path),
			Client:            countme.NewClient(c.HTTP.Timeout, log),
			Log:               log,
		}

		if c.History.Enabled {
			journal, err := history.Open(ctx, c.History.Path)
			if err != nil {
				// The journal is a convenience; never block counting on it.
				log.Warn("could not open history journal", "error", err)
			} else {
				defer journal.Close()
				reporter.History = journal
			}
		}

		result := reporter.Run(ctx)
		fmt.Println(result.String())

		if result.Outcome == countme.OutcomeFailed {
			return result.Err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
}
