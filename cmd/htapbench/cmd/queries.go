package cmd

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/armadaproject/htapbench/internal/common/htaperrors"
	"github.com/armadaproject/htapbench/internal/htap/olap"
	"github.com/armadaproject/htapbench/internal/htap/random"
)

const dateFlagFormat = "2006-01-02"

func queriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queries",
		Short: "Prints the analytical queries of a stream as they would be executed",
		Args:  cobra.NoArgs,
		RunE:  printQueries,
	}
	cmd.Flags().Int("stream", 0, "Stream whose query order and date parameters are used")
	cmd.Flags().Int("query", 0, "Only print this query id")
	cmd.Flags().String("from", random.DataRangeStart.Format(dateFlagFormat), "Oldest date in the database")
	cmd.Flags().String("to", random.DataRangeEnd.Format(dateFlagFormat), "Newest date in the database")
	return cmd
}

func printQueries(cmd *cobra.Command, _ []string) error {
	streamID, _ := cmd.Flags().GetInt("stream")
	only, _ := cmd.Flags().GetInt("query")
	min, err := dateFlag(cmd, "from")
	if err != nil {
		return err
	}
	latest, err := dateFlag(cmd, "to")
	if err != nil {
		return err
	}
	if only < 0 || only > olap.NumQueries {
		return errors.WithStack(&htaperrors.ErrInvalidArgument{
			Name:    "query",
			Value:   only,
			Message: fmt.Sprintf("query ids must be between 1 and %d", olap.NumQueries),
		})
	}

	catalog, err := olap.LoadCatalog()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, queryID := range catalog.Stream(streamID) {
		if only != 0 && queryID != only {
			continue
		}
		sql, err := catalog.Render(queryID, olap.ParamsFor(queryID, streamID, min, latest))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "-- stream %d, query %d\n%s\n\n", streamID, queryID, sql)
	}
	return nil
}

func dateFlag(cmd *cobra.Command, name string) (time.Time, error) {
	value, _ := cmd.Flags().GetString(name)
	t, err := time.Parse(dateFlagFormat, value)
	if err != nil {
		return time.Time{}, errors.WithStack(&htaperrors.ErrInvalidArgument{Name: name, Value: value, Message: "expected a date such as 1992-01-01"})
	}
	return t, nil
}
