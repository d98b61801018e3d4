package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"opengeo/internal/focal"
)

func focalCmd() *cobra.Command {
	names := make([]string, len(focal.Stats))
	for i, s := range focal.Stats {
		names[i] = string(s)
	}

	return &cobra.Command{
		Use:   "focal <in> <out> <kernel> <stat>",
		Short: "Moving-window statistic over band 1",
		Long: fmt.Sprintf("Computes a statistic over an odd kernel x kernel window around every cell.\n"+
			"The input must declare nodata. Statistics: %s.", strings.Join(names, ", ")),
		Args: exactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			kernel, err := parseIntArg("kernel", args[2])
			if err != nil {
				return err
			}
			stat, err := focal.ParseStat(args[3])
			if err != nil {
				return usageError{err}
			}
			return focal.Raster(cmd.Context(), args[0], args[1], kernel, stat, workerCount())
		},
	}
}
