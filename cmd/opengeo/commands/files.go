package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"opengeo/internal/fsutil"
)

func filesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "File discovery and zip integrity checks",
	}
	cmd.AddCommand(filesFindCmd(), filesContainsCmd(), checkZipsCmd(), existsCmd())
	return cmd
}

func filesFindCmd() *cobra.Command {
	var recursive bool
	cmd := &cobra.Command{
		Use:   "find <root> <ext>",
		Short: "List files with an extension",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := fsutil.FindFilesByExtension(args[0], args[1], recursive)
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&recursive, "recursive", true, "search subfolders")
	return cmd
}

func filesContainsCmd() *cobra.Command {
	var recursive, caseSensitive bool
	cmd := &cobra.Command{
		Use:   "contains <root> <pattern>",
		Short: "Report whether any file name matches a shell pattern",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			found, err := fsutil.ContainsFiles(args[0], args[1], recursive, caseSensitive)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), found)
			return nil
		},
	}
	cmd.Flags().BoolVar(&recursive, "recursive", true, "search subfolders")
	cmd.Flags().BoolVar(&caseSensitive, "case-sensitive", false, "match case")
	return cmd
}

func checkZipsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-zips <dir>",
		Short: "List zip archives that fail to read",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bad, err := fsutil.FindCorruptedZips(args[0])
			if err != nil {
				return err
			}
			if len(bad) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no corrupted zip files")
				return nil
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "zip\terror")
			for _, z := range bad {
				fmt.Fprintf(tw, "%s\t%v\n", z.Path, z.Err)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			return fmt.Errorf("%d corrupted zip files", len(bad))
		},
	}
}

func existsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exists <path>",
		Short: "Exit 0 when path exists, 1 otherwise",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !fsutil.FileExists(args[0]) {
				return fmt.Errorf("%s does not exist", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), args[0])
			return nil
		},
	}
}
