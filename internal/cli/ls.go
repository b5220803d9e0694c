package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/slmtnm/blobnav/internal/entry"
	"github.com/slmtnm/blobnav/internal/logging"
	"github.com/slmtnm/blobnav/internal/store"
)

func newLsCmd(a *app) *cobra.Command {
	var recursive bool

	cmd := &cobra.Command{
		Use:   "ls [container] [prefix]",
		Short: "List containers, or the contents of a prefix",
		Long: `Without arguments, list every container. With a container, list the
folders and files directly under prefix (the container root by default).
With --recursive, list every object under prefix instead.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			dir, err := a.openDirectory(ctx, nil, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			if len(args) == 0 {
				names, err := store.ListAllContainers(ctx, dir)
				if store.IsInvalidCredentials(err) {
					return fmt.Errorf("failed to list containers: %w; check the configured credentials", err)
				}
				if err != nil {
					return fmt.Errorf("failed to list containers: %w", err)
				}
				for _, name := range names {
					fmt.Fprintln(out, name)
				}
				return nil
			}

			st, err := dir.Open(ctx, args[0])
			if err != nil {
				return err
			}
			prefix := ""
			if len(args) == 2 {
				prefix = entry.AsFolder(args[1])
			}
			a.log.Debug("listing", logging.String("container", args[0]), logging.String("prefix", prefix))

			if recursive {
				for obj, err := range st.List(ctx, prefix) {
					if err != nil {
						return fmt.Errorf("failed to list %s: %w", prefix, err)
					}
					fmt.Fprintf(out, "%10s  %s  %s\n", humanize.IBytes(uint64(obj.Size)), obj.LastModified.Local().Format(time.DateTime), obj.Key)
				}
				return nil
			}

			listing, err := st.ListWithDelimiter(ctx, prefix)
			if err != nil {
				return fmt.Errorf("failed to list %s: %w", prefix, err)
			}
			for _, it := range entry.Sort(entry.FromListing(listing), entry.ByName) {
				fmt.Fprintln(out, lsLine(prefix, it))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "list every object under the prefix")
	return cmd
}

func lsLine(prefix string, it entry.Item) string {
	if it.IsFolder() {
		return fmt.Sprintf("%10s  %19s  %s", "DIR", "", it.Key(prefix))
	}
	size, modified := "-", ""
	if it.Size != nil {
		size = humanize.IBytes(uint64(*it.Size))
	}
	if it.LastModified != nil {
		modified = it.LastModified.Local().Format(time.DateTime)
	}
	return fmt.Sprintf("%10s  %19s  %s", size, modified, it.Key(prefix))
}
