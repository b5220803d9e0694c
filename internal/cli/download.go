package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/slmtnm/blobnav/internal/batch"
	"github.com/slmtnm/blobnav/internal/logging"
	"github.com/slmtnm/blobnav/internal/store"
)

func newDownloadCmd(a *app) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "download <container> <path> [dest]",
		Short: "Download a file or a whole folder",
		Long: `Download a single object, or every object under a folder prefix, into
dest (the configured download directory by default). A path ending in "/",
or one that does not name an object, is treated as a folder.

Failed files are reported at the end; the rest of the folder is still
downloaded.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			container, path := args[0], args[1]
			dest := a.cfg.DownloadDir
			if len(args) == 3 {
				dest = args[2]
			}

			dir, err := a.openDirectory(ctx, nil, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			st, err := dir.Open(ctx, container)
			if err != nil {
				return err
			}

			isFolder := strings.HasSuffix(path, store.Delimiter)
			total := int64(-1)
			if !isFolder {
				meta, err := st.Head(ctx, path)
				switch {
				case store.IsNotFound(err):
					isFolder = true
				case err != nil:
					return err
				default:
					total = meta.Size
				}
			}

			var bar *progressbar.ProgressBar
			opts := batch.DownloadOptions{Dest: dest}
			if !quiet {
				bar = newProgressBar(cmd.ErrOrStderr(), total, "downloading "+path)
				opts.Progress = bar
			}

			job, err := batch.New(st, a.log).Download(ctx, path, isFolder, opts)
			if err != nil {
				return err
			}

			p := job.Run(ctx, func(p batch.Progress) {
				if bar != nil {
					bar.Describe(fmt.Sprintf("[%d/%d] %s", p.FilesCompleted+p.Failed(), p.TotalFiles, p.CurrentFile))
				}
			})
			if bar != nil {
				_ = bar.Finish()
			}

			a.log.Info("download finished",
				logging.String("container", container),
				logging.String("path", path),
				logging.Int("completed", p.FilesCompleted),
				logging.Int("failed", p.Failed()),
				logging.Int64("bytes", p.BytesDownloaded),
			)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Downloaded %d/%d files (%s) to %s\n",
				p.FilesCompleted, p.TotalFiles, humanize.IBytes(uint64(p.BytesDownloaded)), dest)
			for _, f := range p.Failures {
				fmt.Fprintf(cmd.ErrOrStderr(), "failed: %s: %v\n", f.Key, f.Err)
			}
			if p.Failed() > 0 {
				return fmt.Errorf("%d of %d files failed", p.Failed(), p.TotalFiles)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not show a progress bar")
	return cmd
}

// newProgressBar renders byte progress to w. A negative total shows a
// spinner instead of a bar.
func newProgressBar(w io.Writer, total int64, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetRenderBlankState(true),
	)
}
