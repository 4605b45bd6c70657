package docs

import (
	"context"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/malonaz/sdoc/app"
	"github.com/malonaz/sdoc/internal/cli"
	"github.com/malonaz/sdoc/internal/debug"
	"github.com/malonaz/sdoc/internal/file"
	"github.com/malonaz/sdoc/internal/watch"
)

func newUploadCmd(a *app.App) *cobra.Command {
	var opts *file.UploadOpts
	cmd := &cobra.Command{
		Use:   "upload <path>...",
		Short: "Upload files, directories or dir/... trees",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Paths = args
			if len(opts.FileExtensions) == 0 {
				opts.FileExtensions = a.Config.Upload.AllowedExtensions
			}
			files, err := file.Collect(opts)
			if err != nil {
				return errors.Wrap(err, "collecting files")
			}
			if len(files) == 0 {
				return errors.Errorf("no files with extension %v", opts.FileExtensions)
			}

			failed := 0
			for _, path := range files {
				if err := upload(cmd.Context(), a, path); err != nil {
					failed++
				}
			}
			if failed > 0 {
				return errors.Errorf("%d of %d uploads failed", failed, len(files))
			}
			return nil
		},
	}
	opts = file.GetOpts(cmd)
	return cmd
}

func newWatchCmd(a *app.App) *cobra.Command {
	var opts struct {
		Debounce time.Duration
	}
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Upload files as they are added to a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := file.ExpandPath(args[0])
			if err != nil {
				return err
			}
			watcher, err := watch.New(a.Config.Upload.AllowedExtensions, opts.Debounce, debug.GetLogger())
			if err != nil {
				return err
			}
			defer watcher.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			cli.Title("WATCHING %s", dir)
			return watcher.Run(ctx, dir, func(ctx context.Context, path string) error {
				return upload(ctx, a, path)
			})
		},
	}
	cmd.Flags().DurationVar(&opts.Debounce, "debounce", watch.DefaultDebounce, "How long a file must stay unchanged before it is uploaded")
	return cmd
}

func upload(ctx context.Context, a *app.App, path string) error {
	document, err := a.State.UploadFile(ctx, path)
	if err != nil {
		cli.Error("✗ %s: %v\n", path, err)
		return err
	}
	cli.Success("✓ uploaded %s as #%d ", path, document.ID)
	cli.UserInput("%s\n", cli.ProcessedStatus(document.IsProcessed))
	return nil
}

// readContent reads path, or stdin when path is "-".
func readContent(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		bytes, err := io.ReadAll(cmd.InOrStdin())
		return bytes, errors.Wrap(err, "reading stdin")
	}
	path, err := file.ExpandPath(path)
	if err != nil {
		return nil, err
	}
	bytes, err := os.ReadFile(path)
	return bytes, errors.Wrap(err, "reading content file")
}
