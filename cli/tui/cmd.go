package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/malonaz/sdoc/app"
	"github.com/malonaz/sdoc/internal/debug"
	"github.com/malonaz/sdoc/internal/file"
	"github.com/malonaz/sdoc/internal/watch"
	"github.com/malonaz/sdoc/state"
)

// Opts of the tui command.
type Opts struct {
	Tab   string
	Watch string
}

// NewCmd instantiates and returns the tui command.
func NewCmd(a *app.App) *cobra.Command {
	opts := &Opts{}
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive interface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(cmd.Context(), a, opts)
		},
	}
	RegisterFlags(cmd, opts)
	return cmd
}

// RegisterFlags adds the tui flags to cmd.
func RegisterFlags(cmd *cobra.Command, opts *Opts) {
	cmd.Flags().StringVar(&opts.Tab, "tab", "", "Tab to open (chat or documents)")
	cmd.Flags().StringVarP(&opts.Watch, "watch", "w", "", "Upload files added to this directory while the interface is open")
}

// Run opens the interface until the user quits.
func Run(ctx context.Context, a *app.App, opts *Opts) error {
	if opts.Tab != "" {
		a.State.SetTab(state.ParseTab(opts.Tab))
	}

	m, err := New(ctx, a.Config, a.State)
	if err != nil {
		return err
	}

	// Create the Bubble Tea program
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithMouseCellMotion(),
		tea.WithReportFocus(),
	)

	if opts.Watch != "" {
		dir, err := file.ExpandPath(opts.Watch)
		if err != nil {
			return err
		}
		watcher, err := watch.New(a.Config.Upload.AllowedExtensions, watch.DefaultDebounce, debug.GetLogger())
		if err != nil {
			return err
		}
		defer watcher.Close()

		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			err := watcher.Run(watchCtx, dir, func(ctx context.Context, path string) error {
				_, err := a.State.UploadFile(ctx, path)
				p.Send(DocumentsChangedMsg{Path: path, Err: err})
				return err
			})
			if err != nil {
				p.Send(DocumentsChangedMsg{Path: dir, Err: err})
			}
		}()
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running tui: %w", err)
	}
	return nil
}
