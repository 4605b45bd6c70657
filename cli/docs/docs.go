package docs

import (
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/malonaz/sdoc/app"
	"github.com/malonaz/sdoc/client"
	"github.com/malonaz/sdoc/internal/cli"
)

// NewCmd instantiates and returns the docs command.
func NewCmd(a *app.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "docs",
		Aliases: []string{"documents"},
		Short:   "Manage documents",
	}
	cmd.AddCommand(
		newListCmd(a),
		newShowCmd(a),
		newUploadCmd(a),
		newCreateCmd(a),
		newDeleteCmd(a),
		newProcessCmd(a),
		newSearchCmd(a),
		newWatchCmd(a),
	)
	return cmd
}

func newListCmd(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.State.LoadDocuments(cmd.Context()); err != nil {
				return err
			}
			documents := a.State.Snapshot().Documents

			cli.Title("DOCUMENTS")
			if len(documents) == 0 {
				cli.UserInput("No documents yet.\n")
				return nil
			}
			for _, document := range documents {
				printDocument(&document)
			}
			return nil
		},
	}
}

func newShowCmd(a *app.App) *cobra.Command {
	var opts struct {
		Chunks bool
	}
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			document, err := a.State.GetDocument(cmd.Context(), id)
			if err != nil {
				return err
			}

			cli.Title("DOCUMENT #%d", document.ID)
			printDocument(&document.Document)
			if document.FilePath != "" {
				cli.FileInfo("%s\n", document.FilePath)
			}
			cli.Separator()
			cli.Answer(document.Content)
			if opts.Chunks {
				for _, chunk := range document.Chunks {
					cli.Separator()
					cli.Source("chunk %d\n", chunk.ChunkIndex)
					cli.UserInput("%s\n", chunk.Content)
				}
			} else {
				cli.Separator()
				cli.Source("%d chunks\n", len(document.Chunks))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&opts.Chunks, "chunks", "c", false, "Print every chunk")
	return cmd
}

func newCreateCmd(a *app.App) *cobra.Command {
	var opts struct {
		Title       string
		Content     string
		ContentFile string
	}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a document from text",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			content := opts.Content
			if opts.ContentFile != "" {
				bytes, err := readContent(cmd, opts.ContentFile)
				if err != nil {
					return err
				}
				content = string(bytes)
			}
			document, err := a.State.CreateDocument(cmd.Context(), opts.Title, content)
			if err != nil {
				return err
			}
			cli.Success("✓ created #%d %s\n", document.ID, document.Title)
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.Title, "title", "t", "", "Document title")
	cmd.Flags().StringVar(&opts.Content, "content", "", "Document content")
	cmd.Flags().StringVarP(&opts.ContentFile, "content-file", "f", "", "Read the content from this file ('-' for stdin)")
	return cmd
}

func newDeleteCmd(a *app.App) *cobra.Command {
	var opts struct {
		Yes bool
	}
	cmd := &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			for _, id := range ids {
				if !opts.Yes && !cli.QueryUser("Delete document #"+strconv.FormatInt(id, 10)+"?") {
					continue
				}
				if err := a.State.DeleteDocument(cmd.Context(), id); err != nil {
					return err
				}
				cli.Success("✓ deleted #%d\n", id)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newProcessCmd(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "process <id>...",
		Short: "Trigger processing of documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			for _, id := range ids {
				document, err := a.State.ProcessDocument(cmd.Context(), id)
				if err != nil {
					return err
				}
				printDocument(document)
			}
			return nil
		},
	}
}

func printDocument(document *client.Document) {
	cli.FileInfo("#%-4d ", document.ID)
	cli.UserInput("%s  %s  ", document.Title, cli.ProcessedStatus(document.IsProcessed))
	cli.Source("%s\n", formatTime(document.CreatedAt))
}

func formatTime(t client.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Errorf("invalid document id %q", arg)
	}
	return id, nil
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := parseID(arg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
