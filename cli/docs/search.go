package docs

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/malonaz/sdoc/app"
	"github.com/malonaz/sdoc/internal/cli"
	"github.com/malonaz/sdoc/store"
)

func newSearchCmd(a *app.App) *cobra.Command {
	var opts struct {
		Remote   bool
		TopK     int
		Page     int
		PageSize int
	}
	cmd := &cobra.Command{
		Use:   "search <query>...",
		Short: "Search documents",
		Long:  "Full text search over cached documents, or with --remote, the chunks the server retrieves for a question.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			if opts.Remote {
				topK := opts.TopK
				if topK == 0 {
					topK = a.Config.TopK
				}
				sources, err := a.Client.Search(cmd.Context(), query, topK)
				if err != nil {
					return err
				}
				cli.Title("SEARCH %q", query)
				for i, source := range sources {
					cli.Source("[%d] %s\n", i+1, source.Label())
					cli.UserInput("%s\n", source.Content)
				}
				return nil
			}

			if a.Cache == nil {
				return errors.New("the local cache is disabled, use --remote")
			}
			// Search what we last saw when the server is unreachable.
			if err := a.State.LoadDocuments(cmd.Context()); err != nil {
				cli.Error("searching cached documents: %v\n", err)
			}
			response, err := a.Cache.SearchDocuments(store.SearchDocumentsRequest{
				Query:    query,
				Page:     opts.Page,
				PageSize: opts.PageSize,
			})
			if err != nil {
				return err
			}
			cli.Title("SEARCH %q", query)
			for _, document := range response.Documents {
				printDocument(&document)
			}
			cli.Source("%d documents, page %d of %d\n", response.TotalCount, max(opts.Page, 1), max(response.PageCount, 1))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&opts.Remote, "remote", "r", false, "Search the server's chunk index instead")
	cmd.Flags().IntVarP(&opts.TopK, "top-k", "k", 0, "Number of chunks to retrieve with --remote (defaults to the configured one)")
	cmd.Flags().IntVarP(&opts.Page, "page", "p", 1, "Page of results")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", 20, "Results per page")
	return cmd
}
