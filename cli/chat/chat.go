package chat

import (
	"context"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/malonaz/sdoc/app"
	"github.com/malonaz/sdoc/client"
	"github.com/malonaz/sdoc/internal/cli"
	"github.com/malonaz/sdoc/internal/markdown"
)

const (
	defaultRenderWidth = 100
	newCommand         = "/new"
	quitCommand        = "/quit"
)

// NewCmd instantiates and returns the chat command.
func NewCmd(a *app.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Browse conversations and ask questions",
	}
	cmd.AddCommand(newListCmd(a), newShowCmd(a), newReplCmd(a))
	return cmd
}

// NewAskCmd instantiates and returns the ask command.
func NewAskCmd(a *app.App) *cobra.Command {
	var opts conversationOpts
	cmd := &cobra.Command{
		Use:   "ask <question>...",
		Short: "Ask a question about your documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := opts.resume(ctx, a); err != nil {
				return err
			}
			response, err := a.State.Ask(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			printAnswer(newRenderer(opts.Raw), response.Answer, response.Sources)
			cli.Source("conversation #%d\n", response.ConversationID)
			return nil
		},
	}
	opts.register(cmd)
	return cmd
}

func newListCmd(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List conversations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.State.LoadConversations(cmd.Context()); err != nil {
				return err
			}
			conversations := a.State.Snapshot().Conversations

			cli.Title("CONVERSATIONS")
			if len(conversations) == 0 {
				cli.UserInput("No conversations.\n")
				return nil
			}
			for _, conversation := range conversations {
				cli.FileInfo("#%-4d ", conversation.ID)
				cli.UserInput("%s  ", conversation.DisplayTitle())
				cli.Source("%s\n", formatTime(conversation.UpdatedAt))
			}
			return nil
		},
	}
}

func newShowCmd(a *app.App) *cobra.Command {
	var opts struct {
		Raw bool
	}
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.State.SelectConversation(cmd.Context(), id); err != nil {
				return err
			}
			snapshot := a.State.Snapshot()

			cli.Title("%s", snapshot.Current.DisplayTitle())
			renderer := newRenderer(opts.Raw)
			for _, message := range snapshot.Messages {
				if message.Role == client.RoleUser {
					cli.UserInput("> %s\n", message.Content)
					continue
				}
				printAnswer(renderer, message.Content, message.Sources)
				cli.Separator()
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.Raw, "raw", false, "Print answers without markdown rendering")
	return cmd
}

func newReplCmd(a *app.App) *cobra.Command {
	var opts conversationOpts
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Ask questions in a loop (Ctrl+J to send, /new to start over, /quit to exit)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := opts.resume(ctx, a); err != nil {
				return err
			}
			renderer := newRenderer(opts.Raw)

			cli.Title("SDOC CHAT")
			for {
				input, err := cli.PromptUser()
				if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return err
				}
				question := strings.TrimSpace(input)
				switch question {
				case "":
					continue
				case quitCommand:
					return nil
				case newCommand:
					a.State.NewConversation()
					cli.Success("new conversation\n")
					continue
				}

				response, err := a.State.Ask(ctx, question)
				if err != nil {
					cli.Error("%v\n", err)
					continue
				}
				printAnswer(renderer, response.Answer, response.Sources)
				cli.Separator()
			}
		},
	}
	opts.register(cmd)
	return cmd
}

// conversationOpts select the conversation new questions go to.
type conversationOpts struct {
	ConversationID int64
	Continue       bool
	Raw            bool
}

func (o *conversationOpts) register(cmd *cobra.Command) {
	cmd.Flags().Int64VarP(&o.ConversationID, "conversation", "c", 0, "Continue this conversation")
	cmd.Flags().BoolVar(&o.Continue, "continue", false, "Continue the most recent conversation")
	cmd.Flags().BoolVar(&o.Raw, "raw", false, "Print answers without markdown rendering")
}

// resume selects the requested conversation, if any.
func (o *conversationOpts) resume(ctx context.Context, a *app.App) error {
	id := o.ConversationID
	if o.Continue && id == 0 {
		if err := a.State.LoadConversations(ctx); err != nil {
			return err
		}
		conversations := a.State.Snapshot().Conversations
		if len(conversations) == 0 {
			return errors.New("no conversation to continue")
		}
		id = conversations[0].ID
	}
	if id == 0 {
		return nil
	}
	return a.State.SelectConversation(ctx, id)
}

// newRenderer returns nil when answers are printed raw.
func newRenderer(raw bool) *markdown.Renderer {
	if raw {
		return nil
	}
	renderer, err := markdown.NewRenderer(defaultRenderWidth)
	if err != nil {
		return nil
	}
	return renderer
}

func printAnswer(renderer *markdown.Renderer, answer string, sources client.Sources) {
	if renderer != nil {
		answer = strings.TrimRight(renderer.Render("", answer), "\n")
	}
	cli.Answer(answer)
	for i, source := range sources {
		cli.Source("[%d] %s\n", i+1, source.Label())
	}
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
		return 0, errors.Errorf("invalid conversation id %q", arg)
	}
	return id, nil
}
