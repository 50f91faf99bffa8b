package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/grocer-core-poc/server/internal/agent"
	"github.com/grocer-core-poc/server/internal/agent/model"
)

const exitCommand = "/exit"

type chatOptions struct {
	threadID string
	stream   bool
}

func newChatCommand(opts *rootOptions) *cobra.Command {
	co := &chatOptions{}
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the assistant from the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := agent.New(cmd.Context(), opts.cfg)
			if err != nil {
				return err
			}
			defer svc.Close()

			if co.threadID == "" {
				co.threadID = uuid.NewString()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "thread %s (type %s to quit)\n", co.threadID, exitCommand)
			return runREPL(cmd.Context(), svc, co, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&co.threadID, "thread", "", "thread id to continue; a new one is generated when empty")
	cmd.Flags().BoolVar(&co.stream, "stream", true, "print node outputs as they complete; when false each reply replays the whole turn state")
	return cmd
}

// chatter is the part of agent.Service used by the REPL.
type chatter interface {
	Chat(ctx context.Context, req model.ChatRequest) (*schema.StreamReader[string], error)
}

var _ chatter = (*agent.Service)(nil)

func runREPL(ctx context.Context, svc chatter, co *chatOptions, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == exitCommand:
			return nil
		}

		chunks, err := svc.Chat(ctx, model.ChatRequest{
			Messages:     []model.ChatMessage{{Role: "user", Content: line}},
			Configurable: model.Configurable{ThreadID: co.threadID},
			Stream:       co.stream,
		})
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}
		if err := printChunks(chunks, out); err != nil {
			return err
		}
	}
}

func printChunks(chunks *schema.StreamReader[string], out io.Writer) error {
	defer chunks.Close()
	for {
		c, err := chunks.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			return nil
		}
		if strings.TrimSpace(c) == "" {
			continue
		}
		if _, err := io.WriteString(out, c); err != nil {
			return err
		}
	}
}
