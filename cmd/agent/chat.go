package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/petasbytes/overview-agent/internal/runner"
	"github.com/petasbytes/overview-agent/internal/shaper"
	"github.com/petasbytes/overview-agent/memory"
)

var chatOpts struct {
	user       string
	thread     string
	account    string
	facility   string
	transcript string
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the agent in the terminal",
	Long: `Starts an interactive session on one thread. Each reply shows the card
key chosen for the turn followed by the agent's text. Ctrl-C or EOF quits.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	f := chatCmd.Flags()
	f.StringVar(&chatOpts.user, "user", "sumer.choudhary@bitcot.com", "user id the thread belongs to")
	f.StringVar(&chatOpts.thread, "thread", "", "thread id (created when new)")
	f.StringVar(&chatOpts.account, "account", "", "account id sent as context with every message")
	f.StringVar(&chatOpts.facility, "facility", "", "facility id sent as context with every message")
	f.StringVar(&chatOpts.transcript, "transcript", "", "write the thread to this JSON file after every turn")
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	threadID := chatOpts.thread
	if threadID == "" {
		th, err := a.threads.CreateThread(ctx, chatOpts.user)
		if err != nil {
			return err
		}
		threadID = th.ID
	} else if _, _, err := a.threads.EnsureThread(ctx, threadID, chatOpts.user); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	you := color.New(color.FgHiBlue).SprintFunc()
	agent := color.New(color.FgHiYellow).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()
	warn := color.New(color.FgRed)

	fmt.Fprintf(out, "Chatting on thread %s (Ctrl-C to quit)\n", threadID)

	lines := readLines(cmd.InOrStdin())
	for {
		fmt.Fprintf(out, "%s: ", you("You"))
		var (
			text string
			ok   bool
		)
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\nExiting...")
			return nil
		case text, ok = <-lines:
			if !ok {
				return nil
			}
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		env, err := a.runner.Chat(ctx, runner.Request{
			Message:    text,
			UserID:     chatOpts.user,
			AccountID:  chatOpts.account,
			FacilityID: chatOpts.facility,
			ThreadID:   threadID,
		})
		if err != nil && env == nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			warn.Fprintf(out, "error: %v\n", err)
			continue
		}
		printEnvelope(out, env, agent, dim)

		if chatOpts.transcript != "" {
			if err := saveTranscript(ctx, a.threads, threadID, chatOpts.transcript); err != nil {
				logger.Warn("save transcript", zap.String("path", chatOpts.transcript), zap.Error(err))
			}
		}
	}
}

// readLines feeds stdin lines to a channel so the loop can also watch ctx.
func readLines(r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			ch <- sc.Text()
		}
		if err := sc.Err(); err != nil {
			logger.Warn("stdin read error", zap.Error(err))
		}
	}()
	return ch
}

func printEnvelope(w io.Writer, env *shaper.Envelope, agent, dim func(...any) string) {
	detail := ""
	switch env.CardKey {
	case shaper.CardAccountOverview:
		detail = fmt.Sprintf(" %d account(s)", len(env.AccountOverview))
	case shaper.CardFacilityOverview:
		detail = fmt.Sprintf(" %d facility(ies)", len(env.FacilityOverview))
	case shaper.CardNoteOverview:
		detail = fmt.Sprintf(" %d note(s)", len(env.NoteOverview))
	}
	fmt.Fprintf(w, "%s\n", dim("["+string(env.CardKey)+detail+"]"))
	fmt.Fprintf(w, "%s: %s\n", agent("Agent"), env.FinalText)
}

func saveTranscript(ctx context.Context, store memory.Store, threadID, path string) error {
	info, err := store.GetThread(ctx, threadID)
	if err != nil {
		return err
	}
	turns, err := store.GetHistory(ctx, threadID)
	if err != nil {
		return err
	}
	return memory.SaveTranscript(path, memory.Transcript{Thread: info, Turns: turns})
}
