package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cyberwithvishal/riyu/runtime/agents"
	"github.com/cyberwithvishal/riyu/runtime/conversation"
	"github.com/cyberwithvishal/riyu/runtime/logger"
	"github.com/cyberwithvishal/riyu/runtime/types"
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Chat with the active agent in text",
	Long: `With a message argument, send one turn and print the reply. Without
one, start an interactive session. Interactive commands:

  /agent <id>    switch persona
  /agents        list personas
  /notes <text>  save memory notes used to seed live sessions
  /clear         forget the conversation
  /quit          exit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().Bool("open-urls", false, "Let the web control tool open URLs with xdg-open")
	chatCmd.Flags().Bool("run-commands", false, "Let the linux command tool run shell commands")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadSettings(viper.GetViper())
	if err != nil {
		return err
	}
	shutdown, err := setupObservability(ctx, cfg, viper.GetBool(flagVerbose))
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(context.Background()) }()

	a, err := openApp(ctx, cfg, toolFlags(cmd))
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	chat, err := a.newChat(ctx)
	if err != nil {
		logger.Warn("chat service unavailable, replies will fall back", "error", err)
	}

	con := newConsole(cmd.OutOrStdout())
	ctrl, err := a.newController(ctx, chat, nil, conversation.Config{})
	if err != nil {
		return err
	}

	if len(args) > 0 {
		msg, err := ctrl.SendMessage(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		if msg.Text != "" {
			con.Message(ctrl.Agent(), msg)
		}
		return nil
	}

	r := &repl{ctrl: ctrl, con: con, notes: a.history.SaveNotes}
	return r.run(ctx, cmd.InOrStdin())
}

func toolFlags(cmd *cobra.Command) toolOptions {
	openURLs, _ := cmd.Flags().GetBool("open-urls")
	runCommands, _ := cmd.Flags().GetBool("run-commands")
	return toolOptions{openURLs: openURLs, runCommands: runCommands}
}

var errQuit = errors.New("quit")

// chatController is the part of conversation.Controller the REPL drives.
type chatController interface {
	Agent() agents.Agent
	SendMessage(ctx context.Context, text string) (types.Message, error)
	SwitchAgent(ctx context.Context, id agents.ID) (agents.Agent, error)
	Clear(ctx context.Context) error
}

type repl struct {
	ctrl  chatController
	con   *console
	notes func(ctx context.Context, notes string) error
}

func (r *repl) run(ctx context.Context, in io.Reader) error {
	r.con.Status("Talking to %s. /quit to exit.", r.ctrl.Agent().Name)
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		err := r.handle(ctx, strings.TrimSpace(sc.Text()))
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			r.con.Alert("%v", err)
		}
	}
	return sc.Err()
}

func (r *repl) handle(ctx context.Context, line string) error {
	if line == "" {
		return nil
	}
	if !strings.HasPrefix(line, "/") {
		msg, err := r.ctrl.SendMessage(ctx, line)
		if err != nil {
			return err
		}
		if msg.Text != "" {
			r.con.Message(r.ctrl.Agent(), msg)
		}
		return nil
	}

	verb, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	switch verb {
	case "/quit", "/exit":
		return errQuit
	case "/agents":
		r.con.Agents(r.ctrl.Agent().ID)
	case "/agent":
		a, err := r.ctrl.SwitchAgent(ctx, agents.ID(rest))
		if err != nil {
			return err
		}
		r.con.Status("Switched to %s (%s).", a.Name, a.Role)
	case "/clear":
		if err := r.ctrl.Clear(ctx); err != nil {
			return err
		}
		r.con.Status("Conversation cleared.")
	case "/notes":
		if r.notes == nil {
			return errors.New("notes are not available")
		}
		if err := r.notes(ctx, rest); err != nil {
			return err
		}
		r.con.Status("Notes saved.")
	default:
		r.con.Alert("unknown command %s", verb)
	}
	return nil
}
