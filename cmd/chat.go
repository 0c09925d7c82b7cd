package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datachat-cli/internal/frame"
	"github.com/KaramelBytes/datachat-cli/internal/orchestrator"
	"github.com/KaramelBytes/datachat-cli/internal/session"
	"github.com/KaramelBytes/datachat-cli/internal/utils"
)

var (
	chatFrame frameFlags
	chatFile  string
)

const chatHelp = `Commands:
  /load <file>    load a CSV/TSV (replaces the conversation)
  /schema         profile the loaded dataset
  /head [n]       show the first rows (default 5)
  /insights       list the conclusions recorded so far
  /code           show the last generated analysis code
  /save <path>    write the last generated code to a file
  /history        show the conversation so far
  /help           show this help
  /quit           leave
Anything else is sent to the assistant.`

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation about a dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		fopt, err := chatFrame.options()
		if err != nil {
			return err
		}
		orch, err := buildOrchestrator(c)
		if err != nil {
			return err
		}

		rl, err := readline.NewEx(&readline.Config{
			Prompt:          "datachat> ",
			HistoryFile:     c.HistoryFile,
			InterruptPrompt: "^C",
			EOFPrompt:       "exit",
		})
		if err != nil {
			return fmt.Errorf("init readline: %w", err)
		}
		defer rl.Close()

		r := &repl{
			out:  rl.Stdout(),
			p:    newPrinter(rl.Stdout()),
			s:    session.New(),
			orch: orch,
			fopt: fopt,
		}
		if chatFile != "" {
			r.load(chatFile)
		} else {
			r.p.markdown(orchestrator.MsgNoDataset + " Use `/load <arquivo.csv>` ou `/help`.")
		}

		for {
			line, err := rl.Readline()
			if errors.Is(err, readline.ErrInterrupt) {
				if line == "" {
					return nil
				}
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if strings.HasPrefix(line, "/") {
				if r.command(line) {
					return nil
				}
				continue
			}
			r.turn(cmd.Context(), line)
		}
	},
}

// repl holds the state of one interactive conversation.
type repl struct {
	out  io.Writer
	p    *printer
	s    *session.Session
	orch *orchestrator.Orchestrator
	fopt frame.Options
}

func (r *repl) turn(parent context.Context, line string) {
	// Ctrl-C during a turn cancels the model call or the running analysis.
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()
	r.p.reply(r.orch.Turn(ctx, r.s, line))
}

func (r *repl) load(path string) {
	replaced, err := loadDataset(r.s, path, r.fopt)
	if err != nil {
		fmt.Fprintln(r.out, failMark, "Falha ao ler CSV:", err)
		return
	}
	df := r.s.Data()
	if !replaced {
		fmt.Fprintf(r.out, "%s %s already loaded\n", warnMark, df.Name())
		return
	}
	fmt.Fprintf(r.out, "%s Loaded %s %s\n", okMark, df.Name(), df.Shape())
	warnTruncated(r.out, df)
	r.p.markdown(session.Welcome)
}

// command handles a slash command and reports whether the REPL should exit.
func (r *repl) command(line string) bool {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprintln(r.out, chatHelp)
	case "/load":
		if arg == "" {
			fmt.Fprintln(r.out, "usage: /load <file>")
			break
		}
		r.load(arg)
	case "/insights":
		r.p.markdown(orchestrator.MemoryReply(r.s.Insights()))
	case "/code":
		code := r.s.LastCode()
		if code == "" {
			fmt.Fprintln(r.out, "No analysis code generated yet")
			break
		}
		r.p.markdown("```go\n" + code + "\n```")
	case "/save":
		code := r.s.LastCode()
		switch {
		case arg == "":
			fmt.Fprintln(r.out, "usage: /save <path>")
		case code == "":
			fmt.Fprintln(r.out, "No analysis code generated yet")
		default:
			if err := utils.SafeWriteFile(arg, []byte(code+"\n")); err != nil {
				fmt.Fprintln(r.out, failMark, err)
				break
			}
			fmt.Fprintf(r.out, "%s Saved code to %s\n", okMark, arg)
		}
	case "/schema", "/head":
		df := r.s.Data()
		if df == nil {
			fmt.Fprintln(r.out, orchestrator.MsgNoDataset)
			break
		}
		if name == "/schema" {
			fmt.Fprintln(r.out, df.Describe())
			break
		}
		n := 5
		if arg != "" {
			v, err := strconv.Atoi(arg)
			if err != nil || v <= 0 {
				fmt.Fprintln(r.out, "usage: /head [n]")
				break
			}
			n = v
		}
		r.p.markdown(df.Head(n).Markdown())
	case "/history":
		for _, m := range r.s.Transcript() {
			fmt.Fprintf(r.out, "[%s] %s: %s\n", m.At.Format("15:04:05"), m.Role, m.Text)
		}
	default:
		fmt.Fprintf(r.out, "unknown command %s (try /help)\n", name)
	}
	return false
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatFrame.register(chatCmd)
	chatCmd.Flags().StringVarP(&chatFile, "file", "f", "", "CSV/TSV dataset to start with")
}
