package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/houyudong/deepthink/internal/archive"
	"github.com/houyudong/deepthink/internal/questions"
	"github.com/houyudong/deepthink/internal/thinking"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx := context.Background()

	fs := flag.NewFlagSet("deepthink", flag.ExitOnError)
	baseURL := fs.String("base-url", "", "Reasoning service base URL (overrides config)")
	role := fs.String("role", "", "User role: student or teacher (overrides config)")
	pageContext := fs.String("page-context", "", "Page context sent with requests (overrides config)")
	noArchive := fs.Bool("no-archive", false, "Disable session archiving")
	dataDir := fs.String("data-dir", "", "Directory for the session archive (default: user config dir)")

	if err := fs.Parse(os.Args[1:]); err != nil {
		log.Fatalf("failed to parse flags: %v", err)
	}

	env, err := prepareRuntimeEnv(ctx, envOptions{
		BaseURL:     *baseURL,
		Role:        *role,
		PageContext: *pageContext,
		NoArchive:   *noArchive,
		DataDir:     *dataDir,
	})
	if err != nil {
		log.Fatalf("failed to prepare runtime environment: %v", err)
	}
	defer env.Close()

	// Ctrl-C cancels the active session instead of killing the process.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		for range sigCh {
			if env.Manager.IsActive() {
				env.Manager.Cancel()
				fmt.Println("\n(session cancelled)")
			} else {
				fmt.Println("\n(no active session, use /quit to exit)")
			}
		}
	}()

	runREPL(ctx, env)
}

func runREPL(ctx context.Context, env *runtimeEnv) {
	log.Printf("deepthink ready (role: %s, service: %s)", env.Role(), env.BaseURL())
	fmt.Println("Type a question for a deep-thinking session, /help for commands.")

	s := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
		if !s.Scan() {
			break
		}
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := runCommand(ctx, env, line); quit {
				break
			}
			continue
		}

		runSession(ctx, env, line)
	}
}

func runCommand(ctx context.Context, env *runtimeEnv, line string) (quit bool) {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/quit", "/exit":
		return true

	case "/help":
		fmt.Println("  <question>        start a streamed deep-thinking session")
		fmt.Println("  /ask <question>   one-shot answer without streaming")
		fmt.Println("  /questions        show example questions for your role")
		fmt.Println("  /search <term>    search archived session transcripts")
		fmt.Println("  /recent           list recently archived sessions")
		fmt.Println("  /quit             exit")

	case "/ask":
		answer, err := env.Manager.AskOnce(ctx, arg, env.Role(), env.PageContext())
		if err != nil {
			log.Printf("error: %v", err)
			break
		}
		fmt.Println(answer)

	case "/questions":
		qs := env.Questions.Questions(ctx, questions.Query{
			PageContext: env.PageContext(),
			Role:        env.Role(),
			Limit:       5,
		})
		for _, q := range qs {
			fmt.Printf("  [%s] %s\n", q.Difficulty, q.Text)
		}

	case "/search":
		if env.Archive == nil {
			fmt.Println("archiving is disabled")
			break
		}
		if arg == "" {
			fmt.Println("usage: /search <term>")
			break
		}
		hits, err := env.Archive.Search(ctx, arg, 10)
		if err != nil {
			log.Printf("search failed: %v", err)
			break
		}
		if len(hits) == 0 {
			fmt.Println("no matches")
			break
		}
		for _, h := range hits {
			fmt.Printf("  %s / %s: %s\n", h.SessionID, h.Stage, h.Question)
		}

	case "/recent":
		if env.Archive == nil {
			fmt.Println("archiving is disabled")
			break
		}
		recs, err := env.Archive.Recent(ctx, 10)
		if err != nil {
			log.Printf("listing failed: %v", err)
			break
		}
		for _, r := range recs {
			fmt.Printf("  %s  %s  (%d stages)\n",
				r.CompletedAt.Format("2006-01-02 15:04"), r.Question, len(r.Stages))
		}

	default:
		fmt.Printf("unknown command %s, try /help\n", cmd)
	}
	return false
}

// runSession streams one deep-thinking session to the terminal and waits for
// it to finish. Completed sessions are recorded in the archive.
func runSession(ctx context.Context, env *runtimeEnv, question string) {
	var (
		mu        sync.Mutex
		stages    []archive.StageRecord
		completed *thinking.Session
	)

	h, err := env.Manager.Start(question, env.Role(), env.PageContext(), thinking.StartOptions{
		Callbacks: thinking.Callbacks{
			OnThinking: func(ev thinking.Event) {
				fmt.Printf("  ... %s\n", ev.Thinking)
			},
			OnStage: func(ev thinking.Event) {
				fmt.Printf("  [%3d%%] %s\n%s\n\n", ev.Progress, ev.Stage, indent(ev.Content))
				mu.Lock()
				stages = append(stages, archive.StageRecord{
					Position: len(stages),
					Name:     ev.Stage,
					Content:  ev.Content,
				})
				mu.Unlock()
			},
			OnError: func(msg string) {
				fmt.Printf("  error: %s\n", msg)
			},
			OnComplete: func(s thinking.Session) {
				mu.Lock()
				completed = &s
				mu.Unlock()
			},
		},
	})
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	<-h.Done()

	mu.Lock()
	defer mu.Unlock()
	if completed == nil || env.Archive == nil {
		return
	}
	rec := archive.Record{
		SessionID:   completed.ID,
		Question:    completed.Question,
		Role:        completed.Role,
		StartedAt:   completed.StartedAt,
		CompletedAt: time.Now(),
		Stages:      stages,
	}
	if err := env.Archive.Record(ctx, rec); err != nil {
		log.Printf("failed to archive session: %v", err)
	}
}

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = "    " + l
	}
	return strings.Join(lines, "\n")
}
