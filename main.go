package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/jward/taskmedal/pkg/auth"
	"github.com/jward/taskmedal/pkg/config"
	"github.com/jward/taskmedal/pkg/engine"
	"github.com/jward/taskmedal/pkg/kv"
	"github.com/jward/taskmedal/pkg/model"
	"github.com/jward/taskmedal/pkg/session"
)

func main() {
	// 1. Parse Flags
	doAuth := flag.Bool("auth", false, "Re-authenticate with Google (discards the cached token)")
	setBackend := flag.String("set-backend", "", "Set the default storage backend (file or sqlite)")
	reset := flag.Bool("reset", false, "Reset the completion counter and medals, then exit")
	flag.Parse()

	// 2. Handle Set Backend
	if *setBackend != "" {
		if *setBackend != config.BackendFile && *setBackend != config.BackendSQLite {
			log.Fatalf("unknown backend %q (want file or sqlite)", *setBackend)
		}
		cfg := &config.Config{Backend: *setBackend}
		if err := config.Save(cfg); err != nil {
			log.Fatalf("Error saving config: %v", err)
		}
		fmt.Printf("Default storage backend set to: %s\n", *setBackend)
		return
	}

	// 3. Load Config and Open the Durable Store
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir, err = auth.GetXdgHome()
		if err != nil {
			log.Fatalf("could not find path to configuration directory: %v", err)
		}
	}

	var durable kv.Store
	switch cfg.Backend {
	case config.BackendSQLite:
		s, err := kv.NewSQLiteStore(filepath.Join(dataDir, "taskmedal.db"))
		if err != nil {
			log.Fatalf("Error opening sqlite store: %v", err)
		}
		defer s.Close()
		durable = s
	default:
		s, err := kv.NewFileStore(filepath.Join(dataDir, "state.json"))
		if err != nil {
			log.Fatalf("Error opening file store: %v", err)
		}
		durable = s
	}

	// 4. Build the Engine
	bridge, err := auth.NewGoogleBridge("")
	if err != nil {
		log.Fatalf("Error creating identity bridge: %v", err)
	}
	eng := engine.New(bridge, durable)

	// 5. Handle One-Shot Flags
	if *reset {
		eng.ResetProgress()
		fmt.Println("Progress reset: 0 completed, no medals.")
		return
	}

	ctx := context.Background()
	if *doAuth {
		if err := bridge.ClearToken(); err != nil {
			log.Fatalf("Error clearing cached token: %v", err)
		}
		if err := eng.Login(ctx); err != nil {
			log.Fatalf("Authentication failed: %v", err)
		}
		if eng.Session.State() != session.Authenticated {
			log.Fatalf("Authentication failed: %s", eng.Session.ErrMessage())
		}
		fmt.Printf("Authenticated as %s <%s>\n", eng.Session.Profile().Name, eng.Session.Profile().Email)
		return
	}

	// 6. Interactive Loop
	if eng.Session.State() != session.Authenticated {
		fmt.Println("Not logged in. Starting login...")
		if err := eng.Login(ctx); err != nil {
			log.Fatalf("Login error: %v", err)
		}
		if eng.Session.State() != session.Authenticated {
			log.Fatalf("Login failed: %s", eng.Session.ErrMessage())
		}
	}
	fmt.Printf("Welcome, %s. Type 'help' for commands.\n", eng.Session.Profile().Name)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, rest := line, ""
		if i := strings.IndexByte(line, ' '); i > 0 {
			cmd, rest = line[:i], strings.TrimSpace(line[i+1:])
		}

		switch cmd {
		case "help":
			fmt.Println("commands: list | add <title>;<due YYYY-MM-DD>[;priority] | toggle <id> | rm <id> | profile | reset | logout | quit")
		case "list":
			for _, t := range eng.Tasks.List() {
				mark := " "
				if t.Status == model.StatusComplete {
					mark = "x"
				}
				fmt.Printf("[%s] %-8s %-10s %s  (%s)\n", mark, t.ID, t.DueDate, t.Title, t.Priority)
			}
		case "add":
			parts := strings.SplitN(rest, ";", 3)
			if len(parts) < 2 {
				fmt.Println("usage: add <title>;<due YYYY-MM-DD>[;priority]")
				continue
			}
			due, err := model.ParseDate(strings.TrimSpace(parts[1]))
			if err != nil {
				fmt.Printf("bad due date: %v\n", err)
				continue
			}
			draft := model.Draft{Title: strings.TrimSpace(parts[0]), DueDate: due}
			if len(parts) == 3 {
				draft.Priority = model.Priority(strings.TrimSpace(parts[2]))
			}
			t, err := eng.Tasks.Add(draft)
			if err != nil {
				fmt.Printf("error: %v\n", err)
				continue
			}
			fmt.Printf("added %s\n", t.ID)
		case "toggle":
			t, err := eng.Tasks.Toggle(rest)
			if err != nil {
				fmt.Printf("error: %v\n", err)
				continue
			}
			fmt.Printf("%s is now %s (lifetime completed: %d)\n", t.ID, t.Status, eng.Achievements.CompletedCount())
			if m := eng.Achievements.Notification(); m != "" {
				fmt.Printf("*** Medal unlocked: %s! ***\n", m)
			}
		case "rm":
			if err := eng.Tasks.Remove(rest); err != nil {
				fmt.Printf("error: %v\n", err)
				continue
			}
			fmt.Println("removed")
		case "profile":
			p := eng.Session.Profile()
			fmt.Printf("%s <%s>\ncompleted: %d\nmedals: %v\n", p.Name, p.Email, eng.Achievements.CompletedCount(), eng.Achievements.UnlockedMedals())
		case "reset":
			eng.ResetProgress()
			fmt.Println("progress reset")
		case "logout":
			eng.Logout()
			fmt.Println("logged out")
			return
		case "quit", "exit":
			return
		default:
			fmt.Printf("unknown command %q (try 'help')\n", cmd)
		}
	}
}
