package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/SwajanJain/tabwise/internal/applog"
	"github.com/SwajanJain/tabwise/internal/bridge"
	"github.com/SwajanJain/tabwise/internal/capture"
	"github.com/SwajanJain/tabwise/internal/export"
	"github.com/SwajanJain/tabwise/internal/session"
	"github.com/SwajanJain/tabwise/internal/store"
	"github.com/SwajanJain/tabwise/internal/suggest"
	"github.com/SwajanJain/tabwise/internal/tui"
	"github.com/SwajanJain/tabwise/internal/types"
)

const defaultPort = 19192

func main() {
	godotenv.Load()
	initLog()

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "favorites":
			runFavorites(os.Args[2:])
			return
		case "workspaces":
			runWorkspaces(os.Args[2:])
			return
		case "capture":
			runCapture(os.Args[2:])
			return
		case "suggest":
			runSuggest(os.Args[2:])
			return
		case "export":
			runExport(os.Args[2:])
			return
		case "profiles":
			runProfiles()
			return
		case "help", "--help", "-h":
			printHelp()
			return
		}
	}

	fs := flag.NewFlagSet("tabwise", flag.ExitOnError)
	port := fs.Int("port", defaultPort, "WebSocket port for the sidebar extension")
	dbPath := fs.String("db", "", "Database path (default: ~/.local/share/tabwise/tabwise.db)")
	fs.Parse(os.Args[1:])

	db, err := openDB(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	srv := bridge.New(*port)
	model := tui.NewModel(db, srv)
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func initLog() {
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	applog.Init(filepath.Join(home, ".local", "share", "tabwise"))
}

func openDB(path string) (*sql.DB, error) {
	if path == "" {
		var err error
		path, err = store.DefaultDBPath()
		if err != nil {
			return nil, err
		}
	}
	return store.OpenDB(path)
}

func printHelp() {
	fmt.Print(`tabwise — smart tab switching for your browser sidebar

Usage:
  tabwise                                      Start the TUI (default)
    --port <n>             WebSocket port for the sidebar extension (default: 19192)
    --db <path>            Database path (default: ~/.local/share/tabwise/tabwise.db)

  tabwise favorites list                       List favorites
  tabwise favorites add <url> [title]          Add a favorite (title fetched if omitted)
  tabwise favorites remove <n|url>             Remove a favorite
  tabwise favorites rename <n|url> <title>     Rename a favorite
  tabwise favorites move <n|url> <position>    Move a favorite to a new position

  tabwise workspaces list                      List workspaces
  tabwise workspaces show <name>               Show a workspace's items
  tabwise workspaces rename <name> <new-name>  Rename a workspace
  tabwise workspaces delete <name>             Delete a workspace
  tabwise workspaces diff <name>               Compare a workspace against open tabs
    --live                 Read open tabs from the extension instead of the session file
    --profile <name>       Firefox profile name
    --port <n>             WebSocket port (default: 19192)

  tabwise capture                              Save open tabs as a workspace
    --name <text>          Workspace name (default: timestamped)
    --live                 Read open tabs from the extension instead of the session file
    --profile <name>       Firefox profile name
    --port <n>             WebSocket port (default: 19192)

  tabwise suggest                              Rank open tabs as favorite candidates via Ollama
    --model <name>         Ollama model (env: TABWISE_MODEL, default: llama3.2)
    --live                 Read open tabs from the extension instead of the session file
    --profile <name>       Firefox profile name
    --port <n>             WebSocket port (default: 19192)

  tabwise export                               Export favorites and workspaces
    --json                 Export as JSON instead of markdown
    --out <file>           Output file path (default: stdout)

  tabwise profiles                             List Firefox profiles

Environment:
  TABWISE_PROFILE    Default Firefox profile (overridden by --profile flag)
  TABWISE_MODEL      Default Ollama model (overridden by --model flag)
  OLLAMA_HOST        Ollama server URL (default: http://localhost:11434)
`)
}

// resolveProfileName returns the profile name from the flag if set,
// otherwise falls back to the TABWISE_PROFILE environment variable.
func resolveProfileName(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv("TABWISE_PROFILE")
}

// openTabs reads the current tab set, either live from the extension or
// from the Firefox session file of the resolved profile.
func openTabs(live bool, port int, profileName string) ([]types.Tab, error) {
	if live {
		return liveTabs(port)
	}
	profiles, err := session.DiscoverProfiles()
	if err != nil {
		return nil, fmt.Errorf("discover profiles: %w", err)
	}
	profile, err := session.DefaultProfile(profiles, resolveProfileName(profileName))
	if err != nil {
		return nil, err
	}
	tabs, err := session.ReadSessionFile(profile.Path)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	return tabs, nil
}

// liveTabs starts the bridge and waits for the extension's first
// snapshot.
func liveTabs(port int) ([]types.Tab, error) {
	srv := bridge.New(port)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go srv.ListenAndServe(ctx)

	fmt.Fprintf(os.Stderr, "Waiting for the sidebar extension on port %d...\n", port)

	timeout := time.After(10 * time.Second)
	for {
		select {
		case msg := <-srv.Messages():
			if msg.Type == "snapshot" {
				return bridge.ParseTabs(msg.Tabs)
			}
		case <-timeout:
			return nil, fmt.Errorf("timed out waiting for extension (10s)")
		}
	}
}

func runFavorites(args []string) {
	db, err := openDB("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	subcmd := "list"
	if len(args) > 0 {
		subcmd = args[0]
		args = args[1:]
	}

	switch subcmd {
	case "list":
		listFavorites(db)
	case "add":
		if len(args) < 1 {
			fmt.Fprintln(os.Stderr, "Usage: tabwise favorites add <url> [title]")
			os.Exit(1)
		}
		addFavorite(db, args[0], strings.Join(args[1:], " "))
	case "remove":
		item := mustResolveFavorite(db, args)
		if err := store.RemoveFavorite(db, item.ID); err != nil {
			fatal(err)
		}
		fmt.Printf("Removed %s\n", itemLabel(item))
	case "rename":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Usage: tabwise favorites rename <n|url> <title>")
			os.Exit(1)
		}
		item := mustResolveFavorite(db, args[:1])
		title := strings.Join(args[1:], " ")
		if err := store.RenameFavorite(db, item.ID, title); err != nil {
			fatal(err)
		}
		fmt.Printf("Renamed to %s\n", title)
	case "move":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Usage: tabwise favorites move <n|url> <position>")
			os.Exit(1)
		}
		item := mustResolveFavorite(db, args[:1])
		pos, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid position %q\n", args[1])
			os.Exit(1)
		}
		if err := store.MoveFavorite(db, item.ID, pos); err != nil {
			fatal(err)
		}
		fmt.Printf("Moved %s to position %d\n", itemLabel(item), pos)
	default:
		fmt.Fprintf(os.Stderr, "Unknown favorites command %q. Use list, add, remove, rename, or move.\n", subcmd)
		os.Exit(1)
	}
}

func listFavorites(db *sql.DB) {
	favorites, err := store.ListFavorites(db)
	if err != nil {
		fatal(err)
	}
	if len(favorites) == 0 {
		fmt.Println("No favorites yet. Add one with: tabwise favorites add <url>")
		return
	}
	for _, item := range favorites {
		bound := ""
		if item.Bound() {
			bound = " [open]"
		}
		fmt.Printf("%2d. %s%s\n    %s\n", item.Position, itemLabel(item), bound, item.URL)
	}
}

func addFavorite(db *sql.DB, url, title string) {
	if title == "" {
		fetched, err := suggest.FetchTitle(url)
		if err != nil {
			applog.Error("cli.fetch-title", err, "url", url)
		} else {
			title = fetched
		}
	}
	item, err := store.AddFavorite(db, url, title)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Added %s at position %d\n", itemLabel(item), item.Position)
}

// mustResolveFavorite finds a favorite by its list position or by exact
// URL, exiting with a message when nothing matches.
func mustResolveFavorite(db *sql.DB, args []string) *types.Item {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Missing favorite: give a position number or URL")
		os.Exit(1)
	}
	favorites, err := store.ListFavorites(db)
	if err != nil {
		fatal(err)
	}
	arg := args[0]
	if n, err := strconv.Atoi(arg); err == nil {
		for _, item := range favorites {
			if item.Position == n {
				return item
			}
		}
	}
	for _, item := range favorites {
		if item.URL == arg {
			return item
		}
	}
	fmt.Fprintf(os.Stderr, "No favorite matching %q\n", arg)
	os.Exit(1)
	return nil
}

func runWorkspaces(args []string) {
	db, err := openDB("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	subcmd := "list"
	if len(args) > 0 {
		subcmd = args[0]
		args = args[1:]
	}

	switch subcmd {
	case "list":
		workspaces, err := store.ListWorkspaces(db)
		if err != nil {
			fatal(err)
		}
		if len(workspaces) == 0 {
			fmt.Println("No workspaces yet. Create one with: tabwise capture")
			return
		}
		for _, ws := range workspaces {
			fmt.Printf("%s (%d items, created %s)\n", ws.Name, len(ws.Items), ws.CreatedAt.Format("2006-01-02"))
		}
	case "show":
		ws := mustWorkspace(db, args)
		fmt.Printf("%s (%d items)\n", ws.Name, len(ws.Items))
		for _, item := range ws.Items {
			fmt.Printf("  %s\n    %s\n", itemLabel(item), item.URL)
		}
	case "rename":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Usage: tabwise workspaces rename <name> <new-name>")
			os.Exit(1)
		}
		ws := mustWorkspace(db, args[:1])
		if err := store.RenameWorkspace(db, ws.ID, args[1]); err != nil {
			fatal(err)
		}
		fmt.Printf("Renamed %s to %s\n", ws.Name, args[1])
	case "delete":
		ws := mustWorkspace(db, args)
		if err := store.DeleteWorkspace(db, ws.ID); err != nil {
			fatal(err)
		}
		fmt.Printf("Deleted %s\n", ws.Name)
	case "diff":
		runWorkspaceDiff(db, args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown workspaces command %q. Use list, show, rename, delete, or diff.\n", subcmd)
		os.Exit(1)
	}
}

func mustWorkspace(db *sql.DB, args []string) *types.Workspace {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Missing workspace name")
		os.Exit(1)
	}
	ws, err := store.GetWorkspaceByName(db, args[0])
	if err != nil {
		fatal(err)
	}
	return ws
}

func runWorkspaceDiff(db *sql.DB, args []string) {
	fs := flag.NewFlagSet("diff", flag.ExitOnError)
	liveMode := fs.Bool("live", false, "Read open tabs from the extension")
	profileName := fs.String("profile", "", "Firefox profile name")
	port := fs.Int("port", defaultPort, "WebSocket port")
	fs.Parse(reorderArgs(args))

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: tabwise workspaces diff <name>")
		os.Exit(1)
	}
	ws, err := store.GetWorkspaceByName(db, fs.Arg(0))
	if err != nil {
		fatal(err)
	}
	tabs, err := openTabs(*liveMode, *port, *profileName)
	if err != nil {
		fatal(err)
	}
	fmt.Print(capture.FormatDiff(capture.Diff(ws, tabs)))
}

func runCapture(args []string) {
	fs := flag.NewFlagSet("capture", flag.ExitOnError)
	name := fs.String("name", "", "Workspace name")
	liveMode := fs.Bool("live", false, "Read open tabs from the extension")
	profileName := fs.String("profile", "", "Firefox profile name")
	port := fs.Int("port", defaultPort, "WebSocket port")
	fs.Parse(args)

	tabs, err := openTabs(*liveMode, *port, *profileName)
	if err != nil {
		fatal(err)
	}

	db, err := openDB("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	ws, err := capture.Capture(db, *name, tabs)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Captured %s (%d items)\n", ws.Name, len(ws.Items))
}

func runSuggest(args []string) {
	fs := flag.NewFlagSet("suggest", flag.ExitOnError)
	model := fs.String("model", "", "Ollama model (env: TABWISE_MODEL, default: llama3.2)")
	liveMode := fs.Bool("live", false, "Read open tabs from the extension")
	profileName := fs.String("profile", "", "Firefox profile name")
	port := fs.Int("port", defaultPort, "WebSocket port")
	fs.Parse(args)

	tabs, err := openTabs(*liveMode, *port, *profileName)
	if err != nil {
		fatal(err)
	}

	db, err := openDB("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	favorites, err := store.ListFavorites(db)
	if err != nil {
		fatal(err)
	}

	var open []string
	for _, tab := range tabs {
		open = append(open, tab.URL)
	}
	var favoriteURLs []string
	for _, item := range favorites {
		favoriteURLs = append(favoriteURLs, item.URL)
	}

	cfg := resolveSuggestConfig(*model)
	fmt.Fprintf(os.Stderr, "Asking %s to rank %d open tabs...\n", cfg.Model, len(open))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ranked, err := suggest.Suggest(ctx, cfg, open, favoriteURLs)
	if err != nil {
		fatal(err)
	}
	if len(ranked) == 0 {
		fmt.Println("No suggestions.")
		return
	}
	fmt.Println("Suggested favorites, most promising first:")
	for i, url := range ranked {
		fmt.Printf("%2d. %s\n", i+1, url)
	}
	fmt.Println("\nAdd one with: tabwise favorites add <url>")
}

func resolveSuggestConfig(flagModel string) suggest.Config {
	model := flagModel
	if model == "" {
		model = os.Getenv("TABWISE_MODEL")
	}
	if model == "" {
		model = "llama3.2"
	}
	host := os.Getenv("OLLAMA_HOST")
	if host == "" {
		host = "http://localhost:11434"
	}
	return suggest.Config{Model: model, Host: host}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	jsonFlag := fs.Bool("json", false, "Export as JSON instead of markdown")
	outFile := fs.String("out", "", "Output file path (default: stdout)")
	fs.Parse(args)

	db, err := openDB("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	favorites, err := store.ListFavorites(db)
	if err != nil {
		fatal(err)
	}
	workspaces, err := store.ListWorkspaces(db)
	if err != nil {
		fatal(err)
	}

	var output string
	if *jsonFlag {
		output, err = export.JSON(favorites, workspaces)
		if err != nil {
			fatal(err)
		}
	} else {
		output = export.Markdown(favorites, workspaces)
	}

	if *outFile != "" {
		if err := os.WriteFile(*outFile, []byte(output), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
			os.Exit(1)
		}
	} else {
		fmt.Print(output)
	}
}

func runProfiles() {
	profiles, err := session.DiscoverProfiles()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error discovering Firefox profiles: %v\n", err)
		os.Exit(1)
	}
	if len(profiles) == 0 {
		fmt.Fprintln(os.Stderr, "No Firefox profiles found.")
		os.Exit(1)
	}
	for _, p := range profiles {
		suffix := ""
		if p.IsDefault {
			suffix = " [default]"
		}
		fmt.Printf("%s (%s)%s\n", p.Name, p.Path, suffix)
	}
}

func itemLabel(item *types.Item) string {
	if item.Title != "" {
		return item.Title
	}
	return item.URL
}

// reorderArgs moves flag arguments before positional arguments so that
// flag.Parse handles them correctly (it stops at the first non-flag arg).
func reorderArgs(args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		if strings.HasPrefix(args[i], "-") {
			flags = append(flags, args[i])
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				flags = append(flags, args[i+1])
				i++
			}
		} else {
			positional = append(positional, args[i])
		}
	}
	return append(flags, positional...)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
