package clientcli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/afero"
	"golang.org/x/term"

	"eddisonso.com/file-vault/internal/buildinfo"
	"eddisonso.com/file-vault/internal/config"
	vault "eddisonso.com/file-vault/pkg/vault-sdk"
	"eddisonso.com/file-vault/pkg/vaultlog"
)

var errExit = errors.New("exit")

type App struct {
	cfg        *config.Config
	client     *vault.Client
	listing    *vault.Listing
	fs         afero.Fs
	out        io.Writer
	readSecret func(prompt string) (string, error)
}

func newApp(cfg *config.Config, store vault.TokenStore, fsys afero.Fs, out io.Writer, logger *slog.Logger) *App {
	return &App{
		cfg: cfg,
		client: vault.New(cfg.AuthAddr, cfg.FileAddr,
			vault.WithTokenStore(store),
			vault.WithTimeout(cfg.Timeout),
			vault.WithLogger(logger),
		),
		listing: vault.NewListing(),
		fs:      fsys,
		out:     out,
	}
}

func Run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.ApplyFlags(args, os.Stderr); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, _ := vaultlog.ParseLevel(cfg.LogLevel)
	logger, err := vaultlog.NewLogger(vaultlog.Config{
		Source:   "vault-client",
		FilePath: cfg.LogFile,
		MinLevel: level,
	})
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logger.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	store, closeStore, err := newTokenStore(ctx, cfg)
	cancel()
	if err != nil {
		return err
	}
	defer closeStore()

	app := newApp(cfg, store, afero.NewOsFs(), os.Stdout, logger.Logger)

	fmt.Fprintf(app.out, "File Vault client %s (auth %s, files %s)\n", buildinfo.Version, cfg.AuthAddr, cfg.FileAddr)
	app.printSession(app.client.Session().ResolveInitialView(context.Background()))
	fmt.Fprintln(app.out, "Type 'help' for commands, 'exit' to quit")
	fmt.Fprintln(app.out)

	completer := readline.NewPrefixCompleter(
		readline.PcItem("register"),
		readline.PcItem("login"),
		readline.PcItem("logout"),
		readline.PcItem("whoami"),
		readline.PcItem("ping"),
		readline.PcItem("ls"),
		readline.PcItem("search"),
		readline.PcItem("filter"),
		readline.PcItem("upload"),
		readline.PcItem("download", readline.PcItemDynamic(app.completeFileID)),
		readline.PcItem("share", readline.PcItemDynamic(app.completeFileID)),
		readline.PcItem("rm", readline.PcItemDynamic(app.completeFileID)),
		readline.PcItem("admin-ls"),
		readline.PcItem("version"),
		readline.PcItem("help"),
		readline.PcItem("exit"),
		readline.PcItem("quit"),
	)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          app.prompt(),
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer rl.Close()

	app.readSecret = func(prompt string) (string, error) {
		fd := int(os.Stdin.Fd())
		if term.IsTerminal(fd) {
			fmt.Fprint(os.Stderr, prompt)
			secret, err := term.ReadPassword(fd)
			fmt.Fprintln(os.Stderr)
			return string(secret), err
		}
		secret, err := rl.ReadPassword(prompt)
		return string(secret), err
	}

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err != nil {
			break
		}

		args := parseArgs(strings.TrimSpace(line))
		if len(args) == 0 {
			continue
		}

		err = app.dispatch(args[0], args[1:])
		if errors.Is(err, errExit) {
			fmt.Fprintln(app.out, "Goodbye!")
			return nil
		}
		app.report(err)
		rl.SetPrompt(app.prompt())
	}

	return nil
}

func (a *App) dispatch(cmd string, args []string) error {
	switch cmd {
	case "register", "signup":
		return a.cmdRegister(args)
	case "login":
		return a.cmdLogin(args)
	case "logout":
		return a.cmdLogout(args)
	case "whoami":
		return a.cmdWhoami(args)
	case "ping":
		return a.cmdPing(args)
	case "ls":
		return a.cmdLs(args)
	case "search":
		return a.cmdSearch(args)
	case "filter":
		return a.cmdFilter(args)
	case "upload":
		return a.cmdUpload(args)
	case "download", "get":
		return a.cmdDownload(args)
	case "share":
		return a.cmdShare(args)
	case "rm", "delete":
		return a.cmdRm(args)
	case "admin-ls":
		return a.cmdAdminLs(args)
	case "version":
		fmt.Fprintf(a.out, "%s (build %s, %s)\n", buildinfo.Version, buildinfo.BuildID, buildinfo.BuildTime)
		return nil
	case "help":
		printHelp(a.out)
		return nil
	case "exit", "quit":
		return errExit
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

// report prints a command error. An unauthorized error has already moved
// the session back to anonymous.
func (a *App) report(err error) {
	if err == nil {
		return
	}
	if errors.Is(err, vault.ErrUnauthorized) {
		a.listing.Replace(nil)
		fmt.Fprintln(a.out, "Session expired or rejected. Please log in again.")
		return
	}
	fmt.Fprintf(a.out, "Error: %v\n", err)
}

func (a *App) prompt() string {
	session := a.client.Session()
	name := ""
	if claims := session.Claims(); claims != nil {
		name = claims.Username
	}
	switch session.Current() {
	case vault.ViewAdminDashboard:
		return fmt.Sprintf("vault(admin:%s)> ", name)
	case vault.ViewUserDashboard:
		if name == "" {
			return "vault(user)> "
		}
		return fmt.Sprintf("vault(%s)> ", name)
	default:
		return "vault> "
	}
}

func (a *App) printSession(view vault.View) {
	claims := a.client.Session().Claims()
	switch {
	case view == vault.ViewAnonymous:
		fmt.Fprintln(a.out, "Not logged in")
	case claims != nil && claims.Username != "":
		fmt.Fprintf(a.out, "Logged in as %s (%s)\n", claims.Username, claims.EffectiveRole())
	default:
		fmt.Fprintf(a.out, "Logged in (%s)\n", view)
	}
}

func (a *App) completeFileID(string) []string {
	files := a.listing.Files()
	ids := make([]string, 0, len(files))
	for _, f := range files {
		ids = append(ids, strconv.FormatInt(f.ID, 10))
	}
	return ids
}
