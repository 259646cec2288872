package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/aeternum/aeternum/internal/browser"
	"github.com/aeternum/aeternum/internal/config"
	"github.com/aeternum/aeternum/internal/logger"
	"github.com/aeternum/aeternum/internal/session"
	"github.com/aeternum/aeternum/internal/tui"
	"github.com/aeternum/aeternum/pkg/client"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// cli carries what every subcommand needs.
type cli struct {
	cfg   *config.Config
	log   *zap.Logger
	store session.Store
	in    *bufio.Reader
	out   io.Writer
	open  func(string) error
	tui   func(tui.Options) error
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, closeLog, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File})
	if err != nil {
		return err
	}
	defer closeLog()

	c := &cli{
		cfg:   cfg,
		log:   log,
		store: session.NewFileStore(cfg.Session.TokenFile),
		in:    bufio.NewReader(os.Stdin),
		out:   os.Stdout,
		open:  browser.Open,
		tui:   runTUI,
	}
	return c.dispatch(context.Background(), os.Args[1:])
}

func (c *cli) dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return c.tui(c.tuiOptions())
	}
	switch args[0] {
	case "--version", "version", "-v":
		fmt.Fprintln(c.out, "aeternum "+version)
		return nil
	case "help", "--help", "-h":
		printHelp(c.out)
		return nil
	case "terms":
		return c.openPage(c.cfg.Web.TermsURL())
	case "privacy":
		return c.openPage(c.cfg.Web.PrivacyURL())
	case "login":
		if len(args) < 2 {
			return errors.New("usage: aeternum login <email>")
		}
		return c.runLogin(ctx, args[1])
	case "logout":
		return c.runLogout()
	case "reset":
		return c.runReset(ctx, args[1:])
	case "verify":
		return c.runVerify(ctx, args[1:])
	default:
		return fmt.Errorf("unknown command %q (try aeternum help)", args[0])
	}
}

func (c *cli) apiClient(tokens client.TokenSource) *client.Client {
	return client.New(c.cfg.API.URL, tokens, client.WithTimeout(c.cfg.API.Timeout), client.WithLogger(c.log))
}

func (c *cli) tuiOptions() tui.Options {
	return tui.Options{
		APIURL:  c.cfg.API.URL,
		Timeout: c.cfg.API.Timeout,
		OpenLibrary: client.NewOpenLibrary(client.OpenLibraryConfig{
			BaseURL:  c.cfg.OpenLibrary.URL,
			Rate:     c.cfg.OpenLibrary.Rate,
			CacheTTL: c.cfg.OpenLibrary.CacheTTL,
			Timeout:  c.cfg.API.Timeout,
			Logger:   c.log,
		}),
		Store:        c.store,
		PollInterval: c.cfg.Session.PollInterval,
		Log:          c.log,
		Version:      version,
		WebURL:       c.cfg.Web.URL,
		TermsURL:     c.cfg.Web.TermsURL(),
		PrivacyURL:   c.cfg.Web.PrivacyURL(),
	}
}

func runTUI(opts tui.Options) error {
	app := tui.NewApp(opts)
	p := tea.NewProgram(app, tea.WithAltScreen())
	final, err := p.Run()
	if a, ok := final.(tui.App); ok {
		a.Close()
	} else {
		app.Close()
	}
	if err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

// readLine prints prompt and returns the next line of input without its
// line ending.
func (c *cli) readLine(prompt string) (string, error) {
	fmt.Fprint(c.out, prompt)
	line, err := c.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (c *cli) runLogin(ctx context.Context, correo string) error {
	clave, err := c.readLine("Password: ")
	if err != nil {
		return err
	}
	req := client.LoginRequest{Correo: strings.TrimSpace(correo), Clave: clave}
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("login: %s", describe(err))
	}

	res, err := c.apiClient(nil).Login(ctx, req)
	if err != nil {
		return fmt.Errorf("login failed: %s", client.Message(err))
	}
	// A new login replaces whatever token was stored before.
	if err := c.store.Write(res.AccessToken); err != nil {
		return fmt.Errorf("save token: %w", err)
	}

	name := req.Correo
	if res.User != nil && res.User.FullName() != "" {
		name = res.User.FullName()
	}
	printWelcome(c.out, name, session.ParseRole(res.Rol))
	c.log.Info("signed in from the command line", zap.String("rol", res.Rol))

	// Launch TUI automatically after login.
	return c.tui(c.tuiOptions())
}

func (c *cli) runLogout() error {
	tok, err := c.store.Read()
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}
	if tok == "" {
		fmt.Fprintln(c.out, "Already logged out.")
		return nil
	}
	if err := c.store.Clear(); err != nil {
		return fmt.Errorf("remove token: %w", err)
	}
	fmt.Fprintln(c.out, "Logged out.")
	return nil
}

func (c *cli) openPage(url string) error {
	if err := c.open(url); err != nil {
		fmt.Fprintln(c.out, url)
	}
	return nil
}
