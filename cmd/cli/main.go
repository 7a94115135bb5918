// Command tt is a CLI client for the timetrack service.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/Stickybrown8/timetrack/internal/client"
	"github.com/Stickybrown8/timetrack/internal/errs"
	"github.com/Stickybrown8/timetrack/internal/profit"
	"github.com/Stickybrown8/timetrack/internal/timer"
)

// ---- config/token store ----

type tokenFile struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "timetrack")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "timetrack")
}

func tokenPath() string { return filepath.Join(cfgDir(), "token.json") }

func saveToken(tok string, exp time.Time) error {
	_ = os.MkdirAll(cfgDir(), 0o700)
	f, err := os.Create(tokenPath())
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(tokenFile{AccessToken: tok, ExpiresAt: exp})
}

func loadToken() (string, error) {
	b, err := os.ReadFile(tokenPath())
	if err != nil {
		return "", err
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return "", err
	}
	if tf.AccessToken == "" || time.Now().After(tf.ExpiresAt) {
		return "", errors.New("no valid token (login required)")
	}
	return tf.AccessToken, nil
}

// ---- session store ----

func sessionPath() string { return filepath.Join(cfgDir(), "session.json") }

func saveSession(s timer.Session) error {
	if !s.Active() {
		return clearSession()
	}
	_ = os.MkdirAll(cfgDir(), 0o700)
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(sessionPath(), b, 0o600)
}

func loadSession() (timer.Session, bool) {
	b, err := os.ReadFile(sessionPath())
	if err != nil {
		return timer.Session{}, false
	}
	var s timer.Session
	if err := json.Unmarshal(b, &s); err != nil {
		return timer.Session{}, false
	}
	return s, s.Active()
}

func clearSession() error {
	err := os.Remove(sessionPath())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// ---- api client ----

func apiClient(addr string, needAuth bool) *client.Client {
	c := client.New(addr)
	if needAuth {
		tok, err := loadToken()
		if err != nil {
			fail(err)
		}
		c.SetToken(tok)
	}
	return c
}

// restoredManager loads the persisted session into a fresh manager.
func restoredManager(ctx context.Context, api *client.Client, notify func(timer.Notification)) (*timer.Manager, bool) {
	opts := []timer.Option{}
	if notify != nil {
		opts = append(opts, timer.WithNotify(notify))
	}
	m := timer.NewManager(api, zap.NewNop(), opts...)
	s, ok := loadSession()
	if ok {
		m.Restore(ctx, s)
	}
	return m, ok
}

// ---- utils ----

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func usage() {
	fmt.Fprintf(os.Stderr, `tt CLI
Usage:
  tt -addr http://HOST:PORT <cmd> [args]

Commands:
  version
  register     -u <username> -p <password>
  login        -u <username> -p <password>          (saves token)

  client-add   -name <name> [-rate N] [-target N] [-budget N]
  client-list
  client-set   -id <uuid> -name <name> [-rate N] [-target N] [-budget N]
  client-rm    -id <uuid>
  profit       -client <uuid>
  spent        -client <uuid> -hours N [-set]       (default increments)

  task-add     -title <t> [-client <uuid>] [-desc s] [-priority N] [-est N] [-high]
  task-list
  task-done    -id <uuid> [-undo]
  task-rm      -id <uuid>

  start        [-client <uuid>] [-task <uuid>] [-desc s] [-unbillable]
  pause
  resume
  stop
  status
  watch                                             (live display, Ctrl-C detaches)
  timers                                            (server-side records)
`)
	os.Exit(2)
}

// ---- main ----

var (
	version   = "dev"
	buildDate = "unknown"
)

// main dispatches subcommands against the REST server.
func main() {
	// global flags
	addr := flag.String("addr", "http://localhost:8080", "server base URL")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch cmd {

	case "version":
		fmt.Printf("tt %s (%s)\n", version, buildDate)

	case "register":
		fs := flag.NewFlagSet("register", flag.ExitOnError)
		u := fs.String("u", "", "username")
		p := fs.String("p", "", "password")
		_ = fs.Parse(flag.Args()[1:])
		if *u == "" || *p == "" {
			fmt.Fprintln(os.Stderr, "need -u and -p")
			os.Exit(1)
		}

		userID, err := apiClient(*addr, false).Register(ctx, *u, *p)
		if err != nil {
			fail(err)
		}
		fmt.Println(userID)

	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		u := fs.String("u", "", "username")
		p := fs.String("p", "", "password")
		_ = fs.Parse(flag.Args()[1:])
		if *u == "" || *p == "" {
			fmt.Fprintln(os.Stderr, "need -u and -p")
			os.Exit(1)
		}

		res, err := apiClient(*addr, false).Login(ctx, *u, *p)
		if err != nil {
			fail(err)
		}

		// parse exp from JWT; fall back to the server-reported expiry
		var claims jwt.RegisteredClaims
		_, _ = jwt.ParseWithClaims(res.AccessToken, &claims, func(*jwt.Token) (any, error) { return nil, nil },
			jwt.WithoutClaimsValidation(),
		)
		exp := res.ExpiresAt
		if claims.ExpiresAt != nil {
			exp = claims.ExpiresAt.Time
		}
		if err := saveToken(res.AccessToken, exp); err != nil {
			fail(err)
		}
		fmt.Println("ok")

	// ---- clients ----

	case "client-add":
		fs := flag.NewFlagSet("client-add", flag.ExitOnError)
		name := fs.String("name", "", "client name")
		rate := fs.Float64("rate", 0, "hourly rate")
		target := fs.Float64("target", 0, "target hours")
		budget := fs.Float64("budget", 0, "monthly budget")
		_ = fs.Parse(flag.Args()[1:])
		if *name == "" {
			fmt.Fprintln(os.Stderr, "need -name")
			os.Exit(1)
		}

		c, err := apiClient(*addr, true).CreateClient(ctx, client.UpsertClient{
			Name: *name, HourlyRate: *rate, TargetHours: *target, MonthlyBudget: *budget,
		})
		if err != nil {
			fail(err)
		}
		printJSON(c)

	case "client-list":
		cs, err := apiClient(*addr, true).ListClients(ctx)
		if err != nil {
			fail(err)
		}
		printJSON(cs)

	case "client-set":
		fs := flag.NewFlagSet("client-set", flag.ExitOnError)
		id := fs.String("id", "", "client id (uuid)")
		name := fs.String("name", "", "client name")
		rate := fs.Float64("rate", 0, "hourly rate")
		target := fs.Float64("target", 0, "target hours")
		budget := fs.Float64("budget", 0, "monthly budget")
		_ = fs.Parse(flag.Args()[1:])
		if *id == "" || *name == "" {
			fmt.Fprintln(os.Stderr, "need -id and -name")
			os.Exit(1)
		}

		c, err := apiClient(*addr, true).UpdateClient(ctx, *id, client.UpsertClient{
			Name: *name, HourlyRate: *rate, TargetHours: *target, MonthlyBudget: *budget,
		})
		if err != nil {
			fail(err)
		}
		printJSON(c)

	case "client-rm":
		fs := flag.NewFlagSet("client-rm", flag.ExitOnError)
		id := fs.String("id", "", "client id (uuid)")
		_ = fs.Parse(flag.Args()[1:])
		if *id == "" {
			fmt.Fprintln(os.Stderr, "need -id")
			os.Exit(1)
		}
		if err := apiClient(*addr, true).DeleteClient(ctx, *id); err != nil {
			fail(err)
		}
		fmt.Println("ok")

	case "profit":
		fs := flag.NewFlagSet("profit", flag.ExitOnError)
		clientID := fs.String("client", "", "client id (uuid)")
		_ = fs.Parse(flag.Args()[1:])
		if *clientID == "" {
			fmt.Fprintln(os.Stderr, "need -client")
			os.Exit(1)
		}
		p, err := apiClient(*addr, true).GetProfitability(ctx, *clientID)
		if err != nil {
			fail(err)
		}
		printJSON(p)

	case "spent":
		fs := flag.NewFlagSet("spent", flag.ExitOnError)
		clientID := fs.String("client", "", "client id (uuid)")
		hours := fs.Float64("hours", -1, "hours")
		set := fs.Bool("set", false, "replace the total instead of incrementing")
		_ = fs.Parse(flag.Args()[1:])
		if *clientID == "" || *hours < 0 {
			fmt.Fprintln(os.Stderr, "need -client and -hours")
			os.Exit(1)
		}
		total, err := apiClient(*addr, true).AddSpentHours(ctx, *clientID, *hours, !*set)
		if err != nil {
			fail(err)
		}
		fmt.Println(strconv.FormatFloat(total, 'f', -1, 64))

	// ---- tasks ----

	case "task-add":
		fs := flag.NewFlagSet("task-add", flag.ExitOnError)
		title := fs.String("title", "", "task title")
		clientID := fs.String("client", "", "client id (uuid)")
		desc := fs.String("desc", "", "description")
		priority := fs.Int("priority", 0, "priority")
		est := fs.Float64("est", 0, "estimated hours")
		high := fs.Bool("high", false, "high impact (doubled reward)")
		_ = fs.Parse(flag.Args()[1:])
		if *title == "" {
			fmt.Fprintln(os.Stderr, "need -title")
			os.Exit(1)
		}

		t, err := apiClient(*addr, true).CreateTask(ctx, client.UpsertTask{
			Title: *title, ClientID: *clientID, Description: *desc,
			Priority: *priority, EstimatedHours: *est, HighImpact: *high,
		})
		if err != nil {
			fail(err)
		}
		printJSON(t)

	case "task-list":
		ts, err := apiClient(*addr, true).ListTasks(ctx)
		if err != nil {
			fail(err)
		}
		printJSON(ts)

	case "task-done":
		fs := flag.NewFlagSet("task-done", flag.ExitOnError)
		id := fs.String("id", "", "task id (uuid)")
		undo := fs.Bool("undo", false, "reopen instead of completing")
		_ = fs.Parse(flag.Args()[1:])
		if *id == "" {
			fmt.Fprintln(os.Stderr, "need -id")
			os.Exit(1)
		}

		api := apiClient(*addr, true)
		m, restored := restoredManager(ctx, api, nil)
		res, err := m.CompleteTask(ctx, *id, !*undo)
		if err != nil {
			fail(err)
		}
		if restored {
			if err := saveSession(m.Session()); err != nil {
				fail(err)
			}
		}
		printJSON(res)

	case "task-rm":
		fs := flag.NewFlagSet("task-rm", flag.ExitOnError)
		id := fs.String("id", "", "task id (uuid)")
		_ = fs.Parse(flag.Args()[1:])
		if *id == "" {
			fmt.Fprintln(os.Stderr, "need -id")
			os.Exit(1)
		}
		if err := apiClient(*addr, true).DeleteTask(ctx, *id); err != nil {
			fail(err)
		}
		fmt.Println("ok")

	// ---- timer lifecycle ----

	case "start":
		fs := flag.NewFlagSet("start", flag.ExitOnError)
		clientID := fs.String("client", "", "client id (uuid)")
		taskID := fs.String("task", "", "task id (uuid)")
		desc := fs.String("desc", "", "description")
		unbillable := fs.Bool("unbillable", false, "mark the time as non-billable")
		_ = fs.Parse(flag.Args()[1:])

		api := apiClient(*addr, true)
		m, _ := restoredManager(ctx, api, nil)
		err := m.Start(ctx, timer.StartOptions{
			ClientID:    *clientID,
			TaskID:      *taskID,
			Description: *desc,
			Billable:    !*unbillable,
		})
		if err != nil {
			fail(err)
		}
		if err := saveSession(m.Session()); err != nil {
			fail(err)
		}
		fmt.Println("started")

	case "pause":
		api := apiClient(*addr, true)
		m, ok := restoredManager(ctx, api, nil)
		if !ok {
			fail(errors.New("no session"))
		}
		if err := m.Pause(ctx); err != nil {
			fail(err)
		}
		if err := saveSession(m.Session()); err != nil {
			fail(err)
		}
		fmt.Printf("paused at %s\n", m.ElapsedString())

	case "resume":
		api := apiClient(*addr, true)
		m, ok := restoredManager(ctx, api, nil)
		if !ok {
			fail(errors.New("no session"))
		}
		if err := m.Resume(ctx); err != nil {
			fail(err)
		}
		if err := saveSession(m.Session()); err != nil {
			fail(err)
		}
		fmt.Printf("resumed at %s\n", m.ElapsedString())

	case "stop":
		api := apiClient(*addr, true)
		m, ok := restoredManager(ctx, api, nil)
		if !ok {
			fail(errors.New("no session"))
		}
		elapsed := m.ElapsedString()
		if err := m.Stop(ctx); err != nil {
			fail(err)
		}
		if err := clearSession(); err != nil {
			fail(err)
		}
		fmt.Printf("stopped at %s\n", elapsed)

	case "status":
		api := apiClient(*addr, true)
		m, ok := restoredManager(ctx, api, nil)
		if !ok {
			fmt.Println("idle")
			return
		}
		s := m.Session()
		fmt.Printf("%s %s", m.State(), m.ElapsedString())
		if s.Paused {
			fmt.Print(" (paused)")
		}
		if s.ClientID != "" {
			fmt.Printf(" client=%s", s.ClientID)
		}
		if s.TaskID != "" {
			fmt.Printf(" task=%s", s.TaskID)
		}
		fmt.Println()
		// keep the restored wall-clock correction
		if err := saveSession(s); err != nil {
			fail(err)
		}

	case "watch":
		runWatch(*addr)

	case "timers":
		ts, err := apiClient(*addr, true).ListTimers(ctx)
		if err != nil {
			fail(err)
		}
		printJSON(ts)

	default:
		usage()
	}
}

// runWatch drives the manager's once-a-second tick and renders the running
// duration until interrupted. Ctrl-C detaches without stopping the timer.
func runWatch(addr string) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api := apiClient(addr, true)
	notify := func(n timer.Notification) {
		switch n.Event {
		case profit.EventNearLimit:
			fmt.Printf("\n! budget nearly exhausted: %.2fh remaining\n", n.Projection.RemainingHours)
		case profit.EventOverBudget:
			fmt.Printf("\n! budget exceeded for client %s\n", n.ClientID)
		}
	}
	m, ok := restoredManager(ctx, api, notify)
	if !ok || m.State() != timer.Running {
		fail(errors.New("no running timer (use start or resume)"))
	}

	tick := time.NewTicker(time.Second)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			if err := saveSession(m.Session()); err != nil {
				fail(err)
			}
			return
		case <-tick.C:
			m.Tick()
			fmt.Printf("\r%s ", m.ElapsedString())
		}
	}
}

func fail(err error) {
	switch {
	case errors.Is(err, errs.ErrUnauthorized):
		// stale token is useless, drop it
		_ = os.Remove(tokenPath())
		fmt.Fprintln(os.Stderr, "unauthorized (login required)")
	case errors.Is(err, errs.ErrNetwork):
		fmt.Fprintf(os.Stderr, "server unreachable: %v\n", err)
	default:
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(1)
}
