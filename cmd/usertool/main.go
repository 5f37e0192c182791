package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"campanile/auth-session/internal/auth"
	"campanile/auth-session/internal/config"
	"campanile/auth-session/internal/db"
	"campanile/auth-session/internal/logging"
	"campanile/auth-session/internal/repository"
	"campanile/auth-session/internal/session"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config file (wins over env)")
		create     = flag.Bool("create", false, "create a credential row")
		verify     = flag.Bool("verify", false, "run a full login against the stored credential")
		username   = flag.String("username", "", "account username")
		password   = flag.String("password", "", "account password")
		role       = flag.String("role", "", "account role (blank defaults to student)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pools := db.NewManager(cfg, log)
	defer pools.Close()

	store := repository.NewStore(pools, log)

	switch {
	case *create:
		userID, err := store.CreateUser(ctx, *username, *password, *role)
		if err != nil {
			log.Error("create user failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		fmt.Printf("created user %d (%s)\n", userID, *username)

	case *verify:
		svc := auth.NewService(store, log)
		sessions := session.NewManager()

		// The login runs off this goroutine the same way the UI keeps it
		// off its event loop; the result comes back on a channel.
		res := <-svc.LoginAsync(ctx, *username, *password)
		if res.Err != nil {
			fmt.Fprintln(os.Stderr, res.Err)
			os.Exit(1)
		}
		sessions.Set(res.Session)

		cur := sessions.Current()
		fmt.Printf("login ok: user %d, role %s\n", cur.UserID(), cur.ResolvedRole())

	default:
		flag.Usage()
		os.Exit(2)
	}
}
