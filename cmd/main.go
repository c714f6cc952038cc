package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/luminar-backend/internal/app"
	"github.com/yungbote/luminar-backend/internal/platform/logger"
	"github.com/yungbote/luminar-backend/internal/services"
)

func main() {
	if err := app.LoadEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, err := app.NewLogger()
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}
	switch cmd {
	case "serve":
		err = serve(log)
	case "token":
		err = mintToken(log, os.Args[2:])
	default:
		err = fmt.Errorf("unknown command %q (want serve or token)", cmd)
	}
	if err != nil {
		log.Error("Exiting", "command", cmd, "error", err)
		os.Exit(1)
	}
}

func serve(log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.Close(closeCtx)
	}()
	return a.Run(ctx)
}

// mintToken prints a signed access token for local testing.
func mintToken(log *logger.Logger, args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	user := fs.String("user", "", "user UUID for the sub claim (random when empty)")
	ttl := fs.Duration("ttl", 0, "token lifetime (defaults to ACCESS_TOKEN_TTL)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := app.LoadConfig(log)
	if err != nil {
		return err
	}
	userID := uuid.New()
	if *user != "" {
		if userID, err = uuid.Parse(*user); err != nil {
			return fmt.Errorf("invalid -user: %w", err)
		}
	}
	lifetime := cfg.AccessTokenTTL
	if *ttl > 0 {
		lifetime = *ttl
	}
	tok, err := services.NewAuthService(log, cfg.JWTSecretKey, cfg.JWTIssuer).IssueAccessToken(userID, lifetime)
	if err != nil {
		return err
	}
	fmt.Println(tok)
	return nil
}
