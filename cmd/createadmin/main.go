// Command createadmin provisions a verified administrator account
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/findosh/spendwatch/internal/config"
	"github.com/findosh/spendwatch/internal/logging"
	"github.com/findosh/spendwatch/internal/mailer"
	"github.com/findosh/spendwatch/internal/models"
	"github.com/findosh/spendwatch/internal/services/auth"
	"github.com/findosh/spendwatch/internal/storage"
	"github.com/joho/godotenv"
	"golang.org/x/term"
)

// test seams for the terminal
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

func main() {
	_ = godotenv.Load()
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	fs := flag.NewFlagSet("createadmin", flag.ContinueOnError)
	fs.SetOutput(stderr)
	email := fs.String("email", "", "admin email address")
	name := fs.String("name", "Administrator", "admin display name")
	dbPath := fs.String("db", cfg.DatabaseURL, "path to the SQLite database")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if strings.TrimSpace(*email) == "" {
		fmt.Fprintln(stderr, "error: -email is required")
		fs.Usage()
		return 2
	}

	password, err := promptPassword(stdin, stdout)
	if err != nil {
		fmt.Fprintln(stderr, "error: failed to read password:", err)
		return 1
	}

	logger := logging.New(stderr, cfg.LogLevel, cfg.Environment)
	admin, err := createAdmin(context.Background(), *dbPath, cfg, *name, *email, password, logger)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	fmt.Fprintf(stdout, "Admin %s created (id %s)\n", admin.Email, admin.ID)
	return 0
}

// promptPassword reads the password without echo from a terminal, or as a
// single line from any other reader
func promptPassword(stdin io.Reader, stdout io.Writer) (string, error) {
	fmt.Fprint(stdout, "Password: ")

	if f, ok := stdin.(*os.File); ok && isTerminal(int(f.Fd())) {
		pw, err := readPassword(int(f.Fd()))
		fmt.Fprintln(stdout)
		if err != nil {
			return "", err
		}
		return string(pw), nil
	}

	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func createAdmin(ctx context.Context, dbPath string, cfg *config.Config, name, email, password string, logger *slog.Logger) (*models.User, error) {
	db, err := storage.New(dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return nil, err
	}

	users := storage.NewUserRepository(db)
	svc := auth.NewService(
		users,
		auth.NewOTPEngine(storage.NewOTPRepository(db), cfg.OTPTTL),
		auth.NewTokenLedger(storage.NewSessionRepository(db), users, cfg.SecretKey, cfg.TokenTTL),
		auth.NewBcryptHasher(cfg.BcryptCost),
		mailer.NewLogMailer(logger),
		logger,
	)
	return svc.CreateAdmin(ctx, name, email, password)
}
