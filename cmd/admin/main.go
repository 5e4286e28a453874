package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"teahouse.bot/internal/persistence/ledger"
	"teahouse.bot/internal/teahouse/auth"
	"teahouse.bot/internal/transport/ws"
)

const usageText = `usage: admin <command> [flags]

commands:
  admins list|add|remove   manage the admin allow-list
  token                    issue a gateway token for a chat host
  ledger                   print ledger entries
  db tasks|grant           inspect or adjust a user's data`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usageText)
		os.Exit(2)
	}
	switch os.Args[1] {
	case "admins":
		adminsCmd(os.Args[2:])
	case "token":
		tokenCmd(os.Args[2:])
	case "ledger":
		ledgerCmd(os.Args[2:])
	case "db":
		dbCmd(os.Args[2:])
	default:
		fmt.Fprintln(os.Stderr, usageText)
		os.Exit(2)
	}
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func adminsCmd(args []string) {
	if len(args) < 1 {
		fail("usage: admin admins list|add|remove [-file path] [user ...]")
	}
	fs := flag.NewFlagSet("admins", flag.ExitOnError)
	file := fs.String("file", envOr("TEAHOUSE_ADMINS_FILE", "./data/admins.json"), "admins allow-list file")
	_ = fs.Parse(args[1:])

	l, err := auth.OpenFileAllowList(*file)
	if err != nil {
		fail("open %s: %v", *file, err)
	}
	switch args[0] {
	case "list":
		for _, id := range l.List() {
			fmt.Println(id)
		}
		return
	case "add":
		for _, id := range fs.Args() {
			if err := l.Add(id); err != nil {
				fail("add %s: %v", id, err)
			}
		}
	case "remove":
		for _, id := range fs.Args() {
			if err := l.Remove(id); err != nil {
				fail("remove %s: %v", id, err)
			}
		}
	default:
		fail("unknown admins command %q", args[0])
	}
	if err := l.Save(); err != nil {
		fail("save: %v", err)
	}
	fmt.Printf("%d admins (a running server applies this on its next admin check)\n", len(l.List()))
}

func tokenCmd(args []string) {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	secret := fs.String("secret", os.Getenv("TEAHOUSE_GATEWAY_JWT_SECRET"), "HS256 signing secret")
	issuer := fs.String("issuer", envOr("TEAHOUSE_GATEWAY_JWT_ISSUER", "teahouse"), "token issuer")
	subject := fs.String("subject", "", "host name the token is issued to")
	ttl := fs.Duration("ttl", 30*24*time.Hour, "token lifetime")
	_ = fs.Parse(args)

	if *secret == "" || strings.TrimSpace(*subject) == "" {
		fail("token: -secret and -subject are required")
	}
	tok, exp, err := ws.NewTokenVerifier(*secret, *issuer).Issue(strings.TrimSpace(*subject), *ttl)
	if err != nil {
		fail("issue: %v", err)
	}
	fmt.Println(tok)
	fmt.Fprintf(os.Stderr, "expires %s\n", exp.Format(time.RFC3339))
}

func ledgerCmd(args []string) {
	fs := flag.NewFlagSet("ledger", flag.ExitOnError)
	dir := fs.String("dir", "./data/ledger", "ledger directory")
	user := fs.String("user", "", "only entries for this user id")
	kind := fs.String("kind", "", "only entries of this kind")
	_ = fs.Parse(args)

	segs, err := ledger.Segments(*dir, "")
	if err != nil {
		fail("list segments: %v", err)
	}
	for _, p := range segs {
		entries, err := ledger.ReadSegment(p)
		if err != nil {
			fail("read: %v", err)
		}
		for _, e := range entries {
			if *user != "" && e.UserID != *user {
				continue
			}
			if *kind != "" && string(e.Kind) != *kind {
				continue
			}
			line := fmt.Sprintf("%s %-9s %-12s %10s", e.Time.Format(time.RFC3339), e.Kind, e.UserID, e.Amount)
			if e.Ref != "" {
				line += " " + e.Ref
			}
			if e.Count != 0 {
				line += fmt.Sprintf(" x%d", e.Count)
			}
			fmt.Println(line)
		}
	}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
