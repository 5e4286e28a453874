package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"

	"teahouse.bot/internal/persistence/sqlstore"
	"teahouse.bot/internal/teahouse/model"
	"teahouse.bot/internal/teahouse/store"
)

func dbCmd(args []string) {
	if len(args) < 1 {
		fail("usage: admin db tasks|grant -user id [flags]")
	}
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	driver := fs.String("driver", envOr("TEAHOUSE_DB_DRIVER", sqlstore.DriverSQLite), "sqlite or pgx")
	dsn := fs.String("dsn", envOr("TEAHOUSE_DB_DSN", "./data/teahouse.sqlite"), "database dsn")
	user := fs.String("user", "", "user id")
	amount := fs.String("amount", "", "coins to credit (grant)")
	_ = fs.Parse(args[1:])

	if *user == "" {
		fail("db: -user is required")
	}
	st, err := sqlstore.Open(*driver, *dsn, zerolog.Nop())
	if err != nil {
		fail("open db: %v", err)
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	sess, err := st.Open(ctx, *user)
	if err != nil {
		fail("open session: %v", err)
	}
	defer sess.Close()

	switch args[0] {
	case "tasks":
		printTasks(ctx, sess)
	case "grant":
		c, err := model.ParseCoins(*amount)
		if err != nil || c <= 0 {
			fail("grant: -amount must be a positive number")
		}
		if err := sess.Wallet().Credit(ctx, c); err != nil {
			fail("credit: %v", err)
		}
		bal, _ := sess.Wallet().Balance(ctx)
		fmt.Printf("%s balance %s\n", *user, bal)
	default:
		fail("unknown db command %q", args[0])
	}
}

func printTasks(ctx context.Context, sess store.Session) {
	all, err := sess.Tasks().ListTasks(ctx)
	if err != nil {
		fail("list tasks: %v", err)
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TASK\tNAME\tCATEGORY\tPROGRESS\tREWARD\tSTATUS")
	for _, t := range all {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%s\t%s\n", t.TaskID, t.Name, t.Category, t.Progress, t.Target, t.Reward, t.Status)
	}
	_ = tw.Flush()
}
