package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"complaintdesk/backend/internal/analysis"
	"complaintdesk/backend/internal/auth"
	"complaintdesk/backend/internal/complaint"
	"complaintdesk/backend/internal/config"
	"complaintdesk/backend/internal/logger"
	"complaintdesk/backend/internal/models"
	"complaintdesk/backend/internal/storage"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const usage = `Usage: admin <command> [args]

Commands:
  hash-password <password>        print a bcrypt hash for auth.admins
  migrate                         create or update database tables
  list [status...]                list complaints, newest first
  delete <id>                     delete one complaint
  bulk-delete <id> [id...]        delete many complaints in one statement
  export [file]                   write all complaints as CSV (stdout by default)
  stats                           print dashboard statistics as JSON`

// cliSession is the actor recorded for changes made from the command line.
var cliSession = auth.Admin("cli", "Command line")

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}
	command, args := os.Args[1], os.Args[2:]

	// Hashing needs no configuration or connections.
	if command == "hash-password" {
		if len(args) != 1 {
			fmt.Println("Usage: admin hash-password <password>")
			os.Exit(1)
		}
		hash, err := auth.HashPassword(args[0])
		if err != nil {
			log.Fatalf("Error hashing password: %v", err)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.Load(os.Getenv("COMPLAINTDESK_CONFIG"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	zl, err := logger.New("warn", false)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	store, err := connect(ctx, cfg)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer store.Redis.Close()
	svc := complaint.NewService(store, nil, zl)

	switch command {
	case "migrate":
		err = store.Migrate(ctx)
		if err == nil {
			fmt.Println("Migrations complete.")
		}
	case "list":
		err = listComplaints(ctx, svc, args, os.Stdout)
	case "delete":
		if len(args) != 1 {
			fmt.Println("Usage: admin delete <id>")
			os.Exit(1)
		}
		err = svc.Delete(ctx, cliSession, args[0])
		if err == nil {
			fmt.Printf("Complaint %s has been deleted.\n", args[0])
		}
	case "bulk-delete":
		if len(args) == 0 {
			fmt.Println("Usage: admin bulk-delete <id> [id...]")
			os.Exit(1)
		}
		err = bulkDelete(ctx, svc, args)
	case "export":
		err = export(ctx, svc, args)
	case "stats":
		err = printStats(ctx, svc)
	default:
		fmt.Println(usage)
		os.Exit(1)
	}
	if err != nil {
		zl.Error("command failed", zap.String("command", command), zap.Error(err))
		os.Exit(1)
	}
}

func connect(ctx context.Context, cfg *config.Config) (*storage.Service, error) {
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	// Lifecycle events from the CLI reach open dashboards like any other change.
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return storage.NewStorageService(db, rdb), nil
}

func listComplaints(ctx context.Context, svc *complaint.Service, args []string, out io.Writer) error {
	var f storage.ComplaintFilter
	for _, a := range args {
		st, ok := models.ParseStatus(a)
		if !ok {
			return fmt.Errorf("unknown status %q", a)
		}
		f.Statuses = append(f.Statuses, st)
	}
	all, err := svc.ListAll(ctx, cliSession, f)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tSTATUS\tCATEGORY\tVERSION\tDESCRIPTION")
	for _, c := range all {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			c.ID, c.CreatedAt.Local().Format("2006-01-02 15:04"), c.Status, c.Category, c.Version, shorten(c.Description, 60))
	}
	return tw.Flush()
}

func bulkDelete(ctx context.Context, svc *complaint.Service, ids []string) error {
	res, err := svc.BulkDelete(ctx, cliSession, ids)
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %d complaint(s).\n", len(res.Deleted))
	for _, f := range res.Failed {
		fmt.Printf("  %s: %s\n", f.ID, f.Reason)
	}
	return nil
}

func export(ctx context.Context, svc *complaint.Service, args []string) error {
	all, err := svc.ListAll(ctx, cliSession, storage.ComplaintFilter{})
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return analysis.WriteCSV(os.Stdout, all)
	}
	f, err := os.Create(args[0])
	if err != nil {
		return err
	}
	if err := analysis.WriteCSV(f, all); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Exported %d complaint(s) to %s.\n", len(all), args[0])
	return nil
}

func printStats(ctx context.Context, svc *complaint.Service) error {
	all, err := svc.ListAll(ctx, cliSession, storage.ComplaintFilter{})
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(analysis.Summarize(all))
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
