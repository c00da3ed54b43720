package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/five82/zowiebox/internal/app"
)

const usage = `usage: zowiebox [flags]              run the dashboard and bridge
       zowiebox [flags] add <host> [port]
       zowiebox [flags] remove <id>
       zowiebox [flags] list

flags:
`

func main() {
	os.Exit(run())
}

func run() int {
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	configPath := flag.String("config", "", "config file path (optional, defaults to ~/.config/zowiebox/config.toml)")
	pollSeconds := flag.Int("poll", 0, "refresh interval in seconds (optional, defaults to the config value)")
	headless := flag.Bool("headless", false, "run without the dashboard and log to stderr")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	args := flag.Args()
	if len(args) > 0 {
		if err := runCommand(ctx, *configPath, args); err != nil {
			fmt.Fprintf(os.Stderr, "zowiebox: %v\n", err)
			return 1
		}
		return 0
	}

	opts := app.Options{ConfigPath: *configPath, Headless: *headless}
	if poll := *pollSeconds; poll > 0 {
		opts.PollEvery = poll
	}

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "zowiebox: %v\n", err)
		return 1
	}
	return 0
}

func runCommand(ctx context.Context, configPath string, args []string) error {
	switch args[0] {
	case "add":
		if len(args) < 2 || len(args) > 3 {
			return fmt.Errorf("usage: zowiebox add <host> [port]")
		}
		port := 0
		if len(args) == 3 {
			p, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid port %q", args[2])
			}
			port = p
		}
		entry, err := app.AddEntry(ctx, configPath, args[1], port)
		if err != nil {
			return err
		}
		fmt.Printf("added %s (%s) as %s\n", entry.Title, entry.Address(), entry.ID)
		return nil

	case "remove":
		if len(args) != 2 {
			return fmt.Errorf("usage: zowiebox remove <id>")
		}
		if err := app.RemoveEntry(configPath, args[1]); err != nil {
			return err
		}
		fmt.Printf("removed %s\n", args[1])
		return nil

	case "list":
		list, err := app.ListEntries(configPath)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("no entries installed")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tADDRESS")
		for _, e := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\n", e.ID, e.Title, e.Address())
		}
		return w.Flush()

	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}
