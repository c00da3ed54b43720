// Command zowieprobe prints what a device answers on each command group.
// It is a diagnostic aid for firmware that differs from the documented API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/five82/zowiebox/internal/zowie"
)

func main() {
	os.Exit(run())
}

func run() int {
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "usage: zowieprobe <host> [port]")
	}
	flag.Parse()
	args := flag.Args()
	if len(args) < 1 || len(args) > 2 {
		flag.Usage()
		return 2
	}

	port := zowie.DefaultPort
	if len(args) == 2 {
		p, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "zowieprobe: invalid port %q\n", args[1])
			return 2
		}
		port = p
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client, err := zowie.NewClient(args[0], port)
	if err != nil {
		fmt.Fprintf(os.Stderr, "zowieprobe: %v\n", err)
		return 1
	}
	defer client.Close()

	fmt.Printf("Probing %s\n\n", client.BaseURL())
	failures := 0
	for _, ep := range zowie.ProbeEndpoints() {
		if ctx.Err() != nil {
			break
		}
		res := client.Probe(ctx, ep)
		fmt.Printf("%s %s\n", ep.Method, res.URL)
		switch {
		case res.Timeout():
			fmt.Println("  timeout")
			failures++
		case res.Err != nil:
			fmt.Printf("  error: %v\n", res.Err)
			failures++
		case res.MethodNotAllowed():
			fmt.Printf("  %d (GET not supported)\n", res.StatusCode)
		default:
			fmt.Printf("  %d\n", res.StatusCode)
			if pretty := res.Pretty(); pretty != "" {
				fmt.Println(indent(pretty))
			}
		}
		fmt.Println()
	}

	if failures > 0 {
		return 1
	}
	return 0
}

func indent(s string) string {
	return "  " + strings.ReplaceAll(s, "\n", "\n  ")
}
