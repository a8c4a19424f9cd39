// Command rigctl is a line-mode client for a running rigctld (spec.md
// §4.9): it dials the daemon's TCP port and either sends one command given
// on the command line or relays stdin/stdout to the connection line by
// line, mirroring Hamlib's own rigctl interactive mode.
//
// Connection setup follows the teacher's client_thread_net in
// src/aclients.go: plain net.Dial("tcp4", ...) with no framing beyond the
// daemon's own newline-terminated lines.
package main

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/spf13/pflag"
)

func main() {
	var (
		addr = pflag.StringP("address", "a", "localhost:4532", "rigctld host:port to connect to.")
		help = pflag.Bool("help", false, "Display help text.")
	)

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - rigctld command-line client\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] [command [args...]]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "With no command, reads commands from stdin until EOF.\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(0)
	}

	conn, err := net.Dial("tcp4", *addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rigctl: connect %s: %v\n", *addr, err)
		os.Exit(1)
	}
	defer conn.Close()

	if args := pflag.Args(); len(args) > 0 {
		line := strings.Join(args, " ")
		if err := runOne(conn, line); err != nil {
			fmt.Fprintf(os.Stderr, "rigctl: %v\n", err)
			os.Exit(1)
		}
		return
	}

	runInteractive(conn)
}

// runOne sends a single command and prints the reply lines up to and
// including the trailing "RPRT n" status line.
func runOne(conn net.Conn, line string) error {
	if _, err := fmt.Fprintf(conn, "%s\n", line); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return copyResponse(conn)
}

func runInteractive(conn net.Conn) {
	stdin := bufio.NewScanner(os.Stdin)
	for stdin.Scan() {
		line := stdin.Text()
		if line == "" {
			continue
		}
		if _, err := fmt.Fprintf(conn, "%s\n", line); err != nil {
			fmt.Fprintf(os.Stderr, "rigctl: write: %v\n", err)
			return
		}
		if err := copyResponse(conn); err != nil {
			fmt.Fprintf(os.Stderr, "rigctl: %v\n", err)
			return
		}
		if strings.EqualFold(strings.TrimSpace(line), "q") || strings.EqualFold(strings.TrimSpace(line), "quit") {
			return
		}
	}
}

// copyResponse prints lines from conn until one starts with "RPRT", rigctld's
// terminal status line in both default and extended response modes.
func copyResponse(conn net.Conn) error {
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Text()
		fmt.Println(line)
		if strings.HasPrefix(line, "RPRT") {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read: %w", err)
	}
	return nil
}
