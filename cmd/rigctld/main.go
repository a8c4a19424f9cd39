// Command rigctld is the Hamlib-compatible TCP control daemon (spec.md
// §4.9): it loads a YAML config, connects to the configured radio, and
// serves rigctld connections until interrupted.
//
// CLI handling follows the teacher's own AppServerMain in src/appserver.go:
// github.com/spf13/pflag for flags and a custom Usage func. The config file
// path comes from the -c/--config flag; positional arguments are not used.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/kd9vec/gorigd/config"
	"github.com/kd9vec/gorigd/rigctl"
	"github.com/kd9vec/gorigd/rigctld"
)

func main() {
	var (
		configPath = pflag.StringP("config", "c", "rigctld.yaml", "Path to YAML configuration file.")
		listen     = pflag.StringP("listen", "l", "", "Override rigctld.listen from the config file.")
		help       = pflag.Bool("help", false, "Display help text.")
	)

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - CAT radio control daemon\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(0)
	}

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rigctld: %v\n", err)
		os.Exit(1)
	}
	if *listen != "" {
		cfg.Rigctld.Listen = *listen
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "rigctld: %v\n", err)
		os.Exit(1)
	}

	if lvl, lvlErr := log.ParseLevel(cfg.Logging.Level); lvlErr == nil {
		log.SetLevel(lvl)
	}

	ctrl, err := buildController(cfg)
	if err != nil {
		log.Fatal("failed to build controller", "err", err)
	}
	if err := ctrl.Connect(); err != nil {
		log.Fatal("failed to connect to radio", "device", cfg.Rig.Device, "err", err)
	}
	defer ctrl.Disconnect()

	var opts []rigctld.Option
	if cfg.Rigctld.Listen != "" {
		opts = append(opts, rigctld.WithListenAddress(cfg.Rigctld.Listen))
	}
	if cfg.Rigctld.Advertise {
		opts = append(opts, rigctld.WithAdvertise(string(cfg.Rig.Model)))
	}
	srv := rigctld.NewServer(ctrl, opts...)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := srv.ListenAndServe(ctx); err != nil {
		log.Fatal("rigctld stopped", "err", err)
	}
}

func buildController(cfg config.Config) (*rigctl.Controller, error) {
	var opts []rigctl.Option
	if cfg.Rig.Baud != 0 {
		opts = append(opts, rigctl.WithBaud(cfg.Rig.Baud))
	}
	if cfg.Rig.CIVAddress != 0 {
		opts = append(opts, rigctl.WithCIVAddress(cfg.Rig.CIVAddress))
	}
	if cfg.PTT.Backend == config.PTTBackendGPIO {
		opts = append(opts, rigctl.WithGPIOPTT(cfg.PTT.GPIOChip, cfg.PTT.GPIOLine))
	}
	return rigctl.New(cfg.Rig.Model, cfg.Rig.Device, opts...)
}
