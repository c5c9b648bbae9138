// Package main is the entry point for the dhcpd lease reporting tool.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"dhcpd-lease-report/pkg/leasedb"
	"dhcpd-lease-report/pkg/logger"
	"dhcpd-lease-report/pkg/report"
	"dhcpd-lease-report/pkg/revdns"
	"dhcpd-lease-report/pkg/trackerdb"
	"dhcpd-lease-report/pkg/webui"
)

func main() {
	var (
		abandoned  bool
		static     bool
		format     string
		resolve    bool
		dnsServer  string
		verbose    bool
		optionFile string
		trackerDB  string
	)

	root := &cobra.Command{
		Use:   "dhcpd-lease-report [leases-file]",
		Short: "Report on the leases found in an ISC DHCP (or dnsmasq) lease database",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := leasedb.DefaultLeasesFile
			if len(args) == 1 {
				path = args[0]
			}

			db, err := loadLeaseDB(path, format)
			if err != nil {
				return err
			}

			leases := db.Leases()
			if resolve {
				r := revdns.New(dnsServer)
				r.FillHostnames(context.Background(), leases)
			}

			mode := report.ModeActive
			switch {
			case abandoned:
				mode = report.ModeAbandoned
			case static:
				mode = report.ModeStatic
			}

			fmt.Print(report.Render(leases, mode, time.Now().UTC()))
			return nil
		},
	}

	root.Flags().BoolVarP(&abandoned, "abandoned", "a", false, "Show abandoned leases, instead of active")
	root.Flags().BoolVarP(&static, "static", "s", false, "Show only static active leases")
	root.MarkFlagsMutuallyExclusive("abandoned", "static")
	root.PersistentFlags().StringVar(&format, "format", "isc", "Lease file format: isc or dnsmasq")
	root.Flags().BoolVar(&resolve, "resolve", false, "Fill missing hostnames via reverse (PTR) DNS lookups")
	root.Flags().StringVar(&dnsServer, "dns-server", revdns.DefaultServer, "DNS server used with --resolve")

	serveCmd := &cobra.Command{
		Use:   "serve [leases-file]",
		Short: "Serve a live web dashboard of the lease database",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := leasedb.DefaultLeasesFile
			if len(args) == 1 {
				path = args[0]
			}

			log := logger.NewCustomLogger("dhcpd-lease-report")
			log.SetVerbose(verbose)

			opts := webui.DefaultOptions()
			if optionFile != "" {
				var err error
				if opts, err = webui.LoadOptions(optionFile); err != nil {
					return err
				}
				log.Infof("Loaded options from %s", optionFile)
			}

			tracker, err := trackerdb.NewTrackerDB(trackerDB)
			if err != nil {
				return fmt.Errorf("failed to open client tracking DB %s: %w", trackerDB, err)
			}
			defer func() {
				_ = tracker.Close()
			}()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			backend := webui.NewBackend(log, opts, path, webui.LeaseFormat(format), tracker)
			return backend.ListenAndServe(ctx)
		},
	}
	serveCmd.Flags().StringVarP(&optionFile, "config", "c", "", "Path to JSON options file")
	serveCmd.Flags().StringVar(&trackerDB, "tracker-db", "dhcp-clients.sqlite3", "Path to the sqlite3 client-history DB")
	serveCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	root.AddCommand(serveCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadLeaseDB(path, format string) (*leasedb.LeaseDB, error) {
	switch format {
	case "dnsmasq":
		return leasedb.LoadDnsmasqLeases(path)
	case "isc":
		return leasedb.LoadLeases(path)
	}
	return nil, fmt.Errorf("unknown lease file format %q", format)
}
