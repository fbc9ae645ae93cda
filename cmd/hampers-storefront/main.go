// Package main boots the Dapur Ghania hamper storefront.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fairyhunter13/hampers-storefront/internal/catalog"
	"github.com/fairyhunter13/hampers-storefront/internal/config"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	configPath string
	httpAddr   string
)

var rootCmd = &cobra.Command{
	Use:   "hampers-storefront",
	Short: "Gift-hamper storefront with a live catalog and messaging checkout",
	Long: `hampers-storefront serves the Dapur Ghania catalog, keeps a cart per
browser session and hands finished orders to the merchant as a pre-filled
chat message.

Run without a subcommand to start the HTTP server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

var checkCatalogCmd = &cobra.Command{
	Use:   "check-catalog [file]",
	Short: "Parse a catalog file and report its products",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		} else {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			path = cfg.CatalogFile
		}
		products, err := catalog.ReadCatalogFile(path)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, p := range products {
			price := "-"
			if p.Price != nil {
				price = fmt.Sprintf("%.0f", *p.Price)
			}
			fmt.Fprintf(out, "%s\t%s\t%s\n", p.ID, p.Name, price)
		}
		fmt.Fprintf(out, "%d products\n", len(products))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("STOREFRONT_CONFIG"), "YAML config file layered over the environment")
	rootCmd.PersistentFlags().StringVar(&httpAddr, "addr", "", "listen address (overrides HTTP_ADDR)")
	rootCmd.AddCommand(serveCmd, versionCmd, checkCatalogCmd)
}

// loadConfig reads the environment, then the optional config file, then flags.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if configPath != "" {
		if cfg, err = config.LoadFile(cfg, configPath); err != nil {
			return cfg, err
		}
	}
	if httpAddr != "" {
		cfg.HTTPAddr = httpAddr
	}
	return cfg, cfg.Validate()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
