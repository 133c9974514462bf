package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"autoalt/internal/config"
)

// cli carries the state shared by the subcommands.
type cli struct {
	cfgFile string
	flags   map[string]*pflag.Flag // viper key -> flag
	logger  *log.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{
		flags:  map[string]*pflag.Flag{},
		logger: log.New(os.Stdout, "", log.LstdFlags|log.Lmicroseconds),
	}
	root := &cobra.Command{
		Use:   "autoalt",
		Short: "Fill in alt, title and size attributes of page images",
		Long: `autoalt rewrites the <img> tags of rendered HTML pages: images without
an alt text get the page title, optionally a title attribute too, and local
images get their pixel width and height.

Configuration is read from autoalt.yaml (or --config), AUTOALT_<SECTION>_<KEY>
environment variables and the flags below, flags taking precedence.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default ./autoalt.yaml)")
	root.PersistentFlags().Bool("debug", false, "log every rewritten tag")
	c.bind("log.debug", root.PersistentFlags().Lookup("debug"))

	root.AddCommand(c.newServeCmd(), c.newFilterCmd(), c.newConfigCmd())
	return root
}

func (c *cli) bind(key string, f *pflag.Flag) {
	c.flags[key] = f
}

// load reads the configuration with the bound flags applied.
func (c *cli) load() (*config.Config, *viper.Viper, error) {
	v, err := config.New(c.cfgFile)
	if err != nil {
		return nil, nil, err
	}
	for key, f := range c.flags {
		if err := v.BindPFlag(key, f); err != nil {
			return nil, nil, fmt.Errorf("bind flag %s: %w", f.Name, err)
		}
	}
	cfg, err := config.Load(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}
