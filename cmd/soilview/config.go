package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ayn2op/soilview"
	"github.com/ayn2op/soilview/paginate"
)

// Config holds the options of the demo. Every field is also a flag; flags
// win over the environment, which wins over the config file.
type Config struct {
	// DB is "memory" or the path of a SQLite file.
	DB       string `toml:"db"`
	DataType string `toml:"data-type"`
	Sort     string `toml:"sort"`
	Grouping string `toml:"grouping"`

	PageAmount int `toml:"page-amount"`
	PageBuffer int `toml:"page-buffer"`

	ListItemMinHeight     int `toml:"list-item-min-height"`
	HydrationBufferAmount int `toml:"hydration-buffer-amount"`

	Seed         int    `toml:"seed"`
	LiveInterval string `toml:"live-interval"`
	Animate      bool   `toml:"animate"`
	TrackEnd     bool   `toml:"track-end"`

	MetricsBind string `toml:"metrics-bind"`
}

func NewConfig() *Config {
	return &Config{
		DB:                    "memory",
		DataType:              "note",
		Sort:                  paginate.CreatedNewest.String(),
		Grouping:              soilview.GroupByMinute.String(),
		PageAmount:            50,
		PageBuffer:            5,
		ListItemMinHeight:     1,
		HydrationBufferAmount: 10,
		Seed:                  500,
		LiveInterval:          "2s",
	}
}

func (c *Config) flags(fs *pflag.FlagSet) {
	fs.StringVar(&c.DB, "db", c.DB, `Database: "memory" or the path of a SQLite file.`)
	fs.StringVar(&c.DataType, "data-type", c.DataType, "Data type listed.")
	fs.StringVar(&c.Sort, "sort", c.Sort, `Sort: "created oldest", "created newest", "updated oldest", "updated newest" or "child <name> asc|desc".`)
	fs.StringVar(&c.Grouping, "grouping", c.Grouping, `Group headers: "none", "day" or "minute".`)
	fs.IntVar(&c.PageAmount, "page-amount", c.PageAmount, "Keys per page; 0 loads the whole list.")
	fs.IntVar(&c.PageBuffer, "page-buffer", c.PageBuffer, "Entries from the end that trigger the next page when visible.")
	fs.IntVar(&c.ListItemMinHeight, "list-item-min-height", c.ListItemMinHeight, "Smallest entry height in rows.")
	fs.IntVar(&c.HydrationBufferAmount, "hydration-buffer-amount", c.HydrationBufferAmount, "Minimal entries beyond the view that are hydrated ahead.")
	fs.IntVar(&c.Seed, "seed", c.Seed, "Entries pushed before the list opens.")
	fs.StringVar(&c.LiveInterval, "live-interval", c.LiveInterval, "Interval between live inserts; 0 disables them.")
	fs.BoolVar(&c.Animate, "animate", c.Animate, "Reveal new entries one after another.")
	fs.BoolVar(&c.TrackEnd, "track-end", c.TrackEnd, "Keep the end of the list in view while it grows.")
	fs.StringVar(&c.MetricsBind, "metrics-bind", c.MetricsBind, "Address serving Prometheus metrics, e.g. localhost:9090.")
}

// ListOptions validates c and turns it into list options.
func (c *Config) ListOptions() (soilview.ListOptions, time.Duration, error) {
	var opts soilview.ListOptions
	sort, ok := paginate.ParseSort(c.Sort)
	if !ok {
		return opts, 0, errors.Errorf("invalid sort %q", c.Sort)
	}
	grouping, err := soilview.ParseGrouping(c.Grouping)
	if err != nil {
		return opts, 0, err
	}
	live, err := time.ParseDuration(c.LiveInterval)
	if err != nil {
		return opts, 0, errors.Wrapf(err, "live-interval")
	}

	opts = soilview.ListOptions{
		DataType:              c.DataType,
		Sort:                  sort,
		Grouping:              grouping,
		ListItemMinHeight:     c.ListItemMinHeight,
		HydrationBufferAmount: c.HydrationBufferAmount,
		Animate:               c.Animate,
		AnimationStep:         30 * time.Millisecond,
	}
	if c.PageAmount > 0 {
		opts.Pagination = &paginate.Pagination{Amount: c.PageAmount, Buffer: c.PageBuffer}
		if err := opts.Pagination.Validate(); err != nil {
			return opts, 0, err
		}
	}
	return opts, live, nil
}

// setAllConfig applies the environment and the config file named by the
// "config" flag to every flag of flags that was not set on the command line.
func setAllConfig(v *viper.Viper, flags *pflag.FlagSet, configPath string) error {
	if err := v.BindPFlags(flags); err != nil {
		return err
	}
	v.SetEnvPrefix("SOILVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "reading config file %s", configPath)
		}
		for _, key := range v.AllKeys() {
			if flags.Lookup(key) == nil {
				return errors.Errorf("invalid option in config file: %s", key)
			}
		}
	}

	var flagErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if flagErr != nil || f.Changed {
			return
		}
		flagErr = f.Value.Set(v.GetString(f.Name))
	})
	return flagErr
}

func newConfigCommand(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the default configuration as TOML.",
		RunE: func(cmd *cobra.Command, args []string) error {
			buf, err := toml.Marshal(*NewConfig())
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, string(buf))
			return nil
		},
	}
}
