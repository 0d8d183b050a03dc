package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/shelfscout/shelfscout/internal/utils"
	"github.com/shelfscout/shelfscout/pkg/chains"
	"github.com/shelfscout/shelfscout/pkg/chains/heb"
	"github.com/shelfscout/shelfscout/pkg/chains/target"
	"github.com/shelfscout/shelfscout/pkg/chains/walmart"
	"github.com/shelfscout/shelfscout/pkg/resolve"
	"github.com/shelfscout/shelfscout/pkg/storage"
	"github.com/shelfscout/shelfscout/pkg/whttp"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	LOGO = `     _          _  __                  _
 ___| |__   ___| |/ _|___  ___ ___  __| |_
/ __| '_ \ / _ \ | |_/ __|/ __/ _ \/ _| __|
\__ \ | | |  __/ |  _\__ \ (_| (_) \,_| |_
|___/_| |_|\___|_|_| |___/\___\___/\__|\__|

`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "shelfscout",
	Short: "Find what's on the shelf before you drive there.",
	Long: LOGO + `shelfscout resolves product identity, stock, price and aisle data for a
barcode across Walmart, Target and H-E-B, and optimizes your shopping
route per store and aisle.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.shelfscout.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("proxy", "", "", "HTTP Proxy (Useful for debugging. Example: http://127.0.0.1:8080)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".shelfscout")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := home + "/.shelfscout.yaml"
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	viper.SetDefault("http.max_attempts", 3)
	viper.SetDefault("http.base_delay_ms", 500)
	viper.SetDefault("database.path", "")
	viper.SetDefault("chains.priority", []string{"walmart", "target", "heb"})

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}

// newHTTPClient builds the shared retrieval client from the configured
// retry policy and the global proxy flag.
func newHTTPClient() *whttp.Client {
	client := whttp.NewClient(whttp.Config{
		MaxAttempts: viper.GetInt("http.max_attempts"),
		BaseDelay:   time.Duration(viper.GetInt("http.base_delay_ms")) * time.Millisecond,
	})

	proxy, _ := rootCmd.PersistentFlags().GetString("proxy")
	if proxy != "" {
		if err := client.SetProxy(proxy); err != nil {
			utils.Log.Fatal(err)
		}
	}
	return client
}

// newResolver wires up one adapter per configured chain, in the priority
// order from the config file.
func newResolver() *resolve.Resolver {
	h := newHTTPClient()
	available := map[string]chains.Retailer{
		"walmart": walmart.New(h),
		"target":  target.New(h),
		"heb":     heb.New(h),
	}

	var retailers []chains.Retailer
	for _, name := range viper.GetStringSlice("chains.priority") {
		rt, ok := available[name]
		if !ok {
			utils.Log.Warn("Unknown chain in config: ", name)
			continue
		}
		retailers = append(retailers, rt)
	}
	if len(retailers) == 0 {
		retailers = []chains.Retailer{available["walmart"], available["target"], available["heb"]}
	}
	return resolve.New(retailers...)
}

func openDB() (*storage.DB, error) {
	path := viper.GetString("database.path")
	if path == "" {
		home, err := homedir.Dir()
		if err != nil {
			return nil, err
		}
		path = home + "/.shelfscout.db"
	}
	return storage.Open(path)
}
