package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opencard/pkcs15mw/config"
	"github.com/opencard/pkcs15mw/driver"
	"github.com/opencard/pkcs15mw/iso7816"
	"github.com/opencard/pkcs15mw/output"
	"github.com/opencard/pkcs15mw/path"
	"github.com/opencard/pkcs15mw/pin"
	"github.com/opencard/pkcs15mw/pkcs15"
	"github.com/opencard/pkcs15mw/reader"
)

var (
	version = "1.0.0"

	readerName string
	configPath string
	outputJSON bool
)

var rootCmd = &cobra.Command{
	Use:   "pkcs15mw",
	Short: "PKCS#15 smart card middleware",
	Long: `pkcs15mw v` + version + `
Access PKCS#15 cryptographic tokens over PC/SC: list authentication
objects, keys and certificates, verify/change/unblock PINs, and drive
signature and decryption operations via the card's security
environment.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&readerName, "reader", "r", "",
		"PC/SC reader name (auto-selects the first reader with a card if omitted)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Configuration file (defaults to ~/.pkcs15mw.yaml if present)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false,
		"Output in JSON format")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetVersion returns the current version.
func GetVersion() string {
	return version
}

// loadConfig resolves and loads the configuration file. A missing
// default path is not an error: the tool runs with built-in defaults.
func loadConfig() (*config.Config, error) {
	cfgPath := configPath
	if cfgPath == "" {
		def, err := config.DefaultPath()
		if err != nil {
			return &config.Config{}, nil
		}
		if _, statErr := os.Stat(def); statErr != nil {
			return &config.Config{}, nil
		}
		cfgPath = def
	}
	return config.Load(cfgPath)
}

// session bundles everything a subcommand needs once connected: the
// reader, the driver-wrapped card, the PIN cache, and the cache
// options read from config.
type session struct {
	Reader *reader.Reader
	Card   iso7816.Card
	Quirk  driver.Quirk
	Cache  *pin.Cache
	Opts   pkcs15.Options
}

func (s *session) Close() {
	if s.Reader != nil {
		s.Reader.Close()
	}
}

// connect opens the configured (or auto-selected) reader, performs a
// warm reset, and builds the driver-wrapped card.
func connect() (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	name := readerName
	if name == "" {
		name = cfg.Reader.Name
	}

	var r *reader.Reader
	if name != "" {
		r, err = reader.Connect(name)
	} else {
		r, err = reader.ConnectFirst()
	}
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	if err := r.Reconnect(false); err != nil {
		if !outputJSON {
			output.PrintWarning(fmt.Sprintf("warm reset failed: %v (continuing anyway)", err))
		}
	}

	if !outputJSON {
		output.PrintReaderInfo(r.Name(), r.ATRString(), r.IsPINPad())
	}

	card, quirk := driver.NewCard(r, r.ATR())

	cacheLimit := cfg.PinCacheCounter()
	if !cfg.UsePinCache() {
		cacheLimit = 0
	}

	return &session{
		Reader: r,
		Card:   card,
		Quirk:  quirk,
		Cache:  pin.NewCache(cacheLimit),
		Opts: pkcs15.Options{
			UseFileCache:    cfg.UseFileCache(),
			UsePinCache:     cfg.UsePinCache(),
			PinCacheCounter: cfg.PinCacheCounter(),
		},
	}, nil
}

// bindCard binds the PKCS#15 object directory by reading the ODF at
// odf. appDF is recorded as the application root and is not selected.
func (s *session) bindCard(appDF, odf path.Path) (*pkcs15.Card, error) {
	return pkcs15.Bind(s.Card, appDF, odf, s.Opts)
}

// defaultAppDF is the master file, used when the PKCS#15 application
// is rooted directly at 3F00 rather than under a distinct AID.
func defaultAppDF() path.Path {
	p, _ := path.New(path.FilePath, []byte{0x3F, 0x00})
	return p
}

// defaultODF is EF(ODF) at its conventional PKCS#15 path under the MF.
func defaultODF() path.Path {
	p, _ := path.New(path.FilePath, []byte{0x3F, 0x00, 0x50, 0x31})
	return p
}

func printError(msg string) {
	output.PrintError(msg)
}

func printSuccess(msg string) {
	if !outputJSON {
		output.PrintSuccess(msg)
	}
}

func printWarning(msg string) {
	if !outputJSON {
		output.PrintWarning(msg)
	}
}
