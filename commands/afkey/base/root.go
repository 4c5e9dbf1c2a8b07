package base

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	console "github.com/phsym/console-slog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

var verbose = false

// NewRootCommand builds the afkey command tree. out receives command results, logs go to stderr.
func NewRootCommand(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "afkey",
		Short:         "Manage ledger private key files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
			slog.SetDefault(newLogger(slog.LevelInfo))
		},
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}
	root.SetOut(out)
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	root.AddCommand(newInspectCommand(), newEncryptCommand(), newGenerateCommand())
	return root
}

func Execute(args []string) (err error) {
	root := NewRootCommand(os.Stdout)
	root.SetArgs(args)
	err = root.Execute()
	if err != nil {
		err = fmt.Errorf("afkey: %v", err)
		return
	}
	return
}

// newLogger writes to stderr at level, or at debug when --verbose is set.
func newLogger(level slog.Level) *slog.Logger {
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(console.NewHandler(os.Stderr, &console.HandlerOptions{Level: level}))
}

func addKeyFlag(flags *pflag.FlagSet, key *string) {
	flags.StringVarP(key, "key", "k", "", "private key pem file")
}

func readKeyFile(path string) (text []byte, err error) {
	path = strings.TrimSpace(path)
	if path == "" {
		err = errors.New("key file is required")
		return
	}
	text, err = os.ReadFile(path)
	if err != nil {
		err = fmt.Errorf("read key file failed, %v", err)
		return
	}
	return
}

// promptPassword reads a password from the terminal without echo.
func promptPassword(prompt string) (password []byte, err error) {
	fd := int(syscall.Stdin)
	if !term.IsTerminal(fd) {
		err = errors.New("password prompt needs a terminal")
		return
	}
	fmt.Fprint(os.Stderr, prompt)
	password, err = term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		err = fmt.Errorf("read password failed, %v", err)
		return
	}
	return
}
