package base

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aacfactory/afkey"
	"github.com/aacfactory/afkey/configs"
	"github.com/aacfactory/afkey/oid"
	"github.com/spf13/cobra"
)

type inspectFlags struct {
	key               string
	passwordEnv       string
	prompt            bool
	config            string
	implicitSecp256k1 bool
}

func newInspectCommand() *cobra.Command {
	flags := &inspectFlags{}
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Import a key and print its algorithm and public key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, flags)
		},
	}
	addKeyFlag(cmd.Flags(), &flags.key)
	cmd.Flags().StringVar(&flags.passwordEnv, "password-env", "", "environment variable holding the password")
	cmd.Flags().BoolVar(&flags.prompt, "prompt", false, "prompt for the password")
	cmd.Flags().StringVarP(&flags.config, "config", "c", "", "yaml key config file")
	cmd.Flags().BoolVar(&flags.implicitSecp256k1, "implicit-secp256k1", false, "assume secp256k1 for ec keys without curve parameters")
	return cmd
}

func runInspect(cmd *cobra.Command, flags *inspectFlags) (err error) {
	config, configErr := configs.LoadKeyConfig(flags.config)
	if configErr != nil {
		err = configErr
		return
	}
	if flags.key != "" {
		config.Path = flags.key
	}
	if flags.implicitSecp256k1 {
		config.ImplicitSecp256k1 = true
	}
	text, readErr := readKeyFile(config.Path)
	if readErr != nil {
		err = readErr
		return
	}
	password, passwordErr := inspectPassword(config, flags)
	if passwordErr != nil {
		err = passwordErr
		return
	}
	defer clear(password)

	level, levelErr := config.Level()
	if levelErr != nil {
		err = levelErr
		return
	}
	options := config.Options(afkey.WithLogger(newLogger(level)))
	imported, importErr := afkey.Import(text, password, options...)
	if importErr != nil && errors.Is(importErr, afkey.ErrMissingPassword) && !flags.prompt {
		// retry interactively once
		prompted, promptErr := promptPassword("Enter password: ")
		if promptErr != nil {
			err = errors.Join(importErr, promptErr)
			return
		}
		defer clear(prompted)
		imported, importErr = afkey.Import(text, prompted, options...)
	}
	if importErr != nil {
		err = importErr
		return
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "type: %s\n", imported.Type)
	public := imported.PublicKey
	if imported.PrivateKey != nil {
		defer imported.PrivateKey.Zero()
		derived, deriveErr := imported.PrivateKey.PublicKey()
		if deriveErr != nil {
			err = deriveErr
			return
		}
		public = derived
		fmt.Fprintf(out, "embedded public key: %v\n", imported.PrivateKey.Public != nil)
	}
	fmt.Fprintf(out, "algorithm: %s\n", public.Algorithm)
	fmt.Fprintf(out, "public key: %s\n", hex.EncodeToString(public.Public))
	if public.Algorithm == afkey.EcdsaSecp256k1 {
		fmt.Fprintf(out, "curve: %s (%s)\n", oid.Secp256k1, oid.Secp256k1.OID())
	}
	return
}

func inspectPassword(config *configs.Key, flags *inspectFlags) (password []byte, err error) {
	if name := strings.TrimSpace(flags.passwordEnv); name != "" {
		value, has := os.LookupEnv(name)
		if !has {
			err = fmt.Errorf("password environment variable %s is not set", name)
			return
		}
		password = []byte(value)
		return
	}
	if flags.prompt {
		password, err = promptPassword("Enter password: ")
		return
	}
	password, err = config.ReadPassword()
	return
}
