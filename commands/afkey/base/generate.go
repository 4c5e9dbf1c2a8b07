package base

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aacfactory/afkey"
	"github.com/spf13/cobra"
)

type generateFlags struct {
	algorithm string
	dst       string
	encrypt   bool
}

func newGenerateCommand() *cobra.Command {
	flags := &generateFlags{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a key pair into key.pem and key.pub.pem",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, flags)
		},
	}
	cmd.Flags().StringVarP(&flags.algorithm, "type", "t", "ed25519", "key type, ed25519 or secp256k1")
	cmd.Flags().StringVarP(&flags.dst, "dst", "d", ".", "output directory")
	cmd.Flags().BoolVar(&flags.encrypt, "encrypt", false, "prompt for a password and encrypt the private key")
	return cmd
}

func runGenerate(cmd *cobra.Command, flags *generateFlags) (err error) {
	algorithm, algorithmErr := afkey.ParseKeyAlgorithm(flags.algorithm)
	if algorithmErr != nil {
		err = algorithmErr
		return
	}
	outputDir, dirErr := filepath.Abs(strings.TrimSpace(flags.dst))
	if dirErr != nil {
		err = fmt.Errorf("invalid dst path, %v", dirErr)
		return
	}
	stat, statErr := os.Stat(outputDir)
	if statErr != nil {
		if !os.IsNotExist(statErr) {
			err = fmt.Errorf("invalid dst path, %v", statErr)
			return
		}
		if mdErr := os.MkdirAll(outputDir, 0700); mdErr != nil {
			err = fmt.Errorf("create dst path failed, %v", mdErr)
			return
		}
	} else if !stat.IsDir() {
		err = errors.New("dst path is not a directory")
		return
	}
	var password []byte
	if flags.encrypt {
		password, err = promptPassword("Enter new password: ")
		if err != nil {
			return
		}
		defer clear(password)
		confirm, confirmErr := promptPassword("Confirm password: ")
		if confirmErr != nil {
			err = confirmErr
			return
		}
		defer clear(confirm)
		if !bytes.Equal(password, confirm) {
			err = errors.New("passwords do not match")
			return
		}
	}
	key, genErr := afkey.GenerateKey(algorithm, afkey.WithLogger(slog.Default()))
	if genErr != nil {
		err = genErr
		return
	}
	defer key.Zero()
	privatePEM, publicPEM, encodeErr := afkey.EncodeKey(key, password, afkey.WithLogger(slog.Default()))
	if encodeErr != nil {
		err = encodeErr
		return
	}
	err = os.WriteFile(filepath.Join(outputDir, "key.pem"), privatePEM, 0600)
	if err != nil {
		err = fmt.Errorf("write private key failed, %v", err)
		return
	}
	err = os.WriteFile(filepath.Join(outputDir, "key.pub.pem"), publicPEM, 0644)
	if err != nil {
		err = fmt.Errorf("write public key failed, %v", err)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s key pair written to %s\n", key.Algorithm, outputDir)
	return
}
