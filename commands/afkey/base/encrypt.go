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
	"github.com/aacfactory/afkey/pkcs"
	"github.com/spf13/cobra"
)

type encryptFlags struct {
	key        string
	out        string
	iterations uint32
}

func newEncryptCommand() *cobra.Command {
	flags := &encryptFlags{}
	cmd := &cobra.Command{
		Use:   "encrypt",
		Short: "Encrypt a plaintext private key into an ENCRYPTED PRIVATE KEY pem",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncrypt(cmd, flags)
		},
	}
	addKeyFlag(cmd.Flags(), &flags.key)
	cmd.Flags().StringVarP(&flags.out, "out", "o", "", "output pem file")
	cmd.Flags().Uint32Var(&flags.iterations, "iterations", pkcs.DefaultIterationCount, "pbkdf2 iteration count")
	return cmd
}

func runEncrypt(cmd *cobra.Command, flags *encryptFlags) (err error) {
	out := strings.TrimSpace(flags.out)
	if out == "" {
		err = errors.New("output file is required")
		return
	}
	text, readErr := readKeyFile(flags.key)
	if readErr != nil {
		err = readErr
		return
	}
	key, importErr := afkey.ImportPrivateKey(text, nil, afkey.WithLogger(slog.Default()))
	if importErr != nil {
		err = importErr
		return
	}
	defer key.Zero()
	password, promptErr := promptPassword("Enter new password: ")
	if promptErr != nil {
		err = promptErr
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
	encrypted, encryptErr := afkey.EncryptPrivateKey(key, password, afkey.WithLogger(slog.Default()), afkey.WithIterationCount(flags.iterations))
	if encryptErr != nil {
		err = encryptErr
		return
	}
	out, err = filepath.Abs(out)
	if err != nil {
		err = fmt.Errorf("invalid output path, %v", err)
		return
	}
	err = os.WriteFile(out, encrypted, 0600)
	if err != nil {
		err = fmt.Errorf("write output file failed, %v", err)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "encrypted %s key written to %s\n", key.Algorithm, out)
	return
}
