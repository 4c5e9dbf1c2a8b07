package main

import (
	"fmt"
	"os"

	"github.com/aacfactory/afkey/commands/afkey/base"
)

// main
// afkey inspect --key={path} [--password-env={NAME}] [--prompt] [--config={path}]
// afkey encrypt --key={path} --out={path} [--iterations={n}]
// afkey generate [--type={ed25519|secp256k1}] [--dst={dir}] [--encrypt]
func main() {
	if err := base.Execute(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
