package configs

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/aacfactory/afkey"
	"github.com/aacfactory/afkey/oid"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Key locates a private key file and the password protecting it.
// Environment variables override values read from the yaml file.
type Key struct {
	Path              string `json:"path" yaml:"path" env:"AFKEY_KEY_PATH"`
	Password          string `json:"password" yaml:"password" env:"AFKEY_PASSWORD"`
	PasswordFile      string `json:"passwordFile" yaml:"passwordFile" env:"AFKEY_PASSWORD_FILE"`
	ImplicitSecp256k1 bool   `json:"implicitSecp256k1" yaml:"implicitSecp256k1" env:"AFKEY_IMPLICIT_SECP256K1"`
	LogLevel          string `json:"logLevel" yaml:"logLevel" env:"AFKEY_LOG_LEVEL"`
}

// LoadKeyConfig reads path as yaml when it is not empty, then applies the environment.
func LoadKeyConfig(path string) (key *Key, err error) {
	key = &Key{}
	path = strings.TrimSpace(path)
	if path != "" {
		p, readErr := os.ReadFile(path)
		if readErr != nil {
			key = nil
			err = errors.Join(errors.New("afkey: load key config failed"), errors.New("read config file failed"), readErr)
			return
		}
		decodeErr := yaml.Unmarshal(p, key)
		if decodeErr != nil {
			key = nil
			err = errors.Join(errors.New("afkey: load key config failed"), errors.New("decode config file failed"), decodeErr)
			return
		}
	}
	envErr := env.Parse(key)
	if envErr != nil {
		key = nil
		err = errors.Join(errors.New("afkey: load key config failed"), errors.New("parse environment failed"), envErr)
		return
	}
	return
}

// Level returns the configured slog level, info when unset.
func (key *Key) Level() (level slog.Level, err error) {
	text := strings.TrimSpace(key.LogLevel)
	if text == "" {
		level = slog.LevelInfo
		return
	}
	if parseErr := level.UnmarshalText([]byte(text)); parseErr != nil {
		err = errors.Join(errors.New("afkey: invalid log level"), parseErr)
		return
	}
	return
}

// ReadPassword resolves the password: the inline value wins over the password file.
// A nil password is returned when neither is set.
func (key *Key) ReadPassword() (password []byte, err error) {
	if key.Password != "" {
		password = []byte(key.Password)
		return
	}
	file := strings.TrimSpace(key.PasswordFile)
	if file == "" {
		return
	}
	p, readErr := os.ReadFile(file)
	if readErr != nil {
		err = errors.Join(errors.New("afkey: read password file failed"), readErr)
		return
	}
	password = bytes.TrimRight(p, "\r\n")
	return
}

// Options converts the config into import options. extra options are applied last.
func (key *Key) Options(extra ...afkey.Option) []afkey.Option {
	options := make([]afkey.Option, 0, len(extra)+1)
	if key.ImplicitSecp256k1 {
		options = append(options, afkey.WithImplicitCurve(oid.Secp256k1.OID()))
	}
	return append(options, extra...)
}

func (key *Key) Load(opts ...afkey.Option) (v *afkey.KeyMaterial, err error) {
	path := strings.TrimSpace(key.Path)
	if path == "" {
		err = errors.Join(errors.New("afkey: load key failed"), errors.New("path is required"))
		return
	}
	text, readErr := os.ReadFile(path)
	if readErr != nil {
		err = errors.Join(errors.New("afkey: load key failed"), errors.New("read key failed"), readErr)
		return
	}
	password, passwordErr := key.ReadPassword()
	if passwordErr != nil {
		err = errors.Join(errors.New("afkey: load key failed"), passwordErr)
		return
	}
	defer clear(password)
	v, err = afkey.ImportPrivateKey(text, password, key.Options(opts...)...)
	if err != nil {
		err = errors.Join(errors.New("afkey: load key failed"), err)
		return
	}
	return
}
