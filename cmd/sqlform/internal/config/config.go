// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

// Package config loads the settings of the sqlform command.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/canonical/sqlform"
)

// AppFs is the file system the command reads from.
var AppFs = afero.NewOsFs()

// FileName is the name of the config file looked for in the working
// directory and then in the home directory.
const FileName = ".sqlform.yaml"

// EnvPrefix is the prefix of the environment variables overriding settings,
// e.g. SQLFORM_DIALECT.
const EnvPrefix = "SQLFORM"

// Config holds the settings of the command.
type Config struct {
	Dialect sqlform.Dialect
	JSON    bool
	Verbose bool
	// File is the config file that was read, if any.
	File string
}

// Loader reads settings from flags, the environment, a .env file and a
// config file, in that order of priority.
type Loader struct {
	fs afero.Fs
	v  *viper.Viper
}

// NewLoader returns a loader reading files from fs.
func NewLoader(fs afero.Fs) *Loader {
	v := viper.New()
	v.SetFs(fs)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetDefault("dialect", sqlform.Positional.String())
	v.SetDefault("json", false)
	v.SetDefault("verbose", false)
	return &Loader{fs: fs, v: v}
}

// BindFlags makes the flags take priority over every other source.
func (l *Loader) BindFlags(flags *pflag.FlagSet) error {
	for _, name := range []string{"dialect", "json", "verbose"} {
		if f := flags.Lookup(name); f != nil {
			if err := l.v.BindPFlag(name, f); err != nil {
				return err
			}
		}
	}
	return nil
}

// Load reads the settings. If configFile is empty the config file is looked
// for in the default places and it is not an error if there is none.
func (l *Loader) Load(configFile string) (*Config, error) {
	if err := l.loadDotEnv(); err != nil {
		return nil, err
	}

	if configFile == "" {
		configFile = l.findConfigFile()
	}
	if configFile != "" {
		l.v.SetConfigFile(configFile)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("cannot read config file %s: %w", configFile, err)
		}
	}

	d, err := sqlform.ParseDialect(l.v.GetString("dialect"))
	if err != nil {
		return nil, err
	}
	return &Config{
		Dialect: d,
		JSON:    l.v.GetBool("json"),
		Verbose: l.v.GetBool("verbose"),
		File:    configFile,
	}, nil
}

func (l *Loader) findConfigFile() string {
	dirs := []string{"."}
	if home, err := homedir.Dir(); err == nil {
		dirs = append(dirs, home, filepath.Join(home, ".config", "sqlform"))
	}
	for _, dir := range dirs {
		path := filepath.Join(dir, FileName)
		if fi, err := l.fs.Stat(path); err == nil && !fi.IsDir() {
			return path
		}
	}
	return ""
}

// loadDotEnv sets the variables of a .env file in the working directory.
// Variables already in the environment are left alone.
func (l *Loader) loadDotEnv() error {
	f, err := l.fs.Open(".env")
	if errors.Is(err, os.ErrNotExist) {
		return nil
	} else if err != nil {
		return err
	}
	defer f.Close()

	env, err := godotenv.Parse(f)
	if err != nil {
		return fmt.Errorf("cannot parse .env: %w", err)
	}
	for k, v := range env {
		if _, ok := os.LookupEnv(k); !ok {
			if err := os.Setenv(k, v); err != nil {
				return err
			}
		}
	}
	return nil
}
