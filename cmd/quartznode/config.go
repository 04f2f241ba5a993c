package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"reflect"
	"unicode"

	"github.com/naoina/toml"
)

// tomlSettings mirrors the teacher's gprobe convention of keeping TOML keys
// identical to the Go struct field names, rather than lower-casing them.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string { return key },
	FieldToKey:    func(rt reflect.Type, field string) string { return field },
	MissingField: func(rt reflect.Type, field string) error {
		id := fmt.Sprintf("%s.%s", rt.String(), field)
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://godoc.org/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

// quartzConfig is the full on-disk configuration for one quartznode
// process: the database/block-store paths, the overlay parent to dial, and
// the relay power bounding how many children this node will accept.
type quartzConfig struct {
	DataDir    string
	ParentAddr string
	RelayPower uint8
	Verbosity  string
}

var defaultConfig = quartzConfig{
	DataDir:    "./quartznode-data",
	RelayPower: 4,
	Verbosity:  "info",
}

func loadConfig(file string, cfg *quartzConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}
