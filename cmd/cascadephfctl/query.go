// query.go -- 'query' command implementation
//
// (c) Sudhi Herle 2018
//
// License GPLv2
//
// If you need a commercial license for this work, please contact
// the author.
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package main

import (
	"fmt"
	"os"
	"strconv"

	cascadephf "github.com/opencoff/go-cascadephf"
	"github.com/opencoff/go-fasthash"
	flag "github.com/opencoff/pflag"
)

type queryCommand struct{}

func init() {
	m := queryCommand{}
	registerCommand("query", &m)
}

func (m *queryCommand) run(args []string, opt *Option) (err error) {
	var raw bool
	var db *cascadephf.DBReader

	fs := flag.NewFlagSet("query", flag.ExitOnError)
	fs.SetOutput(os.Stdout)
	fs.BoolVarP(&raw, "raw", "r", false, "Treat KEY as a raw uint64 hash instead of hashing it as text")
	fs.Usage = func() {
		fmt.Printf(`Usage: query [options] DB KEY

where  'DB' is the name of MPH db and 'KEY' is the key to look up

Options:
`)
		fs.PrintDefaults()
		os.Exit(0)
	}

	err = fs.Parse(args[1:])
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}

	args = fs.Args()
	if len(args) < 2 {
		return fmt.Errorf("query: insufficient args")
	}

	fn, key := args[0], args[1]
	db, err = cascadephf.NewDBReader(fn, 1000)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	defer db.Close()

	var h uint64
	if raw {
		h, err = strconv.ParseUint(key, 0, 64)
		if err != nil {
			return fmt.Errorf("query: bad raw key %q: %w", key, err)
		}
	} else {
		h = fasthash.Hash64(0, []byte(key))
	}

	v, err := db.Find(h)
	if err != nil {
		return fmt.Errorf("query: %s: not found", key)
	}

	if len(v) > 0 {
		fmt.Printf("%s\n", v)
	} else {
		fmt.Printf("%s: present\n", key)
	}
	return nil
}
