/*

Treediff reads two collections of trees in newick format and checks
which trees of the first collection are identical to which trees of the
second one.

The basic usage looks like this:

	treediff trees1.nwk trees2.nwk

, which is the same as:

	treediff -1 trees1.nwk -2 trees2.nwk

Trees can be rooted with an outgroup before the comparison:

	treediff -o human trees1.nwk trees2.nwk

For every pair of trees a tab-separated line is printed, "=" for
identical trees and "!=" otherwise, followed by the indices of both
trees. The last line is a summary starting with "#".

To see all the options run:

	treediff -h

*/
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/op/go-logging"

	"bitbucket.org/Davydov/treediff/compare"
	"bitbucket.org/Davydov/treediff/heatmap"
	"bitbucket.org/Davydov/treediff/store"
)

// These three variables are set during the compilation.
var githash = ""
var gitbranch = ""
var buildstamp = ""
var version = fmt.Sprintf("branch: %s, revision: %s, build time: %s", gitbranch, githash, buildstamp)

// Logger settings.
var log = logging.MustGetLogger("treediff")
var formatter = logging.MustStringFormatter(`%{message}`)

// modules lists all the loggers.
var modules = []string{"treediff", "compare", "tree", "store", "heatmap"}

// run performs the comparison and writes the optional outputs.
func run(cfg compare.Config, o outputs, w io.Writer) (*compare.Summary, error) {
	summary, err := compare.New(cfg, w, logging.MustGetLogger("compare")).Run()
	if err != nil {
		return nil, err
	}

	if o.JSON != "" {
		if err := writeJSON(o.JSON, summary); err != nil {
			return nil, fmt.Errorf("error writing json output: %w", err)
		}
	}

	if o.Matrix != "" {
		if err := writeMatrix(o.Matrix, summary); err != nil {
			return nil, fmt.Errorf("error writing identity matrix: %w", err)
		}
	}

	if o.Plot != "" {
		if summary.Matrix == nil {
			log.Warning("No trees to plot")
		} else if err := heatmap.Save(summary.Matrix, o.Plot); err != nil {
			return nil, fmt.Errorf("error drawing heat map: %w", err)
		}
	}

	if o.DB != "" {
		if err := record(o.DB, summary); err != nil {
			return nil, fmt.Errorf("error recording summary: %w", err)
		}
	}

	return summary, nil
}

func writeJSON(fn string, summary *compare.Summary) error {
	j, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	log.Debug(string(j))
	return os.WriteFile(fn, j, 0666)
}

func writeMatrix(fn string, summary *compare.Summary) error {
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	if err := compare.WriteMatrix(f, summary.Matrix); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// record stores the summary in the database, reporting the previous
// result for the same inputs.
func record(fn string, summary *compare.Summary) error {
	db, err := store.Open(fn)
	if err != nil {
		return err
	}
	defer db.Close()

	key, err := recordKey(summary)
	if err != nil {
		return err
	}
	prev, err := db.Load(key)
	if err != nil {
		return err
	}
	if prev != nil {
		log.Noticef("Previous result for the same input: %s", prev)
	}
	return db.Save(key, summary)
}

// recordKey returns the database key for the summary. File names are
// made absolute, so that runs from different directories match.
func recordKey(summary *compare.Summary) ([]byte, error) {
	fn1, err := filepath.Abs(summary.Filename1)
	if err != nil {
		return nil, err
	}
	fn2, err := filepath.Abs(summary.Filename2)
	if err != nil {
		return nil, err
	}
	return store.Key(fn1, fn2, summary.Outgroup), nil
}

func main() {
	app, opts := newApp()
	kingpin.MustParse(app.Parse(os.Args[1:]))

	// logging
	logging.SetFormatter(formatter)

	var backend *logging.LogBackend
	if *opts.LogF != "" {
		f, err := os.OpenFile(*opts.LogF, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Fatal("Error creating log file:", err)
		}
		defer f.Close()
		backend = logging.NewLogBackend(f, "", 0)
	} else {
		backend = logging.NewLogBackend(os.Stderr, "", 0)
	}
	logging.SetBackend(backend)

	level, err := opts.Level()
	if err != nil {
		log.Fatal(err)
	}
	for _, module := range modules {
		logging.SetLevel(level, module)
	}

	log.Info(version)
	log.Info("Command line:", os.Args)

	cfg, err := opts.Config()
	if err != nil {
		app.FatalUsage("%s", err)
	}

	out := os.Stdout
	if *opts.OutF != "" {
		out, err = os.Create(*opts.OutF)
		if err != nil {
			log.Fatal("Error creating output file:", err)
		}
		defer out.Close()
	}

	if _, err := run(cfg, opts.Outputs(), out); err != nil {
		log.Fatal(err)
	}
}
