package main

import (
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/op/go-logging"

	"bitbucket.org/Davydov/treediff/compare"
)

// cliOptions holds the values kingpin fills in.
type cliOptions struct {
	FilenameTree1 *string
	FilenameTree2 *string
	Outgroup      *string
	Trees         *[]string

	LogLevel *string
	Verbose  *int
	LogF     *string
	OutF     *string
	JSONF    *string
	MatrixF  *string
	PlotF    *string
	DBF      *string
}

// outputs lists the optional output files.
type outputs struct {
	JSON   string
	Matrix string
	Plot   string
	DB     string
}

func newApp() (*kingpin.Application, *cliOptions) {
	app := kingpin.New("treediff", "compare two sets of trees").Version(version)
	o := &cliOptions{}

	// input
	o.FilenameTree1 = app.Flag("filename-tree1", "filename with first tree(s)").Short('1').String()
	o.FilenameTree2 = app.Flag("filename-tree2", "filename with second tree(s)").Short('2').String()
	o.Outgroup = app.Flag("outgroup", "reroot with outgroup before processing").
		Short('o').Envar("TREEDIFF_OUTGROUP").String()
	o.Trees = app.Arg("trees", "two tree files, override -1 and -2").Strings()

	// logging
	o.LogLevel = app.Flag("loglevel", "set loglevel "+
		"('critical', 'error', 'warning', 'notice', 'info', 'debug')").
		Default("notice").
		Enum("critical", "error", "warning", "notice", "info", "debug")
	o.Verbose = app.Flag("verbose", "increase loglevel, can be repeated").Short('v').Counter()
	o.LogF = app.Flag("log", "write log to a file").String()

	// output
	o.OutF = app.Flag("out", "write comparison results to a file").String()
	o.JSONF = app.Flag("json", "write json summary to a file").String()
	o.MatrixF = app.Flag("matrix", "write identity matrix to a file").String()
	o.PlotF = app.Flag("plot", "draw identity matrix heat map to a file (png, svg, pdf)").String()
	o.DBF = app.Flag("db", "record summary in a bolt database").String()

	return app, o
}

// Config resolves positional arguments and returns the comparison
// configuration.
func (o *cliOptions) Config() (compare.Config, error) {
	cfg := compare.Config{
		Filename1: *o.FilenameTree1,
		Filename2: *o.FilenameTree2,
		Outgroup:  *o.Outgroup,
	}
	switch len(*o.Trees) {
	case 0:
	case 2:
		cfg.Filename1, cfg.Filename2 = (*o.Trees)[0], (*o.Trees)[1]
	default:
		log.Warningf("Ignoring %d positional argument(s), expected two", len(*o.Trees))
	}
	cfg.Matrix = *o.MatrixF != "" || *o.PlotF != ""
	return cfg, cfg.Validate()
}

// Outputs returns the optional output files.
func (o *cliOptions) Outputs() outputs {
	return outputs{
		JSON:   *o.JSONF,
		Matrix: *o.MatrixF,
		Plot:   *o.PlotF,
		DB:     *o.DBF,
	}
}

// Level returns the log level, raised once per --verbose.
func (o *cliOptions) Level() (logging.Level, error) {
	level, err := logging.LogLevel(*o.LogLevel)
	if err != nil {
		return level, err
	}
	for i := 0; i < *o.Verbose && level < logging.DEBUG; i++ {
		level++
	}
	return level, nil
}
