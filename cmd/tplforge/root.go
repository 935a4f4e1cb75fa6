package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tplforge/tplforge/internal/version"
	"github.com/tplforge/tplforge/pkg/logging"
)

// envImportTopLevel is what the bare --envvar flag resolves to: the
// environment spreads at the top level instead of under a root key.
const envImportTopLevel = "*"

var (
	verbosity int

	flagOutDir       string
	flagOutFile      string
	flagIncDirs      []string
	flagDefines      []string
	flagVarFiles     []string
	flagEnvVar       string
	flagWipeOutDir   bool
	flagWarnOverwr   bool
	flagNoOverwr     bool
	flagNoCheckIdent bool
	flagFixIdent     bool
	flagChdirSrc     bool
	flagNoChdir      bool
	flagCSVDelim     string
	flagCSVEscape    string
	flagCSVNoStrip   bool
	flagXMLConvAttr  bool
	flagXMLRemoveNS  bool
	flagNonTemplate  string
	flagRenderSuffix string
	flagForceGlob    bool
	flagDebugVars    bool
	flagTrimWS       bool
	flagRelaxed      bool
	flagPerf         bool

	rootCmd = &cobra.Command{
		Use:   "tplforge [sources...]",
		Short: "Batch template-rendering preprocessor",
		Long: `tplforge renders a batch of template files against a variable context
gathered from structured-data files (YAML, JSON, TOML, XML, INI, ENV,
CSV/TSV) and command-line definitions. Directories are walked
recursively, non-template files can be skipped, copied or rendered, and
every warning and error of a run is replayed in a final summary.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		Args:          cobra.ArbitraryArgs,
		RunE:          runRoot,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")

	flags := rootCmd.Flags()
	flags.StringVarP(&flagOutDir, "outdir", "O", "", "Output directory; source trees are re-rooted under it")
	flags.StringVarP(&flagOutFile, "output", "o", "", "Output file, valid for a single source template")
	flags.StringArrayVarP(&flagIncDirs, "incdir", "I", nil, "Include directory for {{template}} references (repeatable)")
	flags.StringArrayVarP(&flagDefines, "define", "D", nil, "Define a variable as name=value (repeatable)")
	flags.StringArrayVarP(&flagVarFiles, "varfile", "V", nil, "Load variables from a file (repeatable)")
	flags.StringVar(&flagEnvVar, "envvar", "", "Import environment variables, optionally nested under the given root key")
	flags.Lookup("envvar").NoOptDefVal = envImportTopLevel
	flags.BoolVar(&flagWipeOutDir, "overwrite-outdir", false, "Wipe the output directory before the run")
	flags.BoolVar(&flagWarnOverwr, "warn-overwrite", false, "Warn when overwriting an existing output file")
	flags.BoolVar(&flagNoOverwr, "no-overwrite", false, "Never overwrite an existing output file")
	flags.BoolVar(&flagNoCheckIdent, "no-check-identifier", false, "Do not check that variable names are valid identifiers")
	flags.BoolVar(&flagFixIdent, "fix-identifiers", false, "Rename invalid variable names to valid identifiers")
	flags.BoolVar(&flagChdirSrc, "chdir-src", false, "Resolve in-template file operations against the source directory")
	flags.BoolVar(&flagNoChdir, "no-chdir", false, "Resolve in-template file operations against the working directory")
	flags.StringVar(&flagCSVDelim, "csv-delimiter", "", "Delimiter character for CSV variable files")
	flags.StringVar(&flagCSVEscape, "csv-escapechar", "", "Escape character for CSV/TSV variable files")
	flags.BoolVar(&flagCSVNoStrip, "csv-dontstrip", false, "Keep surrounding whitespace in CSV/TSV cells")
	flags.BoolVar(&flagXMLConvAttr, "xml-convert-attributes", false, "Drop the '@' marker from XML attribute keys")
	flags.BoolVar(&flagXMLRemoveNS, "xml-remove-namespaces", false, "Strip namespace prefixes from XML names")
	flags.StringVar(&flagNonTemplate, "non-template", "", "What to do with non-template files: skip, copy or render")
	flags.StringVar(&flagRenderSuffix, "render-suffix", "", "Suffix inserted in output names of rendered non-templates")
	flags.BoolVar(&flagForceGlob, "force-glob", false, "Treat every source argument as a glob pattern")
	flags.BoolVar(&flagDebugVars, "debug-vars", false, "Prepend a dump of the variable context to every output")
	flags.BoolVar(&flagTrimWS, "trim-whitespace", false, "Trim trailing whitespace from rendered lines")
	flags.BoolVar(&flagRelaxed, "relaxed-undefined", false, "Render undefined variables as placeholders instead of failing")
	flags.BoolVar(&flagPerf, "perf", false, "Print the total processing time")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print version information for tplforge`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tplforge version %s\n", version.Version)
		fmt.Printf("  commit: %s\n", version.Commit)
		fmt.Printf("  built:  %s\n", version.Date)
	},
}
