package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/tplforge/tplforge/pkg/config"
	"github.com/tplforge/tplforge/pkg/discovery"
	"github.com/tplforge/tplforge/pkg/errors"
	"github.com/tplforge/tplforge/pkg/loaders"
	"github.com/tplforge/tplforge/pkg/render"
	"github.com/tplforge/tplforge/pkg/report"
	"github.com/tplforge/tplforge/pkg/runner"
	"github.com/tplforge/tplforge/pkg/types"
	"github.com/tplforge/tplforge/pkg/vars"
)

func runRoot(cmd *cobra.Command, args []string) error {
	start := time.Now()
	rep := report.New()

	opts, err := buildOptions(cmd, rep)
	if err != nil {
		pterm.Error.Println(err.Error())
		return err
	}

	engine, err := render.NewEngine(opts.IncludeDirs, opts.StrictUndefined)
	if err != nil {
		pterm.Error.Println(err.Error())
		return err
	}

	context := buildContext(opts, rep)
	worklist, copylist := discovery.Discover(args, opts, rep)

	pipeline := render.NewPipeline(engine, opts, context, rep)
	result := runner.New(pipeline, opts, rep).Run(cmd.Context(), worklist, copylist)

	rep.Summary(os.Stderr)
	if flagPerf {
		fmt.Printf("Total processing time: %s\n", time.Since(start).Round(time.Millisecond))
	}

	if !result.Success() {
		return errors.Newf(errors.ErrUnknown, "run finished with %d error(s)", len(result.Errors))
	}
	return nil
}

// buildOptions layers the command-line flags over the loaded
// configuration and resolves incompatible flag combinations.
func buildOptions(cmd *cobra.Command, rep *report.Reporter) (types.Options, error) {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	k, err := config.Load(wd)
	if err != nil {
		return types.Options{}, err
	}

	// Only flags the user actually set override the config layers.
	flags := cmd.Flags()
	overrides := map[string]interface{}{}
	if flags.Changed("non-template") {
		overrides["non_template"] = flagNonTemplate
	}
	if flags.Changed("render-suffix") {
		overrides["render_suffix"] = flagRenderSuffix
	}
	if flags.Changed("csv-delimiter") {
		overrides["csv.delimiter"] = flagCSVDelim
	}
	if flags.Changed("csv-escapechar") {
		overrides["csv.escape"] = flagCSVEscape
	}
	if flagCSVNoStrip {
		overrides["csv.dont_strip"] = true
	}
	if flagXMLConvAttr {
		overrides["xml.convert_attributes"] = true
	}
	if flagXMLRemoveNS {
		overrides["xml.remove_namespaces"] = true
	}
	if flagForceGlob {
		overrides["force_glob"] = true
	}
	if flagDebugVars {
		overrides["debug_vars"] = true
	}
	if flagTrimWS {
		overrides["trim_whitespace"] = true
	}
	if flagRelaxed {
		overrides["strict_undefined"] = false
	}
	if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
		return types.Options{}, errors.Wrap(err, errors.ErrConfigLoad, "cannot apply command-line overrides")
	}

	opts, err := config.ToOptions(k)
	if err != nil {
		return opts, err
	}

	if flagWarnOverwr && flagNoOverwr {
		rep.Warnf("Options --warn-overwrite and --no-overwrite are incompatible, keeping --no-overwrite.")
	}
	if flagNoOverwr {
		opts.Overwrite = types.OverwriteForbid
	} else if flagWarnOverwr {
		opts.Overwrite = types.OverwriteWarn
	}

	if flagChdirSrc && flagNoChdir {
		rep.Warnf("Options --chdir-src and --no-chdir are incompatible, keeping --chdir-src.")
	}
	if flagChdirSrc {
		opts.BaseDir = types.BaseDirSource
	} else if flagNoChdir {
		opts.BaseDir = types.BaseDirNone
	}

	if flagNoCheckIdent && flagFixIdent {
		rep.Warnf("Options --no-check-identifier and --fix-identifiers are incompatible, keeping --fix-identifiers.")
	}
	if flagFixIdent {
		opts.CheckIdentifiers = true
		opts.FixIdentifiers = true
	} else if flagNoCheckIdent {
		opts.CheckIdentifiers = false
	}

	if flagOutDir != "" {
		if abs, err := filepath.Abs(flagOutDir); err == nil {
			opts.OutDir = abs
		}
	}
	if flagOutFile != "" {
		if opts.OutDir != "" {
			rep.Warnf("Options --outdir and --output are incompatible, keeping --output.")
			opts.OutDir = ""
		}
		if abs, err := filepath.Abs(flagOutFile); err == nil {
			opts.OutFile = abs
		}
	}

	if flagWipeOutDir {
		if opts.OutDir == "" {
			rep.Warnf("Option --overwrite-outdir is ignored without an explicit output directory.")
		} else {
			opts.WipeOutDir = true
		}
	}

	opts.IncludeDirs = flagIncDirs
	return opts, nil
}

// buildContext assembles the variable context, lowest precedence first:
// builtins, variable files in the given order, environment import, then
// command-line defines. Loader failures are recorded and skipped.
func buildContext(opts types.Options, rep *report.Reporter) map[string]any {
	context := vars.Builtin(opts.OutDir)

	for _, path := range flagVarFiles {
		loaded, err := loaders.Load(path, opts, rep)
		if err != nil {
			rep.Error(err)
			continue
		}
		if opts.CheckIdentifiers {
			loaded = vars.CheckIdentifiers(loaded, fmt.Sprintf("'%s'", path), opts.FixIdentifiers, rep)
		}
		context = vars.Merge(context, loaded, "", fmt.Sprintf(" while loading variables file '%s'", path), rep)
	}

	if flagEnvVar != "" {
		rootKey := flagEnvVar
		if rootKey == envImportTopLevel {
			rootKey = ""
		}
		env := vars.FromEnviron(os.Environ(), rootKey)
		if opts.CheckIdentifiers {
			env = vars.CheckIdentifiers(env, "the environment", opts.FixIdentifiers, rep)
		}
		context = vars.Merge(context, env, "", " while importing the environment", rep)
	}

	for _, def := range flagDefines {
		parsed, err := vars.ParseDefine(def)
		if err != nil {
			rep.Error(err)
			continue
		}
		context = vars.Merge(context, parsed, "", fmt.Sprintf(" while defining '%s'", def), rep)
	}
	return context
}
