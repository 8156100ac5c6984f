package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/viant/afs"
	"github.com/viant/lintexec/gateway"
	"github.com/viant/lintexec/language"
	"github.com/viant/lintexec/linter"
	"github.com/viant/lintexec/model"
)

// APIKeyEnv names the environment variable holding the Packmind API key
const APIKeyEnv = "PACKMIND_API_KEY"

var errViolationsFound = errors.New("violations found")

type lintOptions struct {
	changedFiles bool
	changedLines bool
	catalog      string
	output       string
	concurrency  int
}

func (o *lintOptions) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.BoolVar(&o.changedFiles, "changed-files", false, "only lint files modified since the last commit")
	flags.BoolVar(&o.changedLines, "changed-lines", false, "only report violations on lines modified since the last commit")
	flags.StringVar(&o.catalog, "catalog", "", "YAML catalog of standards and packages used instead of the Packmind API")
	flags.StringVarP(&o.output, "output", "o", "human", "output format (human|json|yaml)")
	flags.IntVar(&o.concurrency, "concurrency", 0, "number of files linted at once (defaults to the number of CPUs)")
}

func (o *lintOptions) diffMode() (model.DiffMode, error) {
	switch {
	case o.changedFiles && o.changedLines:
		return "", errors.New("--changed-files and --changed-lines are mutually exclusive")
	case o.changedLines:
		return model.DiffLines, nil
	case o.changedFiles:
		return model.DiffFiles, nil
	}
	return model.DiffNone, nil
}

func (o *lintOptions) service(ctx context.Context, logger *slog.Logger) (*linter.Service, error) {
	var programs gateway.Gateway
	if o.catalog != "" {
		location, err := filepath.Abs(o.catalog)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve catalog %v: %w", o.catalog, err)
		}
		catalog, err := gateway.LoadCatalog(ctx, afs.New(), location)
		if err != nil {
			return nil, err
		}
		programs = gateway.NewFileGateway(catalog, gateway.WithFileLogger(logger))
	} else {
		client, err := gateway.NewHTTPClient(os.Getenv(APIKeyEnv), gateway.WithHTTPLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("failed to create Packmind client: %w", err)
		}
		programs = client
	}
	return linter.New(
		linter.WithGateway(gateway.Memoize(programs)),
		linter.WithLogger(logger),
		linter.WithConcurrency(o.concurrency),
	), nil
}

func newLintCommand(root *rootOptions) *cobra.Command {
	options := &lintOptions{}
	cmd := &cobra.Command{
		Use:   "lint [path]",
		Short: "Lint a path with the packages declared in packmind.json files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(options.output)
			if err != nil {
				return err
			}
			diffMode, err := options.diffMode()
			if err != nil {
				return err
			}
			service, err := options.service(cmd.Context(), root.logger)
			if err != nil {
				return err
			}
			result, err := service.LintConfig(cmd.Context(), linter.ConfigRequest{Path: pathArg(args), DiffMode: diffMode})
			if err != nil {
				return err
			}
			return report(cmd.OutOrStdout(), format, result)
		},
	}
	options.register(cmd)
	return cmd
}

type ruleOptions struct {
	lintOptions
	standard string
	rule     string
	language string
	draft    bool
}

func newRuleCommand(root *rootOptions) *cobra.Command {
	options := &ruleOptions{}
	cmd := &cobra.Command{
		Use:   "rule [path]",
		Short: "Lint a path with the detection programs of a single rule",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(options.output)
			if err != nil {
				return err
			}
			diffMode, err := options.diffMode()
			if err != nil {
				return err
			}
			var lang language.Language
			if options.language != "" {
				if lang, err = language.Parse(options.language); err != nil {
					return err
				}
			}
			service, err := options.service(cmd.Context(), root.logger)
			if err != nil {
				return err
			}
			result, err := service.LintRule(cmd.Context(), linter.RuleRequest{
				Path:         pathArg(args),
				StandardSlug: options.standard,
				RuleID:       options.rule,
				Language:     lang,
				Draft:        options.draft,
				DiffMode:     diffMode,
			})
			if err != nil {
				return err
			}
			return report(cmd.OutOrStdout(), format, result)
		},
	}
	options.register(cmd)
	flags := cmd.Flags()
	flags.StringVar(&options.standard, "standard", "", "standard slug")
	flags.StringVar(&options.rule, "rule", "", "rule id")
	flags.StringVar(&options.language, "language", "", "only use programs of this language")
	flags.BoolVar(&options.draft, "draft", false, "use draft detection programs")
	_ = cmd.MarkFlagRequired("standard")
	_ = cmd.MarkFlagRequired("rule")
	return cmd
}
