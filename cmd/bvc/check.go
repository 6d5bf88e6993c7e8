package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/obentoo/bvc/internal/buildout"
	"github.com/obentoo/bvc/internal/checker"
	"github.com/obentoo/bvc/internal/common/config"
	"github.com/obentoo/bvc/internal/common/logger"
	"github.com/obentoo/bvc/internal/common/output"
	"github.com/obentoo/bvc/internal/common/version"
	"github.com/obentoo/bvc/internal/index"
	"github.com/spf13/cobra"
)

// DefaultSource is the buildout file read when none is given
const DefaultSource = "versions.cfg"

var (
	// checkPre allows pre-releases and development versions
	checkPre bool
	// checkSpecifiers holds repeated "package:specifier" values
	checkSpecifiers []string
	// checkIncludes adds packages to check
	checkIncludes []string
	// checkExcludes skips packages by name or pattern
	checkExcludes []string
	// checkPolicy selects the policy file
	checkPolicy string
	// checkWrite writes the updates into the source
	checkWrite bool
	// checkWriter holds --indent and --sorting
	checkWriter writerFlags
	// checkServiceURL overrides the index location
	checkServiceURL string
	// checkIndex selects the index kind
	checkIndex string
	// checkTimeout bounds each lookup, in seconds
	checkTimeout int
	// checkThreads bounds concurrent lookups
	checkThreads int
	// checkNoCache bypasses the release cache
	checkNoCache bool
)

var checkCmd = &cobra.Command{
	Use:   "check [source]",
	Short: "Check available updates of pinned versions",
	Long: `Check available updates from the [versions] section of a buildout file
(default: versions.cfg) on a package index.

Examples:
  bvc check                                     Check versions.cfg on PyPI
  bvc check buildout.cfg --pre                  Allow pre-releases and development versions
  bvc check -s "Django:>=1.4,<1.5" -s "pytz:<2014"  Restrict acceptable versions
  bvc check -i zc.buildout -e "collective.*"    Include and exclude packages
  bvc check -w --indent auto --sorting alpha    Write the updates in the source file
  bvc check --index simple --service-url https://pypi.org/simple`,
	Args: cobra.MaximumNArgs(1),
	Run:  runCheck,
}

func init() {
	flags := checkCmd.Flags()
	flags.BoolVar(&checkPre, "pre", false, "Allow pre-releases and development versions (by default only stable versions are found)")
	flags.StringArrayVarP(&checkSpecifiers, "specifier", "s", nil, `Describe what versions of a package are acceptable, e.g. "package:>=1.0,!=1.3.4.*,< 2.0" (can be used multiple times)`)
	flags.StringArrayVarP(&checkIncludes, "include", "i", nil, "Include package when checking updates (can be used multiple times)")
	flags.StringArrayVarP(&checkExcludes, "exclude", "e", nil, "Exclude package or pattern when checking updates (can be used multiple times)")
	flags.StringVar(&checkPolicy, "policy", "", "Policy file with specifiers, includes and excludes (default: bvc.toml next to the source)")
	flags.BoolVarP(&checkWrite, "write", "w", false, "Write the updates in the source file")
	checkWriter.register(flags)
	completeWriterFlags(checkCmd)
	flags.StringVar(&checkServiceURL, "service-url", "", "The service to use for checking the packages (default: "+config.DefaultServiceURL+")")
	flags.StringVar(&checkIndex, "index", "", "Index kind: json, simple or find-links (default: json)")
	flags.IntVar(&checkTimeout, "timeout", 0, "Timeout for each request in seconds (default: 10)")
	flags.IntVarP(&checkThreads, "threads", "t", 0, "Threads used for checking the versions in parallel (default: 10)")
	flags.BoolVar(&checkNoCache, "no-cache", false, "Ignore the release cache")

	checkCmd.RegisterFlagCompletionFunc("index", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return index.Kinds(), cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(checkCmd)
}

// checkOptions are the resolved settings of a check run
type checkOptions struct {
	source         string
	specifiers     map[string]string
	includes       []string
	excludes       []string
	prereleases    bool
	policyPath     string
	policyExplicit bool
	write          bool
	writer         *buildout.Writer

	indexKind         string
	serviceURL        string
	timeout           time.Duration
	threads           int
	requestsPerSecond float64
	userAgent         string
	cacheDir          string
	cacheTTL          time.Duration
}

func runCheck(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	opts, err := newCheckOptions(cmd, args, cfg)
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}

	if err := executeCheck(cmd.Context(), opts, reporter()); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

// newCheckOptions merges the flags over the configuration. Command line
// values are validated here, before any file or network access.
func newCheckOptions(cmd *cobra.Command, args []string, cfg *config.Config) (*checkOptions, error) {
	flags := cmd.Flags()

	opts := &checkOptions{
		source:            sourceArg(args),
		specifiers:        make(map[string]string),
		includes:          checkIncludes,
		excludes:          checkExcludes,
		prereleases:       checkPre,
		write:             checkWrite,
		indexKind:         cfg.Index.Kind,
		serviceURL:        cfg.Index.ServiceURL,
		timeout:           cfg.Index.Timeout(),
		threads:           cfg.Index.Threads,
		requestsPerSecond: cfg.Index.RequestsPerSecond,
		userAgent:         cfg.Index.UserAgent,
		cacheTTL:          cfg.Index.CacheTTL(),
	}

	for _, value := range checkSpecifiers {
		name, spec, err := checker.ParseSpecifierArg(value)
		if err != nil {
			return nil, fmt.Errorf("argument -s/--specifier: %w", err)
		}
		opts.specifiers[name] = spec
	}

	validator := checker.NewPatternValidator()
	for _, pattern := range checkExcludes {
		if err := validator.Validate(pattern); err != nil {
			return nil, fmt.Errorf("argument -e/--exclude: %w", err)
		}
	}

	if flags.Changed("policy") {
		opts.policyPath = checkPolicy
		opts.policyExplicit = true
	} else if cfg.Policy != "" {
		opts.policyPath = cfg.Policy
		if !filepath.IsAbs(cfg.Policy) {
			opts.policyPath = filepath.Join(filepath.Dir(opts.source), cfg.Policy)
		}
	}

	writer, err := checkWriter.writer(flags, cfg.Writer.Indent, cfg.Writer.Sorting)
	if err != nil {
		return nil, err
	}
	opts.writer = writer

	if flags.Changed("index") {
		opts.indexKind = checkIndex
	}
	if flags.Changed("service-url") {
		opts.serviceURL = checkServiceURL
	}
	if flags.Changed("timeout") {
		if checkTimeout <= 0 {
			return nil, fmt.Errorf("argument --timeout: must be positive, got %d", checkTimeout)
		}
		opts.timeout = time.Duration(checkTimeout) * time.Second
	}
	if flags.Changed("threads") {
		opts.threads = checkThreads
	}
	if opts.userAgent == "" {
		opts.userAgent = version.UserAgent()
	}

	if checkNoCache {
		opts.cacheTTL = 0
	}
	if opts.cacheTTL > 0 {
		dir, err := config.CacheDir()
		if err != nil {
			logger.Warn("Release cache disabled: %v", err)
			opts.cacheTTL = 0
		}
		opts.cacheDir = dir
	}

	return opts, nil
}

// sourceArg returns the positional source or DefaultSource
func sourceArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return DefaultSource
}

// newTransport keeps one idle connection per lookup thread, so concurrent
// lookups against a single index host reuse their connections. Proxies come
// from the environment.
func newTransport(threads int) *http.Transport {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if threads > transport.MaxIdleConnsPerHost {
		transport.MaxIdleConnsPerHost = threads
	}
	return transport
}

// newFetcher builds the index fetcher described by opts. The HTTP client is
// returned for its retry count.
func newFetcher(opts *checkOptions) (*index.Fetcher, *index.RetryableHTTPClient, error) {
	client := index.NewRetryableHTTPClient(
		index.WithHTTPClient(&http.Client{Transport: newTransport(opts.threads)}),
		index.WithRequestsPerSecond(opts.requestsPerSecond),
		index.WithUserAgent(opts.userAgent),
	)

	source, err := index.NewSource(opts.indexKind, opts.serviceURL, client)
	if err != nil {
		return nil, nil, err
	}

	fetcherOpts := []index.FetcherOption{
		index.WithTimeout(opts.timeout),
		index.WithThreads(opts.threads),
	}
	if opts.cacheTTL > 0 {
		cache, err := index.NewCache(opts.cacheDir, opts.cacheTTL)
		if err != nil {
			logger.Warn("Release cache disabled: %v", err)
		} else {
			fetcherOpts = append(fetcherOpts, index.WithCache(cache))
		}
	}

	return index.NewFetcher(source, fetcherOpts...), client, nil
}

// executeCheck runs the check, prints the updates and optionally writes them.
func executeCheck(ctx context.Context, opts *checkOptions, report *output.Reporter) error {
	policy := &checker.Policy{}
	if opts.policyPath != "" {
		loaded, err := checker.LoadPolicy(opts.policyPath, opts.policyExplicit)
		if err != nil {
			return err
		}
		policy = loaded
	}
	specifiers, includes, excludes := policy.Merge(opts.specifiers, opts.includes, opts.excludes)

	fetcher, client, err := newFetcher(opts)
	if err != nil {
		return err
	}

	c := checker.NewVersionsChecker(fetcher,
		checker.WithSpecifiers(specifiers),
		checker.WithPrereleases(opts.prereleases),
		checker.WithIncludes(includes),
		checker.WithExcludes(excludes),
	)

	result, err := c.Check(ctx, opts.source)
	if retries := client.Retries(); retries > 0 {
		logger.Debug("%d index requests retried", retries)
	}
	if err != nil {
		return err
	}
	if len(result.Updates) == 0 {
		return nil
	}

	width := reportWidth(opts.writer, result.Updates.Names())
	report.Section(checker.VersionsSection)
	for _, pin := range result.Updates {
		report.Pin(pin.Name, pin.Version, width)
	}

	if !opts.write {
		return nil
	}

	doc, err := checker.LoadDocument(opts.source)
	if err != nil {
		return err
	}
	checker.ApplyUpdates(doc, result.Updates)
	if err := opts.writer.WriteFile(opts.source, doc); err != nil {
		return err
	}
	logger.Info("- %s updated.", opts.source)
	return nil
}

// reportWidth is the key column width of printed pins. In auto mode it fits
// the printed names.
func reportWidth(w *buildout.Writer, names []string) int {
	if w.Indentation != buildout.AutoIndentation {
		return w.Indentation
	}
	width, err := buildout.PerfectIndentation(names, buildout.DefaultRounding)
	if err != nil {
		return 0
	}
	return width
}
