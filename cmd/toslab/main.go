// toslab drives a TOS ledger node through a directory of conformance
// test vectors and reports a verdict per vector.
package main

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/spf13/cobra"
	"github.com/xlab/treeprint"

	"github.com/tos-network/toslab/harness"
	"github.com/tos-network/toslab/log"
	"github.com/tos-network/toslab/results"
	"github.com/tos-network/toslab/vector"
)

const envBaseURL = "TOSLAB_BASE_URL"

var (
	Version = "dev"
	Commit  = "none"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		vectorsDir  string
		baseURL     string
		dump        bool
		pattern     string
		resultsDir  string
		timeout     time.Duration
		tree        bool
		waitHealthy bool
		logLevel    string
	)

	exitCode := 0
	rootCmd := &cobra.Command{
		Use:     "toslab",
		Short:   "TOS node conformance harness",
		Long:    `Runs a corpus of declarative test vectors against a TOS ledger node over HTTP and checks the observed behavior against each vector's expectations.`,
		Version: fmt.Sprintf("%s (%s)", Version, Commit),
		RunE: func(cmd *cobra.Command, args []string) error {
			log.InitLogger(logLevel)
			code, err := runVectors(vectorsDir, baseURL, dump, pattern, resultsDir, timeout, tree, waitHealthy)
			exitCode = code
			return err
		},
		SilenceUsage: true,
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	defaultBase := os.Getenv(envBaseURL)
	if defaultBase == "" {
		defaultBase = "http://127.0.0.1:8080"
	}

	rootCmd.Flags().StringVar(&vectorsDir, "vectors", "", "Directory searched recursively for .json/.yaml/.yml vector files")
	rootCmd.Flags().StringVar(&baseURL, "base-url", defaultBase, "Base URL of the node under test (env "+envBaseURL+")")
	rootCmd.Flags().BoolVar(&dump, "dump", false, "Echo intermediate request/response JSON per vector")
	rootCmd.Flags().StringVar(&pattern, "pattern", "", "Run only vectors whose file/name matches the regex")
	rootCmd.Flags().StringVar(&resultsDir, "results-dir", "", "Write a JSON run record into this directory")
	rootCmd.Flags().DurationVar(&timeout, "timeout", harness.DefaultTimeout, "HTTP request timeout")
	rootCmd.Flags().BoolVar(&tree, "tree", false, "Print the verdicts as a per-file tree after the run")
	rootCmd.Flags().BoolVar(&waitHealthy, "wait-healthy", false, "Wait for the node's /health endpoint before running")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
	_ = rootCmd.MarkFlagRequired("vectors")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "toslab: %v\n", err)
		if exitCode == 0 {
			exitCode = 1
		}
	}
	return exitCode
}

func runVectors(vectorsDir, baseURL string, dump bool, pattern, resultsDir string, timeout time.Duration, tree, waitHealthy bool) (int, error) {
	var re *regexp.Regexp
	if pattern != "" {
		var err error
		re, err = regexp.Compile(pattern)
		if err != nil {
			return 1, fmt.Errorf("bad --pattern: %w", err)
		}
	}

	vectors, err := vector.LoadDir(vectorsDir, func(file string, err error) {
		log.Warn(log.LoaderModule, "skipping malformed fixture file", "file", file, "err", err)
	})
	if err != nil {
		return 1, err
	}
	if len(vectors) == 0 {
		fmt.Fprintln(os.Stderr, "no vectors found")
		return 2, nil
	}

	client := harness.NewHTTPClient(baseURL, timeout)
	if waitHealthy {
		if err := harness.WaitForHealth(client, 20, 500*time.Millisecond); err != nil {
			return 1, err
		}
	}

	start := results.NowRFC3339()
	runner := harness.NewRunner(client, os.Stdout)
	runner.SetDump(dump)
	runner.SetPattern(re)
	verdicts := runner.RunAll(vectors)
	summary := harness.Summarize(verdicts)

	if tree {
		printTree(vectorsDir, verdicts)
	}
	if summary.Failed > 0 {
		fmt.Printf("failures: %d\n", summary.Failed)
	} else {
		fmt.Println("all ok")
	}

	if resultsDir != "" {
		path, err := results.NewWriter(resultsDir).WriteRun(results.RunResult{
			BaseURL:  baseURL,
			Start:    start,
			End:      results.NowRFC3339(),
			Vectors:  verdicts,
			Summary:  summary,
			ExitCode: summary.ExitCode(),
		})
		if err != nil {
			log.Error(log.RunnerModule, "could not write run record", "err", err)
		} else {
			log.Info(log.RunnerModule, "run record written", "path", path)
		}
	}

	return summary.ExitCode(), nil
}

func printTree(root string, verdicts []harness.Verdict) {
	t := treeprint.NewWithRoot(root)
	branches := make(map[string]treeprint.Tree)
	for _, v := range verdicts {
		branch, ok := branches[v.File]
		if !ok {
			branch = t.AddBranch(v.File)
			branches[v.File] = branch
		}
		if v.Reason != "" {
			branch.AddNode(fmt.Sprintf("[%s] %s: %s", v.Status, v.Name, v.Reason))
		} else {
			branch.AddNode(fmt.Sprintf("[%s] %s", v.Status, v.Name))
		}
	}
	fmt.Print(t.String())
}
