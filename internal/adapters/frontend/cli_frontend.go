package frontend

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/phishnet/phish-detector/internal/core"
	"github.com/phishnet/phish-detector/internal/dom"
	"go.uber.org/zap"
)

// CLIFrontend runs a single check and prints the verdict
type CLIFrontend struct {
	detector  Detector
	extractor *dom.Extractor
	logger    *zap.Logger
	out       io.Writer

	url      string
	pagePath string
	verbose  bool

	// Result holds the last verdict, nil until Start succeeds
	Result *core.ClassificationResult
}

// NewCLIFrontend creates a new CLI frontend. With an empty pagePath only the
// URL is analyzed; otherwise the saved page at pagePath is analyzed as content.
func NewCLIFrontend(
	detector Detector,
	extractor *dom.Extractor,
	logger *zap.Logger,
	out io.Writer,
	url string,
	pagePath string,
	verbose bool,
) (*CLIFrontend, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("%w: url is required", core.ErrInvalidInput)
	}
	if out == nil {
		out = os.Stdout
	}
	return &CLIFrontend{
		detector:  detector,
		extractor: extractor,
		logger:    logger,
		out:       out,
		url:       url,
		pagePath:  pagePath,
		verbose:   verbose,
	}, nil
}

// Start performs the check
func (f *CLIFrontend) Start() error {
	ctx := context.Background()

	fmt.Fprintf(f.out, "\n=== Target ===\n")
	fmt.Fprintf(f.out, "URL: %s\n", f.url)

	startTime := time.Now()
	var (
		result *core.ClassificationResult
		err    error
	)
	if f.pagePath == "" {
		fmt.Fprintf(f.out, "Mode: %s\n", core.URLAnalysis)
		result, err = f.detector.AnalyzeURL(ctx, f.url)
	} else {
		result, err = f.analyzePage(ctx)
	}
	if err != nil {
		f.logger.Error("Failed to analyze", zap.String("url", f.url), zap.Error(err))
		fmt.Fprintf(f.out, "Error: %v\n", err)
		return err
	}

	f.Result = result
	f.printResult(result, time.Since(startTime))
	return nil
}

// Stop is a no-op for the CLI frontend
func (f *CLIFrontend) Stop() error {
	return nil
}

func (f *CLIFrontend) analyzePage(ctx context.Context) (*core.ClassificationResult, error) {
	raw, err := os.ReadFile(f.pagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read page file: %w", err)
	}
	content := string(raw)

	fmt.Fprintf(f.out, "Mode: %s\n", core.ContentAnalysis)
	fmt.Fprintf(f.out, "Page: %s (%d bytes)\n", f.pagePath, len(raw))

	features, err := f.extractor.Extract(f.url, content)
	if err != nil {
		f.logger.Warn("Failed to derive page features", zap.Error(err))
	} else if f.verbose {
		fmt.Fprintf(f.out, "\n=== Page Features ===\n")
		fmt.Fprintf(f.out, "Forms: %d\n", features.FormCount)
		fmt.Fprintf(f.out, "Password fields: %d\n", features.PasswordFieldCount)
		fmt.Fprintf(f.out, "External links: %d\n", features.ExternalLinkCount)
		fmt.Fprintf(f.out, "Images: %d\n", features.ImageCount)
		fmt.Fprintf(f.out, "Iframes: %d\n", features.IframeCount)
		fmt.Fprintf(f.out, "Login form: %t\n", features.HasLoginForm)
		fmt.Fprintf(f.out, "Logo images: %t\n", features.ContainsLogoImages)
		fmt.Fprintf(f.out, "Secure connection: %t\n", features.IsSecureConnection)
	}

	return f.detector.AnalyzeContent(ctx, f.url, content, features)
}

func (f *CLIFrontend) printResult(result *core.ClassificationResult, elapsed time.Duration) {
	fmt.Fprintf(f.out, "\n=== Results ===\n")
	fmt.Fprintf(f.out, "Is phishing: %t\n", result.IsPhishing)
	fmt.Fprintf(f.out, "Confidence: %d\n", result.ConfidenceScore)
	fmt.Fprintf(f.out, "Risk level: %s\n", result.RiskLevel)
	if result.PossibleTargetBrand != "" {
		fmt.Fprintf(f.out, "Target brand: %s\n", result.PossibleTargetBrand)
	}
	for _, reason := range result.Reasons {
		fmt.Fprintf(f.out, "  - %s\n", reason)
	}
	if result.Recommendation != "" {
		fmt.Fprintf(f.out, "Recommendation: %s\n", result.Recommendation)
	}
	fmt.Fprintf(f.out, "Processing time: %v\n", elapsed)
}
