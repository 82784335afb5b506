package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coinlens/coinlens/internal/estimate"
	"github.com/coinlens/coinlens/internal/imaging"
	"github.com/coinlens/coinlens/internal/observability"
	"github.com/coinlens/coinlens/internal/output"
)

type estimateFlags struct {
	coinType     string
	mintYear     string
	condition    string
	imagePath    string
	imageDataURI string
}

var estimateOpts estimateFlags

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate a coin's collector value",
	Long: `Estimate a coin's collector value from its type and mint year.

Add --condition for a grade hint and --image (a file) or --image-data-uri
to let the model inspect a photo. One model call is made per run.`,
	Example: `  coinlens estimate --type "Lincoln Penny" --year 1909
  coinlens estimate --type "Morgan Dollar" --year 1921 --condition "Very Fine" -o markdown
  coinlens estimate --type "Buffalo Nickel" --year 1937 --image ./nickel.jpg`,
	Args: cobra.NoArgs,
	RunE: runEstimate,
}

func runEstimate(cmd *cobra.Command, args []string) error {
	format, err := resolveOutputFormat(cmd)
	if err != nil {
		return err
	}
	if estimateOpts.imagePath != "" && estimateOpts.imageDataURI != "" {
		return fmt.Errorf("--image and --image-data-uri are mutually exclusive")
	}

	ctx := cmd.Context()
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	stack, err := buildEstimationStack(cfg, observability.CLILogger)
	if err != nil {
		return err
	}

	attrs := estimate.AttributeInput{
		CoinType:  estimateOpts.coinType,
		MintYear:  estimate.YearText(estimateOpts.mintYear),
		Condition: estimateOpts.condition,
	}

	dataURI := strings.TrimSpace(estimateOpts.imageDataURI)
	if estimateOpts.imagePath != "" {
		dataURI, err = loadPhoto(estimateOpts.imagePath, cfg.Estimate.MaxImageEdge, cfg.Estimate.MaxImagePixels)
		if err != nil {
			return err
		}
	}

	var result *estimate.EstimationResult
	if dataURI != "" {
		result, err = stack.Estimate.EstimateByImage(ctx, estimate.ImageInput{AttributeInput: attrs, Image: dataURI})
	} else {
		result, err = stack.Estimate.EstimateByAttributes(ctx, attrs)
	}
	if err != nil {
		logEstimateFailure(err)
		return err
	}

	rendered, err := output.NewFormatter(format).FormatEstimate(&output.Estimate{
		CoinType:  strings.TrimSpace(attrs.CoinType),
		MintYear:  string(attrs.MintYear),
		Condition: attrs.Condition,
		WithImage: dataURI != "",
		Result:    result,
	})
	if err != nil {
		return err
	}
	return writeOutput(cmd, rendered)
}

// loadPhoto reads an image file and prepares it as a JPEG data URI.
func loadPhoto(path string, maxEdge, maxPixels int) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	prepared, err := imaging.Prepare(data, maxEdge, maxPixels)
	if err != nil {
		return "", &estimate.ValidationError{Violations: []estimate.SchemaViolation{{
			Field:      "image",
			Constraint: imaging.Constraint(err),
			Message:    err.Error(),
		}}}
	}
	if observability.CLILogger != nil {
		observability.CLILogger.Debug("Prepared photo",
			zap.String("path", path),
			zap.String("source_mime", prepared.SourceMIME),
			zap.Int("width", prepared.Width),
			zap.Int("height", prepared.Height),
			zap.Int("bytes", prepared.Bytes))
	}
	return prepared.DataURI, nil
}

// logEstimateFailure logs diagnostic detail the error message leaves out.
func logEstimateFailure(err error) {
	if observability.CLILogger == nil {
		return
	}
	var failed *estimate.EstimationFailed
	if !errors.As(err, &failed) {
		return
	}
	fields := []zap.Field{
		zap.String("stage", string(failed.Stage)),
		zap.String("code", failed.Code),
	}
	if len(failed.Violations) > 0 {
		fields = append(fields, zap.Any("violations", failed.Violations))
	}
	if len(failed.Raw) > 0 {
		fields = append(fields, zap.ByteString("raw", failed.Raw))
	}
	observability.CLILogger.Debug("Estimation failed", fields...)
}

func init() {
	rootCmd.AddCommand(estimateCmd)

	estimateCmd.Flags().StringVarP(&estimateOpts.coinType, "type", "t", "", "coin type, e.g. \"Lincoln Penny\" (required)")
	estimateCmd.Flags().StringVarP(&estimateOpts.mintYear, "year", "y", "", "four-digit mint year (required)")
	estimateCmd.Flags().StringVarP(&estimateOpts.condition, "condition", "c", "", "condition: Mint, Very Fine, Fine, Good, Poor")
	estimateCmd.Flags().StringVar(&estimateOpts.imagePath, "image", "", "photo file (jpeg, png, gif, webp)")
	estimateCmd.Flags().StringVar(&estimateOpts.imageDataURI, "image-data-uri", "", "photo as a data:image/...;base64 URI")
	addOutputFlags(estimateCmd)
}
