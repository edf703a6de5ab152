package commands

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/postport/postport/internal/logger"
	"github.com/postport/postport/pkg/convert"
	"github.com/postport/postport/pkg/images"
)

var convertCmd = &cobra.Command{
	Use:   "convert <url>",
	Short: "Convert one blog post into an HTML fragment",
	Long: `Fetch a blog post, extract its title and article body, download the
images it references, and render an importable HTML fragment.

By default a directory named after the sanitized post title is created
containing <name>.html and an images/ subdirectory. Use -o to write the
fragment to an explicit path, or "-o -" to print it to stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	flags := convertCmd.Flags()

	flags.StringP("output", "o", "", `output file path ("-" for stdout; default: derived post directory)`)
	flags.String("image-mode", string(images.StrategyRewrite), "image handling: rewrite, placeholder")
	flags.String("image-names", string(images.NameSequential), "image filename policy: seq, random")
	flags.String("title-suffix", "", "fixed site suffix to trim from the metadata title")
	flags.String("manifest", "", "write a YAML manifest of the run to this path")
	flags.String("user-agent", "", "override the User-Agent header")
	flags.Duration("timeout", 30*time.Second, "request timeout")

	_ = viper.BindPFlag("image_mode", flags.Lookup("image-mode"))
	_ = viper.BindPFlag("image_names", flags.Lookup("image-names"))
	_ = viper.BindPFlag("title_suffix", flags.Lookup("title-suffix"))
	_ = viper.BindPFlag("user_agent", flags.Lookup("user-agent"))
	_ = viper.BindPFlag("timeout", flags.Lookup("timeout"))
}

func runConvert(cmd *cobra.Command, args []string) error {
	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	outputPath, _ := cmd.Flags().GetString("output")
	manifestPath, _ := cmd.Flags().GetString("manifest")

	job := convert.Job{
		URL:          args[0],
		OutputPath:   outputPath,
		ImageMode:    images.Strategy(viper.GetString("image_mode")),
		ImageNames:   images.NamePolicy(viper.GetString("image_names")),
		TitleSuffix:  viper.GetString("title_suffix"),
		ManifestPath: manifestPath,
		UserAgent:    viper.GetString("user_agent"),
		Timeout:      viper.GetDuration("timeout"),
	}

	c, err := convert.New(job)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return err
	}
	defer func() { _ = c.Close() }()

	if _, err := c.Run(ctx, job); err != nil {
		logger.Error("conversion failed", "url", job.URL, "error", err)
		return err
	}

	return nil
}
