package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ishitcode/hire/internal/client"
	"github.com/ishitcode/hire/internal/interview"
	"github.com/ishitcode/hire/internal/logger"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <transcript-file>",
	Short: "Evaluate a transcript file, one utterance per line (use - for stdin)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		evaluate(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringP("summary", "s", "", "candidate summary used for the evaluation")
	evaluateCmd.Flags().StringP("phone", "p", "", "candidate phone number for the sms notification")
	evaluateCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation")
}

func evaluate(cmd *cobra.Command, path string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(logger.Config{
		JSON:    viper.GetBool("json"),
		Debug:   viper.GetBool("debug"),
		Command: "evaluate",
		Version: version,
	})
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	transcript, err := readTranscript(path)
	if err != nil {
		logger.Fatal("reading transcript", zap.Error(err))
	}

	summary, _ := cmd.Flags().GetString("summary")
	if summary == "" {
		summary = config.Interview.Summary
	}
	phone, _ := cmd.Flags().GetString("phone")

	builder := interview.NewBuilder(nil, config.Interview.DefaultSummary)
	req, err := builder.Build(transcript, summary, phone)
	if err != nil {
		logger.Fatal("building evaluation request", zap.Error(err))
	}

	logger.Info("evaluation request built",
		zap.Int("turns", len(req.Conversation)),
		zap.String("summary", req.Summary),
	)

	autoApprove := cmd.Flag("auto-approve").Value.String() == "true"
	ok, err := confirm(fmt.Sprintf("Submit %d turns for evaluation?", len(req.Conversation)), autoApprove)
	if err != nil {
		logger.Fatal("exiting", zap.Error(err))
	}
	if !ok {
		logger.Info("exiting", zap.String("reason", "got no from prompt"))
		return
	}

	api, err := client.New(config.API.BaseURL, config.API.Timeout, logger.Named("client"))
	if err != nil {
		logger.Fatal("creating an api client", zap.Error(err))
	}

	result, err := api.Evaluate(ctx, req)
	if err != nil {
		logger.Fatal("evaluating transcript", zap.Error(err))
	}

	logger.Info("interview evaluated", zap.String("decision", result.FinalDecision.Decision))
	printResult(result)
}

func readTranscript(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
