package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ishitcode/hire/internal/client"
	"github.com/ishitcode/hire/internal/evaluation"
	"github.com/ishitcode/hire/internal/interview"
	"github.com/ishitcode/hire/internal/logger"
	"github.com/ishitcode/hire/internal/session"
)

var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Place or follow an interview call and evaluate it once it completes",
	Run: func(cmd *cobra.Command, _ []string) {
		runInterview(cmd)
	},
}

func init() {
	rootCmd.AddCommand(interviewCmd)

	interviewCmd.Flags().StringP("phone", "p", "", "candidate phone number in E.164 format; places a new call unless --call-id is set")
	interviewCmd.Flags().StringP("summary", "s", "", "candidate summary used for the evaluation")
	interviewCmd.Flags().String("job-role", "", "job role the candidate is interviewed for")
	interviewCmd.Flags().String("call-id", "", "follow an existing call instead of the server's active one")
	interviewCmd.Flags().Duration("interval", session.DefaultInterval, "call status polling interval")
	interviewCmd.Flags().Int("max-retries", session.DefaultMaxRetries, "status checks before giving up")
	interviewCmd.Flags().String("save-recording", "", "directory to download the call recording to")
	interviewCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation")

	viper.BindPFlag("interview.phone-number", interviewCmd.Flags().Lookup("phone"))
	viper.BindPFlag("interview.summary", interviewCmd.Flags().Lookup("summary"))
	viper.BindPFlag("interview.call-id", interviewCmd.Flags().Lookup("call-id"))
	viper.BindPFlag("interview.interval", interviewCmd.Flags().Lookup("interval"))
	viper.BindPFlag("interview.max-retries", interviewCmd.Flags().Lookup("max-retries"))
}

func runInterview(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(logger.Config{
		JSON:    viper.GetBool("json"),
		Debug:   viper.GetBool("debug"),
		Command: "interview",
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

	api, err := client.New(config.API.BaseURL, config.API.Timeout, logger.Named("client"))
	if err != nil {
		logger.Fatal("creating an api client", zap.Error(err))
	}

	autoApprove := cmd.Flag("auto-approve").Value.String() == "true"
	cfg := config.Interview

	if cfg.CallID == "" && cfg.PhoneNumber != "" {
		ok, err := confirm(fmt.Sprintf("Place an interview call to %s?", cfg.PhoneNumber), autoApprove)
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
		if !ok {
			logger.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}

		jobRole, _ := cmd.Flags().GetString("job-role")
		report, err := api.PlaceCall(ctx, cfg.PhoneNumber, cfg.Summary, jobRole)
		if err != nil {
			logger.Fatal("placing the interview call", zap.Error(err))
		}
		cfg.CallID = report.CallID
		logger.Info("interview call placed", zap.String("call_id", report.CallID))
	}

	s := session.New(api, cfg, logger.Named("session"), session.WithObserver(progressLogger(logger)))
	defer s.Close()

	s.Monitor(ctx)

	for {
		select {
		case <-ctx.Done():
			logger.Info("exiting", zap.String("reason", "interrupted"))
			return
		case <-s.Done():
		}

		st := s.Snapshot()
		if st.Status == interview.StatusFailed {
			logger.Fatal("interview call failed", zap.String("error", st.Error))
		}

		if st.Processing == session.ProcessingDone {
			saveRecording(ctx, cmd, api, st, logger)
			printResult(st.Result)
			return
		}

		if st.Processing != session.ProcessingError || autoApprove {
			logger.Fatal("interview processing failed", zap.String("error", st.Error))
		}

		retry, err := confirm(fmt.Sprintf("Processing failed (%s). Retry?", st.Error), false)
		if err != nil || !retry {
			logger.Info("exiting", zap.String("reason", "processing not retried"))
			return
		}

		if err := s.Retry(ctx); err != nil {
			logger.Warn("retry failed", zap.Error(err))
		}
	}
}

// progressLogger logs status and processing transitions.
func progressLogger(log *zap.Logger) func(session.State) {
	var last session.State
	return func(st session.State) {
		if st.Status != last.Status {
			log.Info("call status", zap.String("status", string(st.Status)), zap.Int("checks", st.RetryCount))
		}
		if st.Processing != last.Processing && st.Processing != session.ProcessingIdle {
			log.Info("processing", zap.String("state", string(st.Processing)))
		}
		last = st
	}
}

func saveRecording(ctx context.Context, cmd *cobra.Command, api *client.Client, st session.State, log *zap.Logger) {
	dir, _ := cmd.Flags().GetString("save-recording")
	if dir == "" {
		return
	}
	if st.RecordingFile == "" {
		log.Warn("no recording available for this call")
		return
	}

	path := filepath.Join(dir, filepath.Base(st.RecordingFile))
	f, err := os.Create(path)
	if err != nil {
		log.Error("creating recording file", zap.Error(err))
		return
	}
	defer f.Close()

	n, err := api.DownloadRecording(ctx, st.RecordingFile, f)
	if err != nil {
		log.Error("downloading recording", zap.Error(err))
		return
	}
	log.Info("recording saved", zap.String("path", path), zap.Int64("bytes", n))
}

func printResult(result *evaluation.Result) {
	pretty, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(pretty))
}
