package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MelomanCat/getaround-project/app"
	coremqtt "github.com/MelomanCat/getaround-project/core/mqtt"
	"github.com/MelomanCat/getaround-project/infra/dataset"
	"github.com/MelomanCat/getaround-project/infra/logger"
)

var trainFlags struct {
	lambda       float64
	testFraction float64
	seed         int64
	json         bool
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Fit the pricing model and register a new version",
	RunE:  runTrain,
}

func init() {
	f := trainCmd.Flags()
	f.Float64Var(&trainFlags.lambda, "lambda", 0, "ridge penalty (overrides training.lambda)")
	f.Float64Var(&trainFlags.testFraction, "test-fraction", 0, "held-out fraction (overrides training.test_fraction)")
	f.Int64Var(&trainFlags.seed, "seed", 0, "split seed (overrides training.seed)")
	f.BoolVar(&trainFlags.json, "json", false, "print the result as JSON")
	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("lambda") {
		cfg.Training.Lambda = trainFlags.lambda
	}
	if flags.Changed("test-fraction") {
		cfg.Training.TestFraction = trainFlags.testFraction
	}
	if flags.Changed("seed") {
		cfg.Training.Seed = trainFlags.seed
	}
	if err := cfg.Training.Validate(); err != nil {
		return fmt.Errorf("training: %w", err)
	}

	sink, err := app.Setup(cfg)
	if err != nil {
		return err
	}
	defer app.CloseSink(sink)

	rows, err := dataset.LoadPricing(cfg.Data.PricingPath)
	if err != nil {
		return err
	}
	reg, err := app.OpenRegistry(cfg.Registry)
	if err != nil {
		return err
	}
	defer func() { _ = reg.Close() }()

	var notifier coremqtt.Notifier = coremqtt.NopNotifier{}
	client, err := app.ConnectMQTT(cfg.MQTT)
	if err != nil {
		return err
	}
	if client != nil {
		defer client.Disconnect()
		notifier = client
	}

	trainer := &app.Trainer{
		Registry:   reg,
		Notifier:   notifier,
		Sink:       sink,
		Log:        logger.New("trainer"),
		ModelName:  cfg.Training.ModelName,
		Experiment: cfg.Training.Experiment,
		Options:    cfg.Training.Options(),
	}
	res, err := trainer.Train(ctx, rows)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if trainFlags.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	_, err = fmt.Fprintf(out, "registered %s version %d (run %s)\ntrain rows %d, test rows %d\nMAE %.3f  RMSE %.3f  R2 %.4f\n",
		res.Model.Name, res.Model.Version, res.Run.ID,
		res.Metrics.TrainRows, res.Metrics.TestRows,
		res.Metrics.MAE, res.Metrics.RMSE, res.Metrics.R2)
	return err
}
