package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	dbm "github.com/tendermint/tm-db"

	"github.com/lightvote/lightvote/config"
	"github.com/lightvote/lightvote/libs/cli"
	"github.com/lightvote/lightvote/libs/log"
	"github.com/lightvote/lightvote/light"
	"github.com/lightvote/lightvote/light/provider"
	lhttp "github.com/lightvote/lightvote/light/provider/http"
	dbs "github.com/lightvote/lightvote/light/store/db"
	"github.com/lightvote/lightvote/types"
	"github.com/lightvote/lightvote/vote"
)

const (
	outputText = "text"
	outputJSON = "json"

	progressFlag = "progress"
)

// addClientFlags registers the flags shared by the commands that build a
// verification client. Their defaults come from conf so that a config
// file is only overridden by flags actually set.
func addClientFlags(cmd *cobra.Command, conf *config.Config) {
	cmd.Flags().StringP("rpc.primary", "p", conf.RPC.Primary,
		"JSON-RPC endpoint of the primary node")
	cmd.Flags().StringSliceP("rpc.witnesses", "w", conf.RPC.Witnesses,
		"JSON-RPC endpoints of the witnesses, comma-separated")
	cmd.Flags().Int("verify.slot_count", conf.Verify.SlotCount,
		"number of slots scanned for votes")
	cmd.Flags().String("verify.threshold", conf.Verify.Threshold,
		"share of the total stake needed for finality, in (1/2, 1]")
	cmd.Flags().Int("verify.max_concurrency", conf.Verify.MaxConcurrency,
		"maximum number of blocks fetched at once")
	cmd.Flags().Duration("verify.deadline", conf.Verify.Deadline,
		"deadline of the whole verification (0 for none)")
	cmd.Flags().Bool("verify.skip_header_check", conf.Verify.SkipHeaderCheck,
		"accept headers without checking PoH entries and bank hash")
}

// addOutputFlags registers the flags of the commands printing a result.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().Bool(progressFlag, false, "show a progress bar while scanning votes")
	cmd.Flags().StringP(cli.OutputFlag, "o", outputText, "result format (text | json)")
}

// verifierEnv is a verification client together with the resources that
// have to be released once the command is done.
type verifierEnv struct {
	client  *light.Client
	headers dbm.DB
	metrics *http.Server
	bar     *progressbar.ProgressBar
}

// dialProviders connects to the primary and the witnesses of conf.
var dialProviders = func(conf *config.Config) (provider.Provider, []provider.Provider, error) {
	opts := []lhttp.Option{
		lhttp.Timeout(conf.RPC.Timeout),
		lhttp.MaxRetryAttempts(conf.RPC.MaxRetryAttempts),
		lhttp.Commitment(conf.RPC.Commitment),
	}
	primary, err := lhttp.New(conf.RPC.Primary, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("primary: %w", err)
	}
	witnesses := make([]provider.Provider, 0, len(conf.RPC.Witnesses))
	for _, addr := range conf.RPC.Witnesses {
		w, err := lhttp.New(addr, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("witness %s: %w", addr, err)
		}
		witnesses = append(witnesses, w)
	}
	return primary, witnesses, nil
}

// newVerifierEnv builds the providers, the header store and the client
// described by conf.
func newVerifierEnv(cmd *cobra.Command, conf *config.Config, logger log.Logger) (*verifierEnv, error) {
	primary, witnesses, err := dialProviders(conf)
	if err != nil {
		return nil, err
	}

	threshold, err := conf.Verify.ThresholdFraction()
	if err != nil {
		return nil, err
	}

	headers, err := dbm.NewDB("headers", dbm.BackendType(conf.DBBackend), conf.DBDir())
	if err != nil {
		return nil, fmt.Errorf("can't open the header store: %w", err)
	}
	env := &verifierEnv{headers: headers}
	headerStore := dbs.New(headers)
	if first, ok, err := headerStore.FirstSlot(); err == nil && ok {
		last, _, _ := headerStore.LastSlot()
		logger.Debug("Opened header store", "first", first, "last", last, "size", headerStore.Size())
	}

	options := []light.Option{
		light.Logger(logger),
		light.Threshold(threshold),
		light.SlotCount(conf.Verify.SlotCount),
		light.MaxConcurrency(conf.Verify.MaxConcurrency),
		light.PollInterval(conf.Verify.PollInterval),
		light.DecoderOptions(vote.WithSignatureVerification(conf.Verify.VerifySignatures)),
		light.HeaderStore(headerStore),
		light.PruningSize(conf.Verify.PruningSize),
	}
	if conf.Verify.SkipHeaderCheck {
		logger.Info("WARNING: headers are not checked against their PoH entries")
		options = append(options, light.SkipHeaderCheck())
	}

	if conf.Instrumentation.Prometheus {
		options = append(options, light.WithMetrics(light.PrometheusMetrics(conf.Instrumentation.Namespace)))
		env.metrics = startPrometheusServer(conf.Instrumentation.PrometheusListenAddr, logger)
	}

	showProgress, _ := cmd.Flags().GetBool(progressFlag)
	if showProgress {
		options = append(options, light.OnSlotScanned(func(types.Slot) {
			_ = env.bar.Add(1)
		}))
	}

	env.client, err = light.NewClient(primary, witnesses, options...)
	if err != nil {
		_ = env.Close()
		return nil, err
	}
	logger.Info("Light client ready", "primary", env.client.Primary(), "witnesses", len(env.client.Witnesses()),
		"threshold", env.client.Threshold(), "slots", env.client.SlotCount())

	if showProgress {
		env.bar = progressbar.NewOptions(env.client.SlotCount(),
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionSetDescription("scanning slots"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}
	return env, nil
}

// withDeadline bounds ctx by the configured verification deadline.
func withDeadline(ctx context.Context, conf *config.Config) (context.Context, context.CancelFunc) {
	if conf.Verify.Deadline > 0 {
		return context.WithTimeout(ctx, conf.Verify.Deadline)
	}
	return context.WithCancel(ctx)
}

// Close releases the header store and stops the metrics server.
func (env *verifierEnv) Close() error {
	if env.bar != nil {
		_ = env.bar.Finish()
	}
	var errs []error
	if env.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		errs = append(errs, env.metrics.Shutdown(ctx))
	}
	errs = append(errs, env.headers.Close())
	return errors.Join(errs...)
}

// startPrometheusServer starts a Prometheus HTTP server, listening for
// metrics collectors on addr.
func startPrometheusServer(addr string, logger log.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			// Error starting or closing listener:
			logger.Error("Prometheus HTTP server ListenAndServe", "err", err)
		}
	}()
	return srv
}
