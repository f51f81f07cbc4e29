package commands

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"k8s.io/utils/clock"

	"github.com/thoreinstein/cback/internal/cli/prompt"
	"github.com/thoreinstein/cback/internal/config"
	clierrors "github.com/thoreinstein/cback/internal/errors"
	"github.com/thoreinstein/cback/internal/logging"
	"github.com/thoreinstein/cback/internal/media"
	"github.com/thoreinstein/cback/internal/medialabel"
	"github.com/thoreinstein/cback/internal/process"
	"github.com/thoreinstein/cback/internal/store"
	"github.com/thoreinstein/cback/internal/writer"
)

// newWriter builds the writer for the configured drive. Tests replace it
// with one returning a mock.
var newWriter = func(ctx context.Context, cfg *config.Config) (writer.Writer, error) {
	wcfg, err := cfg.Store.WriterConfig()
	if err != nil {
		return nil, err
	}
	logger := logging.FromContext(ctx)
	exec := process.NewExecutor(
		process.WithOverrides(cfg.Commands),
		process.WithLogger(logger),
	)
	return writer.New(ctx, cfg.Store.DeviceType, wcfg,
		writer.WithRunner(exec),
		writer.WithLogger(logger),
	)
}

// appClock dates media labels, decides the start of the week and stamps
// doctor reports.
var appClock clock.PassiveClock = clock.RealClock{}

func timeNow() time.Time {
	return appClock.Now()
}

// requireConfig returns the loaded configuration, failing when it could not
// be read or does not validate.
func requireConfig() (*config.Config, error) {
	if configLoadErr != nil {
		return nil, clierrors.NewConfigError(configLoadErr)
	}
	cfg := loadedConfig
	if cfg == nil {
		cfg = config.Default()
	}
	if errs := config.Validate(cfg); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, err := range errs {
			msgs[i] = err.Error()
		}
		return nil, clierrors.NewConfigError(
			errors.Wrap(clierrors.ErrInvalidConfig, strings.Join(msgs, "; ")))
	}
	return cfg, nil
}

// openWriter loads the configuration and builds a writer for its drive.
func openWriter(cmd *cobra.Command) (*config.Config, writer.Writer, error) {
	cfg, err := requireConfig()
	if err != nil {
		return nil, nil, err
	}
	w, err := newWriter(commandContext(cmd), cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, w, nil
}

// commandContext returns the command context, which carries the logger set
// up by the root command.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// classify converts an error into an ExitError carrying the exit status and
// a suggestion for the user.
func classify(err error) error {
	var exitErr *clierrors.ExitError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &exitErr):
		return err
	case errors.Is(err, errDoctorErrors):
		return clierrors.NewExitError(err, clierrors.ExitSystem)
	case errors.Is(err, errDoctorWarnings):
		return clierrors.NewExitError(err, clierrors.ExitUser)
	case errors.Is(err, writer.ErrCapacityExceeded):
		return clierrors.NewCapacityError(err)
	case errors.Is(err, medialabel.ErrNotInitialized):
		return clierrors.NewUserError(err, "Run: cback media init")
	case errors.Is(err, store.ErrNotRewritable):
		return clierrors.NewUserError(err, "Only rewritable media ("+mediaTypeNames(true)+") can be initialized")
	case errors.Is(err, writer.ErrConfiguration):
		return clierrors.NewConfigError(err)
	case errors.Is(err, writer.ErrDeviceIO):
		return clierrors.NewDeviceError(err)
	}
	return clierrors.NewUserError(err, "")
}

// boolWord renders b as yes or no.
func boolWord(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// newSelector returns a prompt reading from the command input. Commands
// attached to the real terminal get the interactive selector.
func newSelector(cmd *cobra.Command) *prompt.Selector {
	if cmd.InOrStdin() == os.Stdin {
		return prompt.NewSelector()
	}
	return prompt.NewSelectorWithIO(cmd.InOrStdin(), cmd.OutOrStdout())
}

// mediaTypeNames lists the supported media types, or only the rewritable
// ones.
func mediaTypeNames(rewritableOnly bool) string {
	var names []string
	for _, t := range media.Types() {
		p, err := media.NewProfile(t)
		if err != nil || (rewritableOnly && !p.Rewritable()) {
			continue
		}
		names = append(names, t.String())
	}
	return strings.Join(names, ", ")
}
