package writer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	testclock "k8s.io/utils/clock/testing"
	"k8s.io/utils/exec"
	testingexec "k8s.io/utils/exec/testing"

	"github.com/thoreinstein/cback/internal/logging"
	"github.com/thoreinstein/cback/internal/process"
)

// step is one scripted external command.
type step struct {
	output string
	exit   int
	// hook runs with the full argv when the command executes.
	hook func(argv []string)
}

func ok(output ...string) step {
	return step{output: strings.Join(output, "\n")}
}

func fail(exit int, output ...string) step {
	return step{exit: exit, output: strings.Join(output, "\n")}
}

// harness wires a fake process backend and clock into writer options.
type harness struct {
	t     *testing.T
	exec  *testingexec.FakeExec
	cmds  []*testingexec.FakeCmd
	clock *testclock.FakeClock
}

func newHarness(t *testing.T, steps ...step) *harness {
	t.Helper()
	h := &harness{
		t:     t,
		clock: testclock.NewFakeClock(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)),
	}
	h.exec = &testingexec.FakeExec{
		LookPathFunc: func(file string) (string, error) { return file, nil },
	}
	for _, s := range steps {
		h.exec.CommandScript = append(h.exec.CommandScript, h.action(s))
	}
	return h
}

func (h *harness) action(s step) testingexec.FakeCommandAction {
	return func(cmd string, args ...string) exec.Cmd {
		fc := &testingexec.FakeCmd{}
		run := func() ([]byte, []byte, error) {
			if s.hook != nil {
				s.hook(fc.Argv)
			}
			var err error
			if s.exit != 0 {
				err = &exec.CodeExitError{Err: errors.Newf("exit status %d", s.exit), Code: s.exit}
			}
			return []byte(s.output), nil, err
		}
		fc.CombinedOutputScript = []testingexec.FakeAction{run}
		fc.OutputScript = []testingexec.FakeAction{run}
		h.cmds = append(h.cmds, fc)
		return testingexec.InitFakeCmd(fc, cmd, args...)
	}
}

func (h *harness) options(extra ...Option) []Option {
	runner := process.NewExecutor(process.WithExec(h.exec), process.WithLogger(logging.ForTest(h.t)))
	opts := []Option{
		WithRunner(runner),
		WithClock(h.clock),
		WithLogger(logging.ForTest(h.t)),
	}
	return append(opts, extra...)
}

// argv returns the command lines executed so far.
func (h *harness) argv() [][]string {
	out := make([][]string, 0, len(h.cmds))
	for _, c := range h.cmds {
		out = append(out, c.Argv)
	}
	return out
}

func (h *harness) calls() int {
	return h.exec.CommandCalls
}

// fakeDevice creates a writable file standing in for a device node.
func fakeDevice(t *testing.T) string {
	t.Helper()
	dev := filepath.Join(t.TempDir(), "cdrw")
	require.NoError(t, os.WriteFile(dev, nil, 0o600))
	return dev
}

func stagedDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "stage")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.tar.gz"), []byte("x"), 0o644))
	return dir
}

func intPtr(v int) *int { return &v }

// prcapFull reports a multisession drive with an ejectable tray.
var prcapFull = []string{
	"Device type    : Removable CD-ROM",
	"Vendor_info    : 'SONY    '",
	"Identifikation : 'CD-RW  CRX140E '",
	"  Does read multi-session CDs",
	"  Loading mechanism type: tray",
	"  Does support ejection of CD via START/STOP command",
	"  Buffer size in KB: 4096",
}
