package infer

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"
)

// procTransport shells out to the runtime CLI. Generation runs
// `ollama run <model>` with the prompt on stdin; the probe runs
// `ollama list`, which doubles as the model listing.
type procTransport struct {
	bin          string
	genTimeout   time.Duration
	probeTimeout time.Duration
}

func newProcTransport(bin string, genTimeout, probeTimeout time.Duration) *procTransport {
	if bin == "" {
		bin = DefaultBinary
	}
	if genTimeout <= 0 {
		genTimeout = DefaultGenTimeout
	}
	if probeTimeout <= 0 {
		probeTimeout = DefaultProcProbeTimeout
	}
	return &procTransport{bin: bin, genTimeout: genTimeout, probeTimeout: probeTimeout}
}

func (t *procTransport) Name() string { return TransportProcess }

func (t *procTransport) Healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, t.probeTimeout)
	defer cancel()
	return exec.CommandContext(ctx, t.bin, "list").Run() == nil
}

func (t *procTransport) Generate(ctx context.Context, model, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.genTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.bin, "run", model)
	cmd.Stdin = strings.NewReader(prompt)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		return "", t.classify(ctx, err, stderr.String())
	}
	return strings.TrimSpace(stdout.String()), nil
}

func (t *procTransport) ListModels(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.bin, "list")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, t.classify(ctx, err, stderr.String())
	}
	return parseModelList(stdout.String()), nil
}

// classify maps a subprocess failure onto the transport error kinds.
func (t *procTransport) classify(ctx context.Context, err error, stderr string) error {
	if errors.Is(err, exec.ErrNotFound) {
		return &NotInstalledError{Bin: t.bin}
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{Transport: TransportProcess, Err: err}
	}
	return &TransportError{Transport: TransportProcess, Detail: truncateDetail(strings.TrimSpace(stderr)), Err: err}
}

// parseModelList extracts the first column of `ollama list` output,
// skipping the NAME header.
func parseModelList(out string) []string {
	var names []string
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 || fields[0] == "NAME" {
			continue
		}
		names = append(names, fields[0])
	}
	return names
}
