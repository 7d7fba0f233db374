// Package cli implements the one-shot command frontend over the service
// HTTP contract. Each invocation performs a single operation; the bearer
// token obtained by `token` is carried between invocations via the
// AQUAWATCH_TOKEN environment variable.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aquawatch/aquawatch/internal/client/api"
)

const usage = `usage: aquawatch-cli [-s server] <command> [args]

commands:
  register <username>     create an account (prompts for password)
  token <username>        obtain a bearer token (prompts for password)
  predict <file.csv>      score a sample batch
  explain <file.csv>      per-feature attributions for a sample batch
  reports                 list your prediction reports
  report <id>             show one report
  drift                   current drift assessment

authenticated commands read the token from AQUAWATCH_TOKEN.
`

type App struct {
	client *api.Client
	out    io.Writer
}

func NewApp(client *api.Client, out io.Writer) *App {
	return &App{client: client, out: out}
}

// Run dispatches one command. The returned error is the process outcome;
// main turns it into an exit code.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return fmt.Errorf("no command given")
	}

	cmd, rest := args[0], args[1:]

	switch cmd {
	case "register":
		return a.register(ctx, rest)
	case "token":
		return a.token(ctx, rest)
	case "predict":
		return a.predict(ctx, rest)
	case "explain":
		return a.explain(ctx, rest)
	case "reports":
		return a.reports(ctx)
	case "report":
		return a.report(ctx, rest)
	case "drift":
		return a.drift(ctx)
	default:
		fmt.Fprint(a.out, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *App) register(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: register <username>")
	}

	password, err := GetPassword(a.out)
	if err != nil {
		return err
	}

	if err := a.client.Register(ctx, args[0], password); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Registration successful")
	return nil
}

func (a *App) token(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: token <username>")
	}

	password, err := GetPassword(a.out)
	if err != nil {
		return err
	}

	token, err := a.client.Login(ctx, args[0], password)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, token)
	return nil
}

func (a *App) predict(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: predict <file.csv>")
	}

	result, err := a.client.Predict(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%d samples scored: %v\n", result.NumSamples, result.Predictions)
	if result.Persisted {
		fmt.Fprintf(a.out, "report id: %s\n", result.ReportID)
	} else {
		fmt.Fprintln(a.out, "warning: report was not saved")
	}
	return nil
}

func (a *App) explain(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: explain <file.csv>")
	}

	explanations, err := a.client.Explain(ctx, args[0])
	if err != nil {
		return err
	}

	for i, scores := range explanations {
		fmt.Fprintf(a.out, "sample %d: %v\n", i, scores)
	}
	return nil
}

func (a *App) reports(ctx context.Context) error {
	list, err := a.client.Reports(ctx)
	if err != nil {
		return err
	}

	if len(list) == 0 {
		fmt.Fprintln(a.out, "no reports")
		return nil
	}

	for _, r := range list {
		fmt.Fprintf(a.out, "%s  %s  %d samples\n",
			r.CreatedAt.Format("2006-01-02 15:04:05"), r.SourceName, r.SampleCount)
	}
	return nil
}

func (a *App) report(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: report <id>")
	}

	r, err := a.client.Report(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "id:          %s\n", r.ID)
	fmt.Fprintf(a.out, "created:     %s\n", r.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(a.out, "source:      %s\n", r.SourceName)
	fmt.Fprintf(a.out, "samples:     %d\n", r.SampleCount)
	fmt.Fprintf(a.out, "predictions: %v\n", r.Predictions)
	return nil
}

func (a *App) drift(ctx context.Context) error {
	status, err := a.client.Drift(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "drift metric: %.4f (%s)\n", status.DriftMetric, status.Status)
	return nil
}
