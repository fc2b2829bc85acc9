// Package driver runs one lead generation session: it hands the task and
// tools to the agent, prints what comes back and decodes it into leads.
package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"leadgen/agent"
	"leadgen/leads"
	"leadgen/tools"
)

const saveToolName = "save_to_txt"

var rule = strings.Repeat("-", 50)

// Engine runs the agent loop.
type Engine interface {
	Model() string
	Run(ctx context.Context, systemPrompt, userMessage string) (*agent.Result, error)
}

// Sink receives the decoded leads after a successful run.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, list leads.LeadList) error
}

// Driver wires the task, the engine and the output.
type Driver struct {
	engine   Engine
	city     string
	cityName string
	count    int
	out      io.Writer
	sinks    []Sink
	log      zerolog.Logger
}

// Options configures a Driver.
type Options struct {
	// City is the full target location, e.g. "Vancouver, British Columbia".
	City string
	// CityName is the short form used in the user task.
	CityName  string
	LeadCount int
	Out       io.Writer
	Sinks     []Sink
	Logger    zerolog.Logger
}

// New creates a driver for engine.
func New(engine Engine, opts Options) *Driver {
	cityName := opts.CityName
	if cityName == "" {
		cityName = opts.City
	}
	return &Driver{
		engine:   engine,
		city:     opts.City,
		cityName: cityName,
		count:    opts.LeadCount,
		out:      opts.Out,
		sinks:    opts.Sinks,
		log:      opts.Logger.With().Str("component", "driver").Logger(),
	}
}

// Outcome is what a run produced.
type Outcome struct {
	// Raw is the agent's final answer, verbatim.
	Raw string
	// Leads holds the decoded answer when DecodeErr is nil.
	Leads leads.LeadList
	// DecodeErr is set when the answer did not match the schema.
	DecodeErr error
	// SaveInvoked reports whether the agent actually ran the save tool.
	SaveInvoked bool
}

// Run executes one session. Engine failures abort the run and are returned;
// a decode failure is reported and the run still completes.
func (d *Driver) Run(ctx context.Context) (*Outcome, error) {
	banner := color.New(color.FgCyan, color.Bold)
	heading := color.New(color.Bold)
	failure := color.New(color.FgRed)

	banner.Fprintf(d.out, "Starting lead generation process with %s...\n", d.engine.Model())
	fmt.Fprintln(d.out, rule)

	result, err := d.engine.Run(ctx, SystemPrompt(d.city, d.count), UserQuery(d.cityName, d.count))
	if err != nil {
		failure.Fprintf(d.out, "Error running agent: %v\n", err)
		d.log.Error().Err(err).Strs("chain", errorChain(err)).Msg("agent run failed")
		return nil, fmt.Errorf("running agent: %w", err)
	}

	outcome := &Outcome{
		Raw:         result.Content,
		SaveInvoked: result.Invoked(saveToolName),
	}
	d.log.Info().
		Int("turns", result.Turns).
		Strs("tools", result.ToolCalls).
		Bool("saved", outcome.SaveInvoked).
		Msg("agent finished")

	heading.Fprintln(d.out, "\nAgent Output:")
	fmt.Fprintln(d.out, result.Content)
	fmt.Fprintln(d.out, rule)

	list, err := leads.Decode(result.Content)
	if err != nil {
		outcome.DecodeErr = err
		failure.Fprintf(d.out, "\nError parsing response: %v\n", err)
		fmt.Fprintln(d.out, "Raw output saved above.")
		d.log.Warn().Err(err).Msg("could not decode agent output")
		return outcome, nil
	}
	outcome.Leads = list

	if list.Len() != d.count {
		d.log.Warn().Int("want", d.count).Int("got", list.Len()).Msg("lead count differs from the task")
	}

	rendered, err := list.YAML()
	if err != nil {
		return outcome, err
	}
	heading.Fprintln(d.out, "\nParsed Structured Response:")
	fmt.Fprint(d.out, rendered)

	for _, sink := range d.sinks {
		if err := sink.Deliver(ctx, list); err != nil {
			d.log.Warn().Err(err).Str("sink", sink.Name()).Msg("delivery failed")
			continue
		}
		d.log.Info().Str("sink", sink.Name()).Int("leads", list.Len()).Msg("delivered leads")
	}

	return outcome, nil
}

// RegisterTools adds the lead generation tools to reg.
func RegisterTools(reg *tools.Registry, searcher tools.Searcher, fetcher tools.PageFetcher, outputFile string, logger zerolog.Logger) error {
	for _, tool := range []tools.Tool{
		tools.NewSearchScrapeTool(searcher, fetcher, logger),
		tools.NewSearchWebTool(searcher),
		tools.NewSaveTool(outputFile, logger),
	} {
		if err := reg.Register(tool); err != nil {
			return err
		}
	}
	return nil
}

func errorChain(err error) []string {
	var chain []string
	for e := err; e != nil; e = errors.Unwrap(e) {
		chain = append(chain, e.Error())
	}
	return chain
}
