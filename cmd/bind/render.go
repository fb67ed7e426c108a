package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/net/html"

	"github.com/vango-dev/bind/internal/config"
	"github.com/vango-dev/bind/internal/demo"
	"github.com/vango-dev/bind/pkg/anchor"
	"github.com/vango-dev/bind/pkg/dom"
	"github.com/vango-dev/bind/pkg/events"
	"github.com/vango-dev/bind/pkg/reactive"
)

type renderOptions struct {
	clicks int
	todos  []string
	done   []int
	ops    bool
}

func renderCmd(configPath *string) *cobra.Command {
	var opts renderOptions

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the demo graph and print the document",
		Long: `Render the demo graph once, replay scripted events and print
the resulting document.

Examples:
  bind render
  bind render --clicks=3
  bind render --todo="buy milk" --todo="walk dog" --done=0
  bind render --clicks=1 --ops`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			return runRender(cmd.OutOrStdout(), cfg, opts)
		},
	}

	cmd.Flags().IntVar(&opts.clicks, "clicks", 0, "Number of counter clicks to replay")
	cmd.Flags().StringArrayVar(&opts.todos, "todo", nil, "Todo titles to submit (repeatable)")
	cmd.Flags().IntSliceVar(&opts.done, "done", nil, "Indexes of submitted todos to check off")
	cmd.Flags().BoolVar(&opts.ops, "ops", false, "Print the recorded mutations after the document")

	return cmd
}

func runRender(w io.Writer, cfg *config.Config, opts renderOptions) error {
	doc, err := dom.Parse(demo.Shell)
	if err != nil {
		return err
	}
	logger := slog.Default().With("component", "render")
	g := reactive.NewGraph(
		reactive.WithLogger(logger),
		reactive.WithSlowRenderThreshold(cfg.Render.SlowRenderThreshold.D()),
		reactive.WithIdentityAttr(cfg.Render.IdentityAttr),
	)
	router := events.NewRouter(doc, g, events.WithLogger(logger))
	app, err := demo.Mount(doc, g, router, anchor.NewRegistry(doc))
	if err != nil {
		return err
	}
	doc.TakeOps()

	for i := 0; i < opts.clicks; i++ {
		router.Dispatch("click", app.CounterButton(), nil)
	}
	for _, title := range opts.todos {
		router.Dispatch("submit", app.Form(), map[string]string{"title": title})
	}
	items := app.Todos.Items()
	for _, i := range opts.done {
		if i < 0 || i >= len(items) {
			return fmt.Errorf("--done index %d out of range (%d todos)", i, len(items))
		}
		row := app.RowElement(items[i])
		if row == nil {
			return fmt.Errorf("todo %d is not rendered", i)
		}
		checkbox := findCheckbox(row)
		if checkbox == nil {
			return fmt.Errorf("todo %d has no checkbox", i)
		}
		router.Dispatch("change", checkbox, map[string]string{"checked": "true"})
	}

	fmt.Fprintln(w, doc.String())
	if opts.ops {
		for _, op := range doc.TakeOps() {
			fmt.Fprintln(w, op)
		}
	}
	return nil
}

func findCheckbox(row *html.Node) *html.Node {
	var found *html.Node
	dom.Walk(row, func(n *html.Node) {
		if t, ok := dom.GetAttr(n, "type"); found == nil && ok && t == "checkbox" {
			found = n
		}
	})
	return found
}
