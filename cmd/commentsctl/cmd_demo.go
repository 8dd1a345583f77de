package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pribylovaa/exivox-comments/internal/loader"
	"github.com/pribylovaa/exivox-comments/internal/models"
	"github.com/pribylovaa/exivox-comments/internal/render"
	"github.com/pribylovaa/exivox-comments/internal/thread"
)

type viewFlags struct {
	sort     string
	hide     []string
	expand   []string
	maxDepth int
}

func (v *viewFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&v.sort, "sort", "newest", "newest | oldest | popular")
	f.StringSliceVar(&v.hide, "hide-replies", nil, "comment ids whose replies are collapsed")
	f.StringSliceVar(&v.expand, "expand", nil, "comment ids whose moderation details are expanded")
	f.IntVar(&v.maxDepth, "max-depth", render.DefaultMaxDepth, "depth from which replying is disabled")
}

func (v *viewFlags) state() render.ViewState {
	return render.ViewState{
		HiddenReplies:      toSet(v.hide),
		ExpandedModeration: toSet(v.expand),
	}
}

func toSet(ids []string) map[string]bool {
	if len(ids) == 0 {
		return nil
	}

	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}

	return out
}

// newDemoCmd — офлайн-рендер демонстрационной ветки без сервиса.
func newDemoCmd(g *globalFlags) *cobra.Command {
	var (
		view  viewFlags
		delay time.Duration
		stars []string
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Render the demo thread locally (no server needed)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode, err := models.ParseSortMode(view.sort)
			if err != nil {
				return err
			}

			ctx, cancel := g.commandContext(cmd)
			defer cancel()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Loading comments...")

			var (
				list    []models.Comment
				loadErr error
			)
			l := loader.Delayed{Source: loader.Seed{}, Delay: delay}
			done := loader.Go(ctx, l, g.subject, func(c []models.Comment, err error) {
				list, loadErr = c, err
			})
			<-done

			if ctx.Err() != nil {
				return fmt.Errorf("load %s: %w", g.subject, ctx.Err())
			}
			if loadErr != nil {
				return fmt.Errorf("load %s: %w", g.subject, loadErr)
			}

			th := thread.New(list)
			for _, id := range stars {
				if _, err := th.ToggleStar(id); err != nil {
					return fmt.Errorf("star %s: %w", id, err)
				}
			}

			snapshot := th.Comments()
			fmt.Fprintf(out, "Comments (%d)\n\n", thread.CountAll(snapshot))

			r := render.New(render.Options{MaxDepth: view.maxDepth})
			return render.WriteText(out, r.Tree(thread.Sort(snapshot, mode), view.state()))
		},
	}

	view.register(cmd)
	cmd.Flags().DurationVar(&delay, "delay", loader.DefaultDelay, "simulated loading latency")
	cmd.Flags().StringSliceVar(&stars, "star", nil, "toggle the star on these comment ids before rendering")

	return cmd
}
