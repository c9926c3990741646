package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/five82/dram/internal/detail"
	"github.com/five82/dram/internal/logger"
	"github.com/five82/dram/internal/price"
	"github.com/five82/dram/internal/state"
)

// ErrUnknownWhiskey is returned when a name does not match a catalog entry.
var ErrUnknownWhiskey = errors.New("whiskey not in catalog")

// Search prints the catalog entries matching query with their catalog indexes.
func Search(ctx context.Context, opts Options, query string) error {
	rt, err := setup(opts, false)
	if err != nil {
		return err
	}
	defer rt.close()
	ctx = logger.WithLogger(ctx, rt.logger)

	store, err := rt.loadCatalog(ctx, opts.Progress)
	if err != nil {
		return err
	}

	controller := state.NewController()
	controller.SetCatalog(store.Records(), nil)
	controller.SetQuery(query)
	snap := controller.Snapshot()

	out := opts.stdout()
	if len(snap.Matches) == 0 {
		_, err := fmt.Fprintln(out, "No matches")
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tNAME\tPRICE\tRATING\tCATEGORY")
	for _, m := range snap.Matches {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			m.OriginalIndex,
			m.Record.Name,
			orNA(m.Record.Price),
			orNA(m.Record.Rating),
			m.Record.Category,
		)
	}
	return tw.Flush()
}

// RecommendOptions select the whiskey to recommend from. Name wins over Index:
// an exact catalog name is used as is, anything else picks the first search
// match.
type RecommendOptions struct {
	Index int
	Name  string
	// MaxPrice is a dollar amount or "unbounded". Empty uses the configured default.
	MaxPrice string
}

// Recommend asks the service for whiskeys similar to one catalog entry and
// prints them in the order returned.
func Recommend(ctx context.Context, opts Options, ro RecommendOptions) error {
	rt, err := setup(opts, false)
	if err != nil {
		return err
	}
	defer rt.close()
	ctx = logger.WithLogger(ctx, rt.logger)

	ceiling := price.New(rt.cfg.DefaultMaxPrice)
	if ro.MaxPrice != "" {
		if ceiling, err = parseCeiling(ro.MaxPrice); err != nil {
			return err
		}
	}

	store, err := rt.loadCatalog(ctx, opts.Progress)
	if err != nil {
		return err
	}
	controller := state.NewController()
	controller.SetCatalog(store.Records(), nil)

	d, err := selectTarget(controller, ro, ceiling)
	if err != nil {
		return err
	}
	records, err := rt.recommender.Recommend(ctx, d.Request)
	controller.Resolve(state.Outcome{Seq: d.Seq, Records: records, Err: err})
	if err != nil {
		return fmt.Errorf("recommend: %w", err)
	}

	snap := controller.Snapshot()
	return printRecommendations(opts.stdout(), snap, ceiling)
}

func selectTarget(c *state.Controller, ro RecommendOptions, ceiling price.Ceiling) (state.Dispatch, error) {
	if ro.Name == "" {
		return c.SelectIndex(ro.Index, ceiling)
	}
	if index := c.IndexOf(ro.Name); index >= 0 {
		return c.SelectIndex(index, ceiling)
	}
	c.SetQuery(ro.Name)
	if c.Matches() == 0 {
		return state.Dispatch{}, fmt.Errorf("%w: %q", ErrUnknownWhiskey, ro.Name)
	}
	return c.Select(0, ceiling)
}

func printRecommendations(w io.Writer, snap state.Snapshot, ceiling price.Ceiling) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Similar to %s (max price $%s)\n", snap.Selected.Name, ceiling.Label())
	if len(snap.Recommendations) == 0 {
		b.WriteString("No recommendations under this price\n")
	}
	for i, rec := range snap.Recommendations {
		stats := []string{
			detail.SimilarityLabel(rec.SimilarityScore),
			detail.PriceLabel(rec.Price),
			detail.RatingLabel(rec.Rating),
		}
		if rec.Category != "" {
			stats = append(stats, rec.Category)
		}
		fmt.Fprintf(&b, "%3d. %s\n     %s\n", i+1, rec.Name, strings.Join(stats, "   "))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// parseCeiling accepts a dollar amount or one of unbounded, max, none.
func parseCeiling(raw string) (price.Ceiling, error) {
	value := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(raw)), "$")
	switch value {
	case "unbounded", "max", "none":
		return price.New(price.Max), nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return price.Ceiling{}, fmt.Errorf("invalid max price %q", raw)
	}
	if n < price.Min || n > price.Max {
		return price.Ceiling{}, fmt.Errorf("max price %d outside %d..%d", n, price.Min, price.Max)
	}
	return price.New(n), nil
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "n/a"
	}
	return s
}
