package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/samber/mo"
	"github.com/urfave/cli/v2"
	gcal "google.golang.org/api/calendar/v3"
	"gopkg.in/yaml.v3"

	"eventcal/internal/calendar"
	"eventcal/internal/datemath"
	"eventcal/internal/duration"
	"eventcal/internal/ics"
	appLog "eventcal/internal/log"
	"eventcal/internal/model"
	"eventcal/internal/recurrence"
)

func descriptorFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "freq", Aliases: []string{"f"}, Usage: "DAILY, WEEKLY, BIWEEKLY, MONTHLY or YEARLY"},
		&cli.IntFlag{Name: "interval", Aliases: []string{"i"}, Usage: "repeat every N periods"},
		&cli.IntFlag{Name: "count", Aliases: []string{"n"}, Usage: "stop after N occurrences"},
		&cli.StringFlag{Name: "until", Aliases: []string{"u"}, Usage: "last date, YYYY-MM-DD; ignored when --count is set"},
	}
}

func descriptorFrom(c *cli.Context) recurrence.Descriptor {
	return recurrence.Descriptor{
		Frequency: recurrence.Frequency(strings.ToUpper(strings.TrimSpace(c.String("freq")))),
		Interval:  c.Int("interval"),
		Count:     c.Int("count"),
		Until:     c.String("until"),
	}
}

func ruleCommand() *cli.Command {
	return &cli.Command{
		Name:  "rule",
		Usage: "Print the RRULE for a recurrence, or decode one with --parse.",
		Flags: append(descriptorFlags(),
			&cli.StringFlag{Name: "parse", Usage: "rule string to decode into a descriptor"},
		),
		Action: func(c *cli.Context) error {
			if raw := c.String("parse"); raw != "" {
				desc, ok := recurrence.ParseRuleString(raw)
				if !ok {
					return fmt.Errorf("cannot parse rule %q", raw)
				}
				return yaml.NewEncoder(c.App.Writer).Encode(desc)
			}
			fmt.Fprintln(c.App.Writer, recurrence.BuildRuleString(descriptorFrom(c)))
			return nil
		},
	}
}

func occurrencesCommand() *cli.Command {
	return &cli.Command{
		Name:  "occurrences",
		Usage: "List the start times of a recurrence.",
		Flags: append(descriptorFlags(),
			&cli.StringFlag{Name: "start", Aliases: []string{"s"}, Required: true, Usage: "first occurrence, date or date-time"},
			&cli.IntFlag{Name: "max", Usage: "upper bound when no count is given (default from config)"},
		),
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c, false)
			if err != nil {
				return err
			}
			max := c.Int("max")
			if max <= 0 {
				max = cfg.MaxInstances
			}

			desc := descriptorFrom(c)
			occ := recurrence.GenerateOccurrencesIn(cfg.Location(), desc, c.String("start"), max)
			appLog.Debug("generated occurrences", "rule", recurrence.BuildRuleString(desc), "count", len(occ))
			for _, t := range occ {
				fmt.Fprintln(c.App.Writer, t.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func daysCommand() *cli.Command {
	return &cli.Command{
		Name:  "days",
		Usage: "Count the days from --start to --end, both included.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "start", Required: true},
			&cli.StringFlag{Name: "end", Required: true},
		},
		Action: func(c *cli.Context) error {
			days, ok := datemath.DaysInclusive(c.String("start"), c.String("end")).Get()
			if !ok {
				return errors.New("start and end must be YYYY-MM-DD dates")
			}
			fmt.Fprintln(c.App.Writer, days)
			return nil
		},
	}
}

func endDateCommand() *cli.Command {
	return &cli.Command{
		Name:  "enddate",
		Usage: "Print the last day of a range of --days days beginning at --start.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "start", Required: true},
			&cli.StringFlag{Name: "days", Required: true, Usage: `day count, or "other"`},
		},
		Action: func(c *cli.Context) error {
			fmt.Fprintln(c.App.Writer, datemath.EndDateFromDayCount(c.String("start"), c.String("days")))
			return nil
		},
	}
}

type normalizeOutput struct {
	Record     model.EventRecord `json:"record"`
	GoogleLink string            `json:"googleLink,omitempty"`
}

func normalizeCommand() *cli.Command {
	return &cli.Command{
		Name:  "normalize",
		Usage: "Normalize event fields into an export record.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title"},
			&cli.StringFlag{Name: "description"},
			&cli.StringFlag{Name: "location"},
			&cli.StringFlag{Name: "start"},
			&cli.StringFlag{Name: "end"},
			&cli.BoolFlag{Name: "all-day"},
			&cli.StringFlag{Name: "rule"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c, false)
			if err != nil {
				return err
			}
			rec := calendar.NormalizeIn(cfg.Location(), calendar.Attributes{
				Title:       c.String("title"),
				Description: c.String("description"),
				Location:    c.String("location"),
				Start:       c.String("start"),
				End:         c.String("end"),
				AllDay:      c.Bool("all-day"),
				Rule:        c.String("rule"),
			})
			enc := json.NewEncoder(c.App.Writer)
			enc.SetIndent("", "  ")
			return enc.Encode(normalizeOutput{Record: rec, GoogleLink: ics.GoogleLink(rec)})
		},
	}
}

func durationsCommand() *cli.Command {
	return &cli.Command{
		Name:  "durations",
		Usage: "Print the duration picker for a unit.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "unit", Value: string(duration.UnitHours), Usage: "hours, minutes or days"},
			&cli.Float64Flag{Name: "selected", Usage: "current value; marked with * in the output"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c, false)
			if err != nil {
				return err
			}
			unit, ok := duration.ParseUnit(c.String("unit"))
			if !ok {
				return fmt.Errorf("unknown unit %q", c.String("unit"))
			}

			set, err := cfg.OptionSet(unit)
			if err != nil {
				return err
			}

			selected := mo.None[float64]()
			if c.IsSet("selected") {
				selected = mo.Some(c.Float64("selected"))
				set.SetSelection(c.Float64("selected"))
			}
			current := set.CurrentSelectionFor(selected)

			for _, opt := range set.BuildOptions() {
				mark := " "
				if selected.IsPresent() && opt.Value == current {
					mark = "*"
				}
				fmt.Fprintf(c.App.Writer, "%s %-8s %s\n", mark, opt.Value.String(), opt.Label)
			}
			return nil
		},
	}
}

func readAttributes(path string) ([]calendar.Attributes, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	var attrs []calendar.Attributes
	if err := yaml.Unmarshal(data, &attrs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return attrs, nil
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Convert a YAML or JSON list of events into an iCalendar feed.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Aliases: []string{"in"}, Value: "-", Usage: `event list, "-" for stdin`},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write here instead of stdout"},
			&cli.BoolFlag{Name: "google", Usage: "emit Google Calendar API events as JSON instead"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c, false)
			if err != nil {
				return err
			}
			attrs, err := readAttributes(c.String("input"))
			if err != nil {
				return err
			}

			loc := cfg.Location()
			records := make([]model.EventRecord, 0, len(attrs))
			for _, a := range attrs {
				records = append(records, calendar.NormalizeIn(loc, a))
			}

			var out []byte
			if c.Bool("google") {
				events := make([]*gcal.Event, 0, len(records))
				for _, rec := range records {
					if ev := ics.GoogleEvent(rec); ev != nil {
						events = append(events, ev)
					}
				}
				if out, err = json.MarshalIndent(events, "", "  "); err != nil {
					return err
				}
				out = append(out, '\n')
			} else {
				feed, skipped := ics.BuildCalendar(records, ics.ExportOptions{
					Name:      cfg.CalendarName,
					ProductID: cfg.ProductID,
				})
				if skipped > 0 {
					appLog.Info("skipped events without a start", "count", skipped)
				}
				out = []byte(feed)
			}

			if path := c.String("output"); path != "" {
				return os.WriteFile(path, out, 0o644)
			}
			_, err = c.App.Writer.Write(out)
			return err
		},
	}
}

type feedOccurrence struct {
	title string
	occ   model.Occurrence
}

func feedCommand() *cli.Command {
	return &cli.Command{
		Name:  "feed",
		Usage: "Fetch an iCalendar feed and list its expanded occurrences.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Required: true},
			&cli.StringFlag{Name: "cache-dir", Usage: "revalidate against a local copy with ETag / Last-Modified"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c, false)
			if err != nil {
				return err
			}

			body, fromCache, err := ics.NewFetcher(nil, c.String("cache-dir")).Fetch(c.Context, c.String("url"))
			if err != nil {
				return err
			}
			loc := cfg.Location()
			records, err := ics.ParseCalendar(body, loc)
			if err != nil {
				return err
			}
			appLog.Debug("feed parsed", "events", len(records), "from_cache", fromCache)

			var all []feedOccurrence
			for _, rec := range records {
				for _, occ := range calendar.ExpandRecord(rec, calendar.ExpandConfig{
					DisplayLocation: loc,
					MaxInstances:    cfg.MaxInstances,
				}) {
					all = append(all, feedOccurrence{title: rec.Title, occ: occ})
				}
			}
			sort.SliceStable(all, func(i, j int) bool {
				return all[i].occ.Start.Before(all[j].occ.Start)
			})

			for _, o := range all {
				if o.occ.AllDay {
					fmt.Fprintf(c.App.Writer, "%s all day        %s\n",
						datemath.FormatDate(o.occ.Start), o.title)
					continue
				}
				fmt.Fprintf(c.App.Writer, "%s %s-%s  %s\n",
					datemath.FormatDate(o.occ.Start), o.occ.Start.Format("15:04"), o.occ.End.Format("15:04"), o.title)
			}
			return nil
		},
	}
}
