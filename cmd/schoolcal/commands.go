package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"schoolcal/internal/cache"
	"schoolcal/internal/calendar"
	"schoolcal/internal/capture"
	"schoolcal/internal/config"
	"schoolcal/internal/datenorm"
	"schoolcal/internal/extract"
	appLog "schoolcal/internal/log"
	"schoolcal/internal/model"
	"schoolcal/internal/orchestrator"
	"schoolcal/internal/source"
	"schoolcal/internal/web"
)

func newRootCmd(clock clockwork.Clock) *cobra.Command {
	root := &cobra.Command{
		Use:           "schoolcal",
		Short:         "School portal events to calendar entries",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	root.AddCommand(newServeCmd(clock))
	root.AddCommand(newNormalizeCmd())
	root.AddCommand(newMapCmd(clock))
	return root
}

type serveFlags struct {
	configPath string
	listen     string
}

func newServeCmd(clock clockwork.Clock) *cobra.Command {
	var flags serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := config.Load(flags.configPath)
			if err != nil {
				appLog.Error("failed to load config", err, "config_path", flags.configPath)
				return err
			}
			// CLI --listen overrides config file listen if provided.
			if flags.listen != "" {
				conf.Listen = flags.listen
			}
			conf.ApplyEnv()
			return serve(cmd, conf, clock)
		},
	}
	cmd.Flags().StringVar(&flags.configPath, "config", "/etc/schoolcal/config.yaml", "Path to config file")
	cmd.Flags().StringVar(&flags.listen, "listen", "", "HTTP listen address (overrides config if set)")
	return cmd
}

func serve(cmd *cobra.Command, conf *config.Config, clock clockwork.Clock) error {
	appLog.SetOutput(cmd.ErrOrStderr(), conf.LogFormat)
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))
	appLog.Info("schoolcal starting", "version", version)

	loc, err := time.LoadLocation(conf.Timezone)
	if err != nil {
		return fmt.Errorf("timezone %q: %w", conf.Timezone, err)
	}

	store := cache.New(cache.WithTTL(conf.TTL()), cache.WithClock(clock))

	// 원격 추출 서비스가 우선이고, 없으면 모델 API 를 직접 호출한다.
	var (
		extractor orchestrator.Extractor
		proxy     web.Extractor
	)
	if conf.Extract.OpenAIKey != "" {
		oa := extract.NewOpenAIExtractor(conf.Extract.OpenAIKey, conf.Extract.OpenAIBaseURL, conf.Extract.Model)
		extractor, proxy = oa, oa
	}
	if conf.Extract.Endpoint != "" {
		extractor = extract.NewClient(conf.Extract.Endpoint)
	}
	if extractor == nil {
		return errors.New("no extraction backend: set extract.endpoint or OPENAI_KEY")
	}

	orch := orchestrator.New(
		capture.Browser{Selector: conf.PortalSelector},
		source.NewFetcher(nil),
		source.PDFReader{},
		extractor,
		store,
		conf.PortalHosts,
	)

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"cache_ttl", conf.TTL().String(),
		"stats_cron", conf.StatsCron,
		"portal_hosts", strings.Join(conf.PortalHosts, ","),
		"extract_endpoint", source.RedactURL(conf.Extract.Endpoint),
		"parse_events_route", proxy != nil,
	)

	g, ctx := errgroup.WithContext(cmd.Context())

	if conf.StatsCron != "" {
		reporter, err := cache.StartReporter(conf.StatsCron, store)
		if err != nil {
			return fmt.Errorf("stats_cron %q: %w", conf.StatsCron, err)
		}
		g.Go(func() error {
			<-ctx.Done()
			<-reporter.Stop().Done()
			return nil
		})
	}

	g.Go(func() error {
		return web.StartServer(ctx, conf, web.Deps{
			Scanner:   orch,
			Cache:     store,
			Mapper:    calendar.NewMapper(loc, clock),
			Calendar:  calendar.NewClient(conf.Calendar.BaseURL, conf.Calendar.CalendarID),
			Extractor: proxy,
			Clock:     clock,
		})
	})

	err = g.Wait()
	appLog.Info("schoolcal exiting")
	return err
}

func newNormalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <date text>",
		Short: "Show how a date phrase is normalized",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "normalized: %s\n", datenorm.NormalizeDateRange(text))
			_, _ = fmt.Fprintf(out, "display:    %s\n", datenorm.FormatDisplay(text))
			rec := datenorm.DetectRecurrence(text)
			if rec == nil {
				_, _ = fmt.Fprintln(out, "recurrence: -")
			} else {
				_, _ = fmt.Fprintf(out, "recurrence: %s\n", strings.Join(rec, ","))
			}
			return nil
		},
	}
}

func newMapCmd(clock clockwork.Clock) *cobra.Command {
	var tz string
	cmd := &cobra.Command{
		Use:   "map",
		Short: "Map an event record (JSON on stdin) to a calendar request body",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loc, err := time.LoadLocation(tz)
			if err != nil {
				return fmt.Errorf("timezone %q: %w", tz, err)
			}
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			var ev model.EventRecord
			if err := json.Unmarshal(data, &ev); err != nil {
				return fmt.Errorf("decode event: %w", err)
			}

			body, err := calendar.NewMapper(loc, clock).BuildBody(ev)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(body)
		},
	}
	cmd.Flags().StringVar(&tz, "timezone", "Europe/Berlin", "IANA timezone for timed events")
	return cmd
}
