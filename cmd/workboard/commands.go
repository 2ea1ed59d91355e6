package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	serveradapter "github.com/hylla/workboard/internal/adapters/server"
	"github.com/hylla/workboard/internal/adapters/server/common"
	"github.com/hylla/workboard/internal/app"
	"github.com/hylla/workboard/internal/domain"
	"github.com/hylla/workboard/internal/timeline"
)

var (
	headerStyle = color.New(color.Bold)
	titleStyle  = color.New(color.Bold, color.Underline)
	warnStyle   = color.New(color.FgYellow)

	statusStyles = map[domain.Status]*color.Color{
		domain.StatusOpen:       color.New(color.FgCyan),
		domain.StatusInProgress: color.New(color.FgBlue),
		domain.StatusComplete:   color.New(color.FgGreen),
		domain.StatusBlocked:    color.New(color.FgRed),
	}
)

// newTable returns a table with the shared column separator.
func newTable() *uitable.Table {
	tbl := uitable.New()
	tbl.Separator = "  "
	return tbl
}

// headerRow styles column titles.
func headerRow(titles ...string) []any {
	row := make([]any, 0, len(titles))
	for _, title := range titles {
		row = append(row, headerStyle.Sprint(title))
	}
	return row
}

func statusLabel(status domain.Status) string {
	if style, ok := statusStyles[status]; ok {
		return style.Sprint(string(status))
	}
	return string(status)
}

// withRuntime opens the schedule for one command and logs its start and end.
func withRuntime(cmd *cobra.Command, opts *globalOptions, fn func(*runtime) error) error {
	rt, err := openRuntime(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer func() {
		_ = rt.Close()
	}()

	name := cmd.Name()
	rt.logger.Debug("command flow start", "command", name)
	if err := fn(rt); err != nil {
		rt.logger.Error("command flow failed", "command", name, "err", err)
		return fmt.Errorf("run %s command: %w", name, err)
	}
	rt.logger.Debug("command flow complete", "command", name)
	return nil
}

func newServeCommand(opts *globalOptions) *cobra.Command {
	var (
		httpBind    string
		apiEndpoint string
		mcpEndpoint string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and MCP tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, opts, func(rt *runtime) error {
				serverCfg := serveradapter.Config{
					HTTPBind:      firstNonEmpty(httpBind, rt.cfg.Server.Bind),
					APIEndpoint:   firstNonEmpty(apiEndpoint, rt.cfg.Server.APIEndpoint),
					MCPEndpoint:   firstNonEmpty(mcpEndpoint, rt.cfg.Server.MCPEndpoint),
					ServerName:    opts.appName,
					ServerVersion: version,
				}
				adapter := common.NewStoreAdapter(rt.store, common.AdapterOptions{
					DefaultZoom: rt.cfg.Zoom(),
					Grid:        rt.cfg.GridOptions(),
					MinBarWidth: rt.cfg.Timeline.MinBarWidth,
				})
				rt.logger.Info("serve starting", "bind", serverCfg.HTTPBind, "api", serverCfg.APIEndpoint, "mcp", serverCfg.MCPEndpoint)
				return serveCommandRunner(cmd.Context(), serverCfg, serveradapter.Dependencies{
					Board:     adapter,
					Readiness: rt.readiness,
					Logger:    rt.logger,
				})
			})
		},
	}
	cmd.Flags().StringVar(&httpBind, "http", "", "HTTP listen address (default from config)")
	cmd.Flags().StringVar(&apiEndpoint, "api-endpoint", "", "HTTP API base endpoint (default from config)")
	cmd.Flags().StringVar(&mcpEndpoint, "mcp-endpoint", "", "MCP streamable HTTP endpoint (default from config)")
	return cmd
}

func newPathsCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config and data paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := resolvePaths(opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "app: %s\n", opts.appName)
			_, _ = fmt.Fprintf(out, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(out, "config: %s\n", paths.ConfigPath)
			_, _ = fmt.Fprintf(out, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(out, "db: %s\n", paths.DBPath)
			_, _ = fmt.Fprintf(out, "docs_dir: %s\n", paths.DocsDir)
			return nil
		},
	}
}

func newListCommand(opts *globalOptions) *cobra.Command {
	var (
		centerID  string
		statusArg string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List work orders grouped by work center",
		Example: `
workboard list
workboard list --center wc-001
workboard list --status blocked
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var status domain.Status
			if strings.TrimSpace(statusArg) != "" {
				parsed, err := domain.ParseStatus(statusArg)
				if err != nil {
					return fmt.Errorf("--status %q: %w", statusArg, err)
				}
				status = parsed
			}
			return withRuntime(cmd, opts, func(rt *runtime) error {
				centers := rt.store.WorkCenters()
				if centerID != "" {
					center, err := rt.store.WorkCenter(centerID)
					if err != nil {
						return err
					}
					centers = []domain.WorkCenter{center}
				}

				tbl := newTable()
				tbl.AddRow(headerRow("ID", "NAME", "WORK CENTER", "STATUS", "START", "END", "DAYS")...)
				for _, center := range centers {
					for _, order := range rt.store.OrdersFor(center.ID) {
						if status != "" && order.Status != status {
							continue
						}
						tbl.AddRow(
							order.ID,
							order.Name,
							center.Name,
							statusLabel(order.Status),
							order.StartDate.String(),
							order.EndDate.String(),
							order.DurationDays(),
						)
					}
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), tbl)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&centerID, "center", "", "only list orders on this work center id")
	cmd.Flags().StringVar(&statusArg, "status", "", "only list orders with this status")
	return cmd
}

func newGridCommand(opts *globalOptions) *cobra.Command {
	var (
		zoomArg  string
		todayArg string
	)
	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Print the timeline columns for a zoom level",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, opts, func(rt *runtime) error {
				zoom := rt.cfg.Zoom()
				if strings.TrimSpace(zoomArg) != "" {
					parsed, err := timeline.ParseZoom(zoomArg)
					if err != nil {
						return err
					}
					zoom = parsed
				}
				now := time.Now()
				if strings.TrimSpace(todayArg) != "" {
					day, err := domain.ParseDate(todayArg)
					if err != nil {
						return fmt.Errorf("--today %q: %w", todayArg, err)
					}
					now = day.Time()
				}
				return writeGrid(cmd.OutOrStdout(), timeline.BuildGrid(now, zoom, rt.cfg.GridOptions()))
			})
		},
	}
	cmd.Flags().StringVar(&zoomArg, "zoom", "", "zoom level: day, week or month (default from config)")
	cmd.Flags().StringVar(&todayArg, "today", "", "anchor date YYYY-MM-DD (default today)")
	return cmd
}

func writeGrid(out io.Writer, grid timeline.Grid) error {
	_, _ = fmt.Fprintln(out, titleStyle.Sprintf("%s view", grid.Zoom.Label()))
	_, _ = fmt.Fprintf(out, "window: %s .. %s  today: %s  width: %dpx\n", grid.Start, grid.End, grid.Today, grid.TotalWidth)

	tbl := newTable()
	tbl.AddRow(headerRow("", "COLUMN", "START", "END", "OFFSET", "WIDTH")...)
	for _, col := range grid.Columns {
		marker := ""
		if col.IsCurrent {
			marker = "*"
		}
		tbl.AddRow(marker, col.Label, col.Start.String(), col.End.String(), col.StartOffsetPx, col.WidthPx)
	}
	_, err := fmt.Fprintln(out, tbl)
	return err
}

func newAuditCommand(opts *globalOptions) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Report overlapping orders and orders on unknown work centers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, opts, func(rt *runtime) error {
				overlaps := rt.store.AuditOverlaps()
				orphans := rt.store.AuditReferences()
				writeAudit(cmd.OutOrStdout(), overlaps, orphans)
				if strict && len(overlaps)+len(orphans) > 0 {
					return fmt.Errorf("audit found %d overlapping and %d orphaned orders", len(overlaps), len(orphans))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "exit with an error when any issue is found")
	return cmd
}

func writeAudit(out io.Writer, overlaps []domain.OverlapReport, orphans []string) {
	if len(overlaps) == 0 && len(orphans) == 0 {
		_, _ = fmt.Fprintln(out, "no overlaps or orphaned orders")
		return
	}
	if len(overlaps) > 0 {
		_, _ = fmt.Fprintln(out, titleStyle.Sprint("Overlaps"))
		tbl := newTable()
		tbl.AddRow(headerRow("WORK CENTER", "ORDER", "NAME", "CONFLICTS WITH")...)
		for _, report := range overlaps {
			tbl.AddRow(report.WorkCenterID, report.OrderID, report.OrderName, strings.Join(report.ConflictIDs, ", "))
		}
		_, _ = fmt.Fprintln(out, tbl)
	}
	if len(orphans) > 0 {
		_, _ = fmt.Fprintln(out, titleStyle.Sprint("Orphaned orders"))
		for _, id := range orphans {
			_, _ = fmt.Fprintln(out, warnStyle.Sprintf("  %s", id))
		}
	}
}

func newActivityCommand(opts *globalOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show recent work order changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit <= 0 {
				return errors.New("--limit must be positive")
			}
			return withRuntime(cmd, opts, func(rt *runtime) error {
				if rt.activity == nil {
					return fmt.Errorf("activity log is not available for the %s backend", rt.cfg.Backend())
				}
				events, err := rt.store.Activity(cmd.Context(), limit)
				if err != nil {
					return err
				}
				tbl := newTable()
				tbl.AddRow(headerRow("WHEN", "OPERATION", "ORDER", "WORK CENTER", "ACTOR")...)
				for _, event := range events {
					tbl.AddRow(
						event.OccurredAt.Local().Format(time.DateTime),
						string(event.Operation),
						event.WorkOrderID,
						event.WorkCenterID,
						event.Metadata["actor_type"],
					)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), tbl)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of entries to show")
	return cmd
}

func newExportCommand(opts *globalOptions) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON snapshot of work centers and work orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, opts, func(rt *runtime) error {
				return writeSnapshot(rt.store.ExportSnapshot(), outPath, cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "-", "output file path ('-' for stdout)")
	return cmd
}

func writeSnapshot(snap app.Snapshot, outPath string, stdout io.Writer) error {
	encoded, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot json: %w", err)
	}
	encoded = append(encoded, '\n')

	if outPath == "-" {
		if _, err := stdout.Write(encoded); err != nil {
			return fmt.Errorf("write snapshot to stdout: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create export output dir: %w", err)
	}
	if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	return nil
}

func newImportCommand(opts *globalOptions) *cobra.Command {
	var inPath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace work orders from a JSON snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(inPath) == "" {
				return errors.New("--in is required")
			}
			content, err := os.ReadFile(inPath)
			if err != nil {
				return fmt.Errorf("read import file: %w", err)
			}
			var snap app.Snapshot
			if err := json.Unmarshal(content, &snap); err != nil {
				return fmt.Errorf("decode snapshot json: %w", err)
			}
			return withRuntime(cmd, opts, func(rt *runtime) error {
				report, err := rt.store.ImportSnapshot(cmd.Context(), snap)
				if err != nil {
					return fmt.Errorf("import snapshot: %w", err)
				}
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(out, "imported %d work orders\n", report.WorkOrders)
				if len(report.Overlaps) > 0 || len(report.OrphanOrderIDs) > 0 {
					writeAudit(out, report.Overlaps, report.OrphanOrderIDs)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "", "input snapshot JSON file")
	return cmd
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
