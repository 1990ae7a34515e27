package main

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"presupuesto/internal/core"
	"presupuesto/internal/export"
	"presupuesto/internal/log"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export movements in a date window",
		Long: `Write every movement of --user dated within [--from, --to], with the
totals of those movements, as CSV, XLSX or PDF.

The file name defaults to presupuesto_<user>_<from>_<to>.<format> in the
current directory. Use --out - to write to stdout.`,
		Example: `  presupuesto export -u ana --from 2024-01-01 --to 2024-01-31 --format xlsx`,
		Args:    cobra.NoArgs,
		RunE:    runExport,
	}
	addWindowFlags(cmd)
	cmd.Flags().StringP("format", "f", string(export.CSV), "output format (csv, xlsx, pdf)")
	cmd.Flags().StringP("out", "o", "", "output path, or - for stdout")
	cmd.Flags().String("kind", "", "only export movements of this kind")
	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	user, err := userFlag(cmd)
	if err != nil {
		return err
	}
	formatFlag, _ := cmd.Flags().GetString("format")
	format, err := export.ParseFormat(formatFlag)
	if err != nil {
		return err
	}
	window, err := windowFlags(cmd, time.Now())
	if err != nil {
		return err
	}
	var kind core.Kind
	if v, _ := cmd.Flags().GetString("kind"); v != "" {
		if kind, err = core.ParseKind(v); err != nil {
			return err
		}
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	l, err := s.store.Load(cmd.Context(), user)
	if err != nil {
		return err
	}
	table := export.NewTable(user, window, filterKind(core.QueryRange(l, window), kind))

	var buf bytes.Buffer
	if err := export.Write(&buf, format, table); err != nil {
		return err
	}

	path, _ := cmd.Flags().GetString("out")
	if path == "-" {
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}
	if path == "" {
		path = export.Filename(table, format)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}

	s.logger.Info("Table exported",
		log.FieldUser, user,
		log.FieldFormat, format,
		log.FieldRows, len(table.Rows),
		"path", path)
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d movements to %s\n", len(table.Rows), path)
	return nil
}
