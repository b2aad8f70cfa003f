package cmd

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"imgbatch/internal/processor"
)

type runReport struct {
	RunID      string       `yaml:"run_id"`
	Format     string       `yaml:"format"`
	Quality    int          `yaml:"quality"`
	OutputDir  string       `yaml:"output_dir,omitempty"`
	Overwrite  bool         `yaml:"overwrite"`
	Attempted  int          `yaml:"attempted"`
	Succeeded  int          `yaml:"succeeded"`
	Failed     int          `yaml:"failed"`
	Cancelled  bool         `yaml:"cancelled"`
	StartedAt  time.Time    `yaml:"started_at"`
	FinishedAt time.Time    `yaml:"finished_at"`
	Items      []reportItem `yaml:"items"`
}

type reportItem struct {
	Source string `yaml:"source"`
	Dest   string `yaml:"dest,omitempty"`
	Status string `yaml:"status"`
	Kind   string `yaml:"kind,omitempty"`
	Error  string `yaml:"error,omitempty"`
}

func newRunReport(result processor.BatchResult, conv processor.ConversionConfig) runReport {
	r := runReport{
		RunID:      result.RunID,
		Format:     conv.Format.String(),
		Quality:    conv.Quality,
		Overwrite:  conv.Overwrite,
		Attempted:  result.Attempted,
		Succeeded:  result.Succeeded,
		Failed:     result.Failed,
		Cancelled:  result.Cancelled,
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
		Items:      make([]reportItem, 0, len(result.Items)),
	}
	if !conv.Overwrite {
		r.OutputDir = conv.OutputDir
	}

	for _, item := range result.Items {
		ri := reportItem{Source: item.Path, Dest: item.Dest, Status: "ok"}
		if !item.OK() {
			ri.Status = "failed"
			ri.Kind = item.Err.Kind.String()
			ri.Error = item.Err.Error()
		}
		r.Items = append(r.Items, ri)
	}
	return r
}

func writeReport(path string, r runReport) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
