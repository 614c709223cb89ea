package cmd

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var doctorFormat string

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Probe local hardware and suggest sweep sizing",
	Long: `Inspects the machine the command runs on (typically a login node of
the same class as the compute nodes) and suggests how many segments to
split a sweep into. The suggestion assumes one single-threaded worker
per core; adjust for multi-threaded workers.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)

	doctorCmd.Flags().StringVarP(&doctorFormat, "format", "f", "text", "output format: text, json, yaml")
}

type doctorReport struct {
	CPUModel          string `json:"cpu_model" yaml:"cpu_model"`
	CPUThreads        int    `json:"cpu_threads" yaml:"cpu_threads"`
	RAMTotalBytes     uint64 `json:"ram_total_bytes" yaml:"ram_total_bytes"`
	RAMAvailableBytes uint64 `json:"ram_available_bytes" yaml:"ram_available_bytes"`
	OS                string `json:"os" yaml:"os"`
	Architecture      string `json:"architecture" yaml:"architecture"`
	SuggestedSegments int    `json:"suggested_segments" yaml:"suggested_segments"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	report := doctorReport{
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
	}

	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		report.CPUModel = infos[0].ModelName
	}
	threads, err := cpu.Counts(true)
	if err != nil {
		return fmt.Errorf("failed to count CPUs: %w", err)
	}
	report.CPUThreads = threads
	report.SuggestedSegments = threads

	if vm, err := mem.VirtualMemory(); err == nil {
		report.RAMTotalBytes = vm.Total
		report.RAMAvailableBytes = vm.Available
	}

	switch doctorFormat {
	case "json":
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	case "yaml":
		out, err := yaml.Marshal(report)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
	default:
		fmt.Printf("CPU:          %s (%d threads)\n", report.CPUModel, report.CPUThreads)
		fmt.Printf("Memory:       %.1f GB total, %.1f GB available\n",
			float64(report.RAMTotalBytes)/(1<<30), float64(report.RAMAvailableBytes)/(1<<30))
		fmt.Printf("Platform:     %s/%s\n", report.OS, report.Architecture)
		fmt.Printf("\nSuggested --segments per node: %d\n", report.SuggestedSegments)
	}
	return nil
}
