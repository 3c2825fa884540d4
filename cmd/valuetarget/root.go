package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	inputFile  string
	outputFile string
	plotFile   string
)

func rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "valuetarget",
		Short:         "Compute value targets of batches of transitions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&inputFile, "input", "i", "",
		"JSON file to read the batch from (default stdin)")
	root.PersistentFlags().StringVarP(&outputFile, "output", "o", "",
		"JSON file to write results to (default stdout)")
	root.PersistentFlags().StringVar(&plotFile, "plot", "",
		"Save a plot of the results to the given image file")

	root.AddCommand(estimateCommand())
	root.AddCommand(projectCommand())
	return root
}

// readInput decodes the JSON input of a command into v
func readInput(cmd *cobra.Command, v interface{}) error {
	var r io.Reader = cmd.InOrStdin()
	if inputFile != "" {
		f, err := os.Open(inputFile)
		if err != nil {
			return fmt.Errorf("readInput: %v", err)
		}
		defer f.Close()
		r = f
	}

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("readInput: could not decode input: %v", err)
	}
	return nil
}

// writeOutput encodes v as indented JSON to the output of a command
func writeOutput(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("writeOutput: %v", err)
	}
	data = append(data, '\n')

	if outputFile != "" {
		return os.WriteFile(outputFile, data, 0644)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

// readJSON decodes the JSON file at path into v
func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("readJSON: %v", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("readJSON: could not decode %v: %w", path, err)
	}
	return nil
}
