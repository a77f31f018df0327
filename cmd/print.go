package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Riboost-Studio/pos-device-bridge/internal/model"
)

func newPrintCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "print",
		Short: "Print a receipt or kitchen token from a JSON job file",
	}
	cmd.AddCommand(newPrintReceiptCmd(opts), newPrintKitchenCmd(opts))
	return cmd
}

func newPrintReceiptCmd(opts *rootOptions) *cobra.Command {
	var (
		file  string
		flags printerFlags
	)
	cmd := &cobra.Command{
		Use:   "receipt",
		Short: "Print a customer receipt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var job model.ReceiptJob
			if err := readJSONFile(file, &job); err != nil {
				return err
			}
			res := opts.app.printing.PrintReceipt(cmd.Context(), job, flags.config())
			return reportPrint(cmd, res)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "receipt job JSON file")
	_ = cmd.MarkFlagRequired("file")
	flags.register(cmd.Flags(), true)
	return cmd
}

func newPrintKitchenCmd(opts *rootOptions) *cobra.Command {
	var (
		file  string
		flags printerFlags
	)
	cmd := &cobra.Command{
		Use:   "kitchen",
		Short: "Print a kitchen token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var job model.KitchenTokenJob
			if err := readJSONFile(file, &job); err != nil {
				return err
			}
			res := opts.app.printing.PrintKitchenToken(cmd.Context(), job, flags.config())
			return reportPrint(cmd, res)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "kitchen token job JSON file")
	_ = cmd.MarkFlagRequired("file")
	flags.register(cmd.Flags(), true)
	return cmd
}

func reportPrint(cmd *cobra.Command, res model.PrintResult) error {
	if !res.Success {
		return errors.New(res.Error)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "printed %d bytes to %s\n", res.Bytes, res.Printer)
	return nil
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
