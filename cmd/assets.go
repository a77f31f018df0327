package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/Riboost-Studio/pos-device-bridge/internal/model"
)

func newAssetsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assets",
		Short: "Manage the cached receipt logo and QR image",
	}
	cmd.AddCommand(newAssetsEnsureCmd(opts))
	return cmd
}

func newAssetsEnsureCmd(opts *rootOptions) *cobra.Command {
	var logoURL, qrURL string
	cmd := &cobra.Command{
		Use:   "ensure",
		Short: "Download the logo and QR image unless today's copies are cached",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if logoURL == "" {
				logoURL = opts.app.cfg.Receipt.LogoURL
			}
			if qrURL == "" {
				qrURL = opts.app.cfg.Receipt.QRURL
			}
			res, err := opts.app.branding.EnsureAssets(cmd.Context(), logoURL, qrURL)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "logo: %s\n", pathOrNone(res.LogoPath))
			fmt.Fprintf(out, "qr:   %s\n", pathOrNone(res.QRPath))
			if res.Cached {
				fmt.Fprintln(out, "served from cache")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&logoURL, "logo-url", "", "logo image URL (default from receipt.logo_url)")
	cmd.Flags().StringVar(&qrURL, "qr-url", "", "payment QR image URL (default from receipt.qr_url)")
	return cmd
}

func pathOrNone(p *string) string {
	if p == nil {
		return "(none)"
	}
	return *p
}

func newImagesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "images",
		Short: "Manage the bulk product image mirror",
	}
	cmd.AddCommand(newImagesDownloadCmd(opts), newImagesClearCmd(opts))
	return cmd
}

func newImagesDownloadCmd(opts *rootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Mirror the images listed in a JSON file of {id, url, type} items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var items []model.BulkImageItem
			if err := readJSONFile(file, &items); err != nil {
				return err
			}
			paths, err := opts.app.images.DownloadAll(cmd.Context(), items)
			if err != nil {
				return err
			}
			urls := make([]string, 0, len(paths))
			for u := range paths {
				urls = append(urls, u)
			}
			sort.Strings(urls)
			out := cmd.OutOrStdout()
			for _, u := range urls {
				fmt.Fprintf(out, "%s\t%s\n", paths[u], u)
			}
			fmt.Fprintf(out, "%d of %d images available\n", len(paths), len(items))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON array of image items")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newImagesClearCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every mirrored image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.app.images.ClearAll(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %s\n", opts.app.images.Dir())
			return nil
		},
	}
}
