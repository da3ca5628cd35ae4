package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/tendant/simple-image/pkg/simpleimage"
	"github.com/tendant/simple-image/pkg/simpleimage/config"
	"github.com/tendant/simple-image/pkg/simpleimage/imagor"
	"github.com/tendant/simple-image/pkg/simpleimage/presets"
)

// NewSignCommand creates the sign command
func NewSignCommand() *cobra.Command {
	var (
		preset  string
		width   int
		height  int
		fitIn   bool
		smart   bool
		filters []string
	)

	cmd := &cobra.Command{
		Use:   "sign <object-key>",
		Short: "Print the imagor URL for an object key",
		Long: `Print the signed imagor URL for an object key, either from a named preset
or from explicit transform flags. Without IMAGOR_SECRET the URL is unsafe.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			opts := imagor.Options{Width: width, Height: height, Smart: smart, Filters: filters}
			if fitIn {
				opts.Fit = imagor.FitIn
			}
			if preset != "" {
				var ok bool
				if opts, ok = presets.Get(preset); !ok {
					return fmt.Errorf("%w: %s", simpleimage.ErrUnknownPreset, preset)
				}
			}

			url := cfg.BuildSigner().Sign(args[0], opts)
			if url == "" {
				return fmt.Errorf("%w: IMAGOR_URL is not set", simpleimage.ErrURLUnavailable)
			}

			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}

	cmd.Flags().StringVarP(&preset, "preset", "p", "", "named preset (see 'imagectl presets')")
	cmd.Flags().IntVar(&width, "width", 0, "target width, 0 keeps aspect")
	cmd.Flags().IntVar(&height, "height", 0, "target height, 0 keeps aspect")
	cmd.Flags().BoolVar(&fitIn, "fit-in", false, "fit inside the box instead of cropping")
	cmd.Flags().BoolVar(&smart, "smart", false, "use smart cropping")
	cmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "filter expression, repeatable, e.g. quality(85)")

	return cmd
}

type parsedPath struct {
	ObjectKey string         `json:"object_key"`
	Options   imagor.Options `json:"options"`
	Canonical string         `json:"canonical"`
}

// NewParseCommand creates the parse command
func NewParseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <path>",
		Short: "Parse a transform path into its object key and options",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, opts, err := imagor.ParsePath(strings.TrimPrefix(args[0], simpleimage.ProxyPrefix))
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(parsedPath{
				ObjectKey: key,
				Options:   opts,
				Canonical: imagor.CanonicalPath(key, opts),
			}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

// NewVerifyCommand creates the verify command
func NewVerifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <signed-url-or-path>",
		Short: "Check a signed imagor path against IMAGOR_SECRET",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			signer := cfg.BuildSigner()

			path := args[0]
			if host := signer.ImageHost(); host != "" {
				path = strings.TrimPrefix(path, host)
			}
			if err := signer.Verify(path); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "OK")
			return nil
		},
	}
}

// NewPresetsCommand creates the presets command
func NewPresetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the named transform presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tAVATARS\tPOSTS\tPATH")
			for _, name := range presets.Names() {
				opts, _ := presets.Get(name)
				fmt.Fprintf(w, "%s\t%t\t%t\t%s\n",
					name,
					contains(presets.ForPurpose(string(simpleimage.PurposeAvatar)), name),
					contains(presets.ForPurpose(string(simpleimage.PurposePost)), name),
					imagor.CanonicalPath("<key>", opts),
				)
			}
			return w.Flush()
		},
	}
}

// NewImagesCommand creates the images command group
func NewImagesCommand() *cobra.Command {
	imagesCmd := &cobra.Command{
		Use:   "images",
		Short: "Inspect stored image records",
	}

	var owner string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List an owner's images with their preset URLs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ownerID, err := uuid.Parse(owner)
			if err != nil {
				return fmt.Errorf("invalid --owner: %w", err)
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			svc, closeService, err := cfg.BuildService(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer closeService()

			images, err := svc.ListImages(cmd.Context(), ownerID)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tPURPOSE\tSIZE\tCREATED\tOBJECT KEY")
			for _, image := range images {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
					image.ID, image.Purpose, image.Size,
					image.CreatedAt.Format(time.RFC3339), image.ObjectKey)
			}
			return w.Flush()
		},
	}
	listCmd.Flags().StringVar(&owner, "owner", "", "owner ID (required)")
	_ = listCmd.MarkFlagRequired("owner")

	imagesCmd.AddCommand(listCmd)
	return imagesCmd
}

// NewStorageCheckCommand uploads, inspects and deletes a probe object in the configured store
func NewStorageCheckCommand() *cobra.Command {
	var keep bool

	cmd := &cobra.Command{
		Use:   "storage-check",
		Short: "Round-trip a probe object through the configured blob store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			svc, closeService, err := cfg.BuildService(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer closeService()

			store, err := svc.GetBackend(cfg.StorageType)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			return storageCheck(ctx, cmd, store, keep)
		},
	}

	cmd.Flags().BoolVar(&keep, "keep", false, "leave the probe object in place")
	return cmd
}

func storageCheck(ctx context.Context, cmd *cobra.Command, store simpleimage.BlobStore, keep bool) error {
	out := cmd.OutOrStdout()
	key := fmt.Sprintf("healthcheck/%s.txt", uuid.New())
	data := []byte("simple-image storage check")

	err := store.UploadWithParams(ctx, bytes.NewReader(data), simpleimage.UploadParams{
		ObjectKey: key,
		MimeType:  "text/plain",
		Size:      int64(len(data)),
	})
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	fmt.Fprintf(out, "uploaded %s\n", key)

	meta, err := store.GetObjectMeta(ctx, key)
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}
	if meta.Size != int64(len(data)) {
		return fmt.Errorf("stat: expected %d bytes, store reports %d", len(data), meta.Size)
	}
	fmt.Fprintf(out, "stat ok (%d bytes, %s)\n", meta.Size, meta.ContentType)

	if keep {
		return nil
	}
	if err := store.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	if _, err := store.GetObjectMeta(ctx, key); !errors.Is(err, simpleimage.ErrObjectNotFound) {
		return fmt.Errorf("delete: object still present")
	}
	fmt.Fprintln(out, "deleted")
	return nil
}

// NewEnvCommand prints the supported environment variables
func NewEnvCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Describe the environment variables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := config.Description()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), desc)
			return nil
		},
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
