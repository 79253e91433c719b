package cli

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rescale/box-browse/internal/models"
	"github.com/rescale/box-browse/internal/pathutil"
	"github.com/rescale/box-browse/internal/state"
	"github.com/rescale/box-browse/internal/thumbnail"
)

// newThumbnailCmd creates the 'thumbnail' command.
func newThumbnailCmd() *cobra.Command {
	var folderID string
	var outputDir string
	var size int
	var icons bool

	cmd := &cobra.Command{
		Use:   "thumbnail <item>...",
		Short: "Save square thumbnails as PNG files",
		Long: `Fetch the thumbnails of files and save them as size x size PNG images.
Items are picked from the --in folder by ID or by name pattern.

Files without a thumbnail, and folders and web links, are skipped unless
--icons is given, in which case their placeholder icon is saved instead.

Example:
  box-browse thumbnail '*.jpg' --in 12345 -o thumbs
  box-browse thumbnail 98765 --size 256 --icons`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			if size <= 0 {
				size = s.cfg.ThumbnailSize
			}
			dir, err := pathutil.ResolveDir(outputDir)
			if err != nil {
				return fmt.Errorf("invalid output directory: %w", err)
			}
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}

			ctx := GetContext()
			_, selected, err := s.selectItems(ctx, folderID, args)
			if err != nil {
				return err
			}

			type thumb struct {
				item *state.Item
				img  image.Image
			}
			results := make(chan thumb, len(selected))
			for _, item := range selected {
				if _, ok := models.AsFile(item.Model()); !ok {
					results <- thumb{item: item}
					continue
				}
				s.service.LoadThumbnail(item.ID().ID, size, func(img image.Image) {
					results <- thumb{item: item, img: img}
				})
			}

			placeholders := thumbnail.NewIcons()
			out := cmd.OutOrStdout()
			for range selected {
				var t thumb
				select {
				case t = <-results:
				case <-ctx.Done():
					return ctx.Err()
				}

				img, kind := t.img, "thumbnail"
				if img == nil {
					if !icons {
						fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: no thumbnail\n", t.item.Name())
						continue
					}
					img, kind = placeholders.Icon(t.item.Icon(), size), "icon"
				}

				path, err := pathutil.Join(dir, thumbnailFileName(t.item.ID().ID, t.item.Name()))
				if err != nil {
					return err
				}
				written, err := writePNG(path, img)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s\t%s (%s, %s)\n", t.item.Name(), path, kind, humanize.Bytes(uint64(written)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&folderID, "in", models.RootFolderID, "Folder holding the items")
	cmd.Flags().StringVarP(&outputDir, "outdir", "o", ".", "Directory to write PNG files to")
	cmd.Flags().IntVar(&size, "size", 0, "Edge length in pixels (default: thumbnails.size from config)")
	cmd.Flags().BoolVar(&icons, "icons", false, "Save placeholder icons for items without a thumbnail")

	return cmd
}

// thumbnailFileName is "<id>-<name>.png", without the name's extension
// and with path separators replaced.
func thumbnailFileName(id, name string) string {
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == os.PathSeparator {
			return '_'
		}
		return r
	}, name)
	return id + "-" + name + ".png"
}

func writePNG(path string, img image.Image) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return 0, fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
