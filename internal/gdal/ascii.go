package gdal

import (
	"context"
	"fmt"
	"os"
	"strconv"
)

// BandToAAIGrid converts a single band of a raster to an Arc/Info ASCII Grid.
func BandToAAIGrid(ctx context.Context, input string, band int, outputAsc string) error {
	if band < 1 {
		return fmt.Errorf("band index must be >= 1, got %d", band)
	}
	if err := removeIfExists(outputAsc); err != nil {
		return err
	}

	args := []string{"-of", "AAIGrid"}
	if band != 1 {
		args = append(args, "-b", strconv.Itoa(band))
	}
	args = append(args, input, outputAsc)

	_, _, err := Run(ctx, "gdal_translate", args...)
	if err != nil {
		return fmt.Errorf("gdal_translate: %w", err)
	}

	return nil
}

func removeIfExists(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("remove output: %w", err)
		}
		return nil
	}
	if os.IsNotExist(err) {
		return nil
	}
	return fmt.Errorf("stat output: %w", err)
}
