// Package commands defines the opengeo CLI.
//
// Command groups
//
//   - raster      Inspect, convert, mask, resample and analyse rasters
//   - vector      Inspect and buffer vector datasets
//   - rasterize   Burn vector features into rasters
//   - proximity   Distance rasters and buffers
//   - focal       Moving-window statistics
//   - classify    Accuracy assessment and category areas
//   - files       File discovery and zip integrity checks
//   - config      Show or write the effective configuration
//
// # Implementation
//
// The root command loads the YAML config, applies flag overrides, builds the
// zap logger and initializes the GDAL runner before any subcommand runs. The
// logger travels in the command context so library packages can log without
// globals.
package commands
