package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"patternforge/internal/models"
	"patternforge/pkg/config"
	"patternforge/pkg/export"
	"patternforge/pkg/pipeline"
	"patternforge/pkg/raster"
)

func main() {
	// Parse command line arguments
	inputPath := flag.String("input", "", "Pattern image to convert (png, jpeg, bmp, tiff)")
	outputPath := flag.String("output", "output.stl", "Output mesh filename (.stl, .obj, .gltf, .glb)")
	configPath := flag.String("config", "", "Optional YAML configuration file")
	formatName := flag.String("format", "", "Export format (overrides the output file extension)")
	shape := flag.String("shape", "", "Target shape (overrides config; 'auto' resolves from the pattern)")
	density := flag.Float64("density", -1, "Point extraction density 0-1 (overrides config)")
	subdivision := flag.Int("subdivision", -1, "Subdivision level 0-5 (overrides config)")
	smoothing := flag.Int("smoothing", -1, "Laplacian smoothing iterations (overrides config)")
	scale := flag.Float64("scale", 0, "Pattern scale multiplier (overrides config)")
	hollow := flag.Bool("hollow", false, "Generate a hollow shell")
	edgeMap := flag.Bool("edge-map", false, "Save the detected edge map next to the output")
	writeConfig := flag.String("write-config", "", "Write a default configuration file to this path and exit")
	flag.Parse()

	if *writeConfig != "" {
		if err := config.CreateDefaultConfigFile(*writeConfig); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Default configuration written to: %s\n", *writeConfig)
		return
	}

	// Validate inputs
	if *inputPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	applyOverrides(cfg, *shape, *subdivision, *smoothing, *scale, *density, *hollow, *edgeMap)

	logger := newLogger(cfg.Output.Verbose)
	defer logger.Sync()

	format := models.ExportFormat(*formatName)
	if *formatName == "" {
		var err error
		format, err = export.FormatForExtension(filepath.Ext(*outputPath))
		if err != nil {
			// Fall back to the configured format for unrecognized extensions.
			format = models.ExportFormat(cfg.Output.Format)
		}
	}

	fmt.Println("================================")
	fmt.Println("PATTERNFORGE: 2D PATTERN TO PARAMETERIZED 3D MESH")
	fmt.Println("================================")

	img, err := loadImage(*inputPath, cfg.Limits.MaxImageDimension)
	if err != nil {
		log.Fatalf("Failed to load image: %v", err)
	}

	fmt.Printf("Analyzing %s (%dx%d)...\n", *inputPath, img.Width, img.Height)
	startTime := time.Now()

	p := pipeline.New(cfg, logger)
	result, err := p.Run(context.Background(), img, format)
	if err != nil {
		log.Fatalf("Pipeline failed: %v", err)
	}
	elapsed := time.Since(startTime)

	if err := os.WriteFile(*outputPath, result.Artifact.Data, 0644); err != nil {
		log.Fatalf("Failed to write output: %v", err)
	}

	fmt.Printf("\nConversion completed in %.2f seconds!\n", elapsed.Seconds())
	fmt.Printf("Output mesh saved to: %s\n\n", *outputPath)

	fmt.Printf("Pattern analysis:\n")
	fmt.Printf("=================\n")
	fmt.Printf("Primary type: %s (confidence %.2f)\n",
		result.Classification.Primary.Type, result.Classification.Primary.Confidence)
	for _, s := range result.Classification.Secondary {
		if s.Confidence > 0 {
			fmt.Printf("  runner-up: %s (%.2f)\n", s.Type, s.Confidence)
		}
	}
	fmt.Printf("Rotational order: %d\n", result.Analysis.Symmetry.RotationalOrder)
	fmt.Printf("Reflection axes: %v\n", result.Analysis.Symmetry.ReflectionAxes)
	fmt.Printf("Edge pixels: %d\n", result.Analysis.Edges.EdgeCount())
	fmt.Printf("Significant points: %d\n", result.Points.Len())

	fmt.Printf("\nGenerated mesh:\n")
	fmt.Printf("===============\n")
	fmt.Printf("Vertices: %d\n", len(result.Mesh.Vertices))
	fmt.Printf("Faces: %d\n", len(result.Mesh.Faces))
	fmt.Printf("Format: %s (%d bytes)\n", result.Artifact.Format, result.Artifact.Len())

	if cfg.Output.SaveEdgeMap {
		edgePath := strings.TrimSuffix(*outputPath, filepath.Ext(*outputPath)) + "_edges.png"
		if err := saveEdgeMap(result.Analysis.Edges, edgePath); err != nil {
			log.Printf("Warning: Failed to save edge map: %v", err)
		} else {
			fmt.Printf("\nEdge map saved to: %s\n", edgePath)
		}
	}
}

// applyOverrides folds command line flags over the loaded configuration.
func applyOverrides(cfg *config.Config, shape string, subdivision, smoothing int, scale, density float64, hollow, edgeMap bool) {
	if shape != "" {
		cfg.Geometry.Shape = shape
	}
	if density >= 0 {
		cfg.Extraction.Density = density
	}
	if subdivision >= 0 {
		cfg.Geometry.SubdivisionLevel = subdivision
	}
	if smoothing >= 0 {
		cfg.Geometry.SmoothingIterations = smoothing
	}
	if scale > 0 {
		cfg.Geometry.PatternScale = scale
	}
	if hollow {
		cfg.Geometry.Hollow = true
	}
	if edgeMap {
		cfg.Output.SaveEdgeMap = true
	}
}

func newLogger(verbose bool) *zap.Logger {
	zcfg := zap.NewProductionConfig()
	if verbose {
		zcfg = zap.NewDevelopmentConfig()
	}
	logger, err := zcfg.Build()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	return logger
}

// loadImage decodes the input and downsamples oversized images so the
// analysis stays within the configured dimension ceiling.
func loadImage(path string, maxDim int) (*models.RasterImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	decoded, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return raster.FromImage(raster.Downsample(decoded, maxDim))
}

func saveEdgeMap(edges *models.EdgeMap, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	img := raster.ToGrayImage(&models.RasterImage{
		Width:  edges.Width,
		Height: edges.Height,
		Pixels: edges.Magnitude,
	})
	return png.Encode(f, img)
}
