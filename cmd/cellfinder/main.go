package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/singingmicelab/cellfinder/pkg/config"
	"github.com/singingmicelab/cellfinder/pkg/detection"
	"github.com/singingmicelab/cellfinder/pkg/visualization"
)

func main() {
	// Parse command line arguments
	inputDir := flag.String("input", "", "Directory containing the plane images of the z-stack")
	outputDir := flag.String("output", "marked_planes", "Directory to save marked plane images")
	configPath := flag.String("config", "cellfinder.yaml", "Path to the YAML configuration file")
	writeConfig := flag.Bool("write-config", false, "Write the default configuration to -config and exit")
	kernelXY := flag.Int("kernel-xy", 0, "Override the kernel xy diameter in voxels")
	kernelZ := flag.Int("kernel-z", 0, "Override the kernel z diameter (window depth) in voxels")
	threshold := flag.Uint("threshold", 0, "Override the high-intensity threshold value")
	overlap := flag.Float64("overlap", 0, "Override the kernel overlap fraction")
	savePlanes := flag.Bool("save-planes", false, "Save marked middle planes as a PNG sequence")
	flag.Parse()

	if *writeConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write default config: %v", err)
		}
		fmt.Printf("Default configuration written to: %s\n", *configPath)
		return
	}

	// Validate inputs
	if *inputDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	// Load configuration and apply command line overrides
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *kernelXY > 0 {
		cfg.Detection.KernelXYSize = *kernelXY
	}
	if *kernelZ > 0 {
		cfg.Detection.KernelZSize = *kernelZ
	}
	if *threshold > 0 {
		cfg.Detection.ThresholdValue = uint32(*threshold)
	}
	if *overlap > 0 {
		cfg.Detection.OverlapFraction = *overlap
	}
	if *savePlanes {
		cfg.Output.SaveMarkedPlanes = true
	}

	fmt.Println("================================")
	fmt.Println("CELLFINDER: SPHERICAL-KERNEL SOMA DETECTION IN 3D IMAGE STACKS")
	fmt.Println("================================")

	// Run the detection pipeline
	detector := detection.NewDetector(cfg, *inputDir)
	fmt.Println("Starting volumetric scan...")
	startTime := time.Now()
	if err := detector.Run(); err != nil {
		log.Fatalf("Detection failed: %v", err)
	}
	processingTime := time.Since(startTime)

	// Display run statistics
	stats := detector.GetStats()
	width, height := detector.PlaneDimensions()
	fmt.Printf("\nDetection completed successfully in %.2f seconds!\n\n", processingTime.Seconds())
	fmt.Printf("Run statistics:\n")
	fmt.Printf("===============\n")
	fmt.Printf("Plane dimensions: %dx%d\n", width, height)
	fmt.Printf("Planes loaded: %d\n", stats.PlanesLoaded)
	fmt.Printf("Window positions scanned: %d\n", stats.PlanesScanned)
	fmt.Printf("Soma centre marks: %d\n", stats.MarkedVoxels)
	fmt.Printf("Marks per plane: %.2f +/- %.2f\n", stats.MarksPerPlaneMean, stats.MarksPerPlaneStdDev)

	// Save marked planes if requested
	if cfg.Output.SaveMarkedPlanes {
		fmt.Printf("\nSaving marked planes to: %s\n", *outputDir)
		viewer := visualization.NewViewer(detector.MarkedPlanes(), cfg.Detection.SomaCentreValue)
		if err := viewer.SavePlaneSequence(*outputDir); err != nil {
			log.Printf("Warning: Failed to save marked planes: %v", err)
		} else {
			fmt.Println("Marked plane export completed!")
		}
	}
}
