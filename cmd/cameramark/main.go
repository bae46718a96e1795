// cameramark adds a white border with camera metadata to photos.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	_ "image/jpeg"
	_ "image/png"

	"k8s.io/klog/v2"

	"github.com/tstromberg/cameramark/pkg/cameramark"
)

var (
	inPath      string
	outDir      string
	fontPath    = flag.String("font", "", "TrueType font file to use instead of downloading one")
	fontURL     = flag.String("font_url", cameramark.DefaultFontURL, "URL of the TrueType font to download")
	quality     = flag.Int("quality", cameramark.DefaultQuality, "JPEG output quality (1-100)")
	useExiftool = flag.Bool("exiftool", false, "read metadata with the exiftool binary instead of the built-in reader")
	keepGoing   = flag.Bool("keep_going", false, "continue past files that fail, copying them to <output_folder>/unprocessed")
	watchFlag   = flag.Bool("watch", false, "after the first run, watch --path for new photos and mark them")
)

func init() {
	flag.StringVar(&inPath, "path", "", "Path to the image or a directory of images")
	flag.StringVar(&inPath, "p", "", "Shorthand for --path")
	flag.StringVar(&outDir, "output_folder", "./output", "Path to the output folder")
	flag.StringVar(&outDir, "of", "./output", "Shorthand for --output_folder")
}

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	if inPath == "" {
		klog.Exitf("--path is a required flag")
	}

	c := &cameramark.Config{
		InPath:      inPath,
		OutDir:      outDir,
		FontPath:    *fontPath,
		FontURL:     *fontURL,
		Quality:     *quality,
		UseExiftool: *useExiftool,
		KeepGoing:   *keepGoing,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fonts, err := cameramark.LoadFonts(ctx, cameramark.FontSource{Path: c.FontPath, URL: c.FontURL})
	if err != nil {
		klog.Exitf("font: %v", err)
	}
	defer fonts.Close()

	var meta cameramark.Extractor = cameramark.ExifReader{}
	if c.UseExiftool {
		et, err := cameramark.NewExiftoolReader()
		if err != nil {
			klog.Exitf("exiftool: %v", err)
		}
		defer func() {
			if err := et.Close(); err != nil {
				klog.Errorf("Failed to close exiftool: %v", err)
			}
		}()
		meta = et
	}

	m := cameramark.NewMarker(meta, fonts, c.Quality)

	s, err := cameramark.Run(ctx, c, m)
	if err != nil {
		klog.Exitf("run failed: %v", err)
	}
	klog.Infof("wrote %d files to %s", len(s.Written), c.OutDir)

	if !*watchFlag {
		return
	}

	w, err := cameramark.NewWatcher(c, m)
	if err != nil {
		klog.Exitf("watch: %v", err)
	}
	if err := w.Run(ctx); err != nil {
		klog.Exitf("watch: %v", err)
	}
}
