package layout

import (
	"fmt"
	"image"
	_ "image/png"
	"os"
	"os/exec"
	"path/filepath"

	"paper-translator/internal/logger"
)

// renderDPI is the rasterization resolution fed to the detection model.
const renderDPI = 150

// PageImage is a rasterized page plus its pixel dimensions.
type PageImage struct {
	Image  image.Image
	Width  int
	Height int
}

// Rasterizer converts PDF pages to images for the detection model using
// pdftoppm from poppler-utils.
type Rasterizer struct {
	dpi     int
	tempDir string
}

// NewRasterizer creates a Rasterizer. It returns an error when pdftoppm is
// not installed; callers treat that as the layout model being unavailable.
func NewRasterizer(dpi int) (*Rasterizer, error) {
	if dpi <= 0 {
		dpi = 72
	}
	if err := exec.Command("pdftoppm", "-v").Run(); err != nil {
		return nil, fmt.Errorf("pdftoppm not available: %w", err)
	}
	return &Rasterizer{dpi: dpi}, nil
}

// RenderPage rasterizes a single page.
func (r *Rasterizer) RenderPage(pdfPath string, pageNum int) (PageImage, error) {
	if r.tempDir == "" {
		dir, err := os.MkdirTemp("", "paper-translator-raster-*")
		if err != nil {
			return PageImage{}, fmt.Errorf("failed to create temp dir: %w", err)
		}
		r.tempDir = dir
	}

	prefix := filepath.Join(r.tempDir, fmt.Sprintf("page_%d", pageNum))
	cmd := exec.Command("pdftoppm",
		"-f", fmt.Sprintf("%d", pageNum),
		"-l", fmt.Sprintf("%d", pageNum),
		"-png",
		"-r", fmt.Sprintf("%d", r.dpi),
		"-singlefile",
		pdfPath, prefix)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return PageImage{}, fmt.Errorf("pdftoppm failed: %w, output: %s", err, string(output))
	}

	imgPath := prefix + ".png"
	img, err := loadImage(imgPath)
	if err != nil {
		return PageImage{}, fmt.Errorf("failed to load rendered page: %w", err)
	}
	os.Remove(imgPath)

	logger.Debug("page rasterized",
		logger.Int("page", pageNum),
		logger.Int("width", img.Bounds().Dx()),
		logger.Int("height", img.Bounds().Dy()))

	return PageImage{
		Image:  img,
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}, nil
}

// Cleanup removes the rasterizer's temp directory.
func (r *Rasterizer) Cleanup() {
	if r.tempDir != "" {
		os.RemoveAll(r.tempDir)
		r.tempDir = ""
	}
}

func loadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, err
	}
	return img, nil
}
