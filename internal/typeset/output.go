package typeset

import (
	"os"
	"path/filepath"
	"strings"

	"paper-translator/internal/doc"
)

// OutputPaths computes the mono and dual output file names for an input
// document, for example paper.pdf translated to ko becomes
// paper-ko-mono.pdf and paper-ko-dual.pdf.
func OutputPaths(inputPath, langOut, outputDir string) (monoPath, dualPath string) {
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	if outputDir == "" {
		outputDir = filepath.Dir(inputPath)
	}
	monoPath = filepath.Join(outputDir, base+"-"+langOut+"-mono.pdf")
	dualPath = filepath.Join(outputDir, base+"-"+langOut+"-dual.pdf")
	return monoPath, dualPath
}

// CleanupPartial removes output files left behind by a failed render so a
// fatal error never leaves truncated PDFs on disk.
func CleanupPartial(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		os.Remove(p)
	}
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return doc.NewError(doc.ErrRenderFailed, "failed to read source PDF", err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return doc.NewError(doc.ErrRenderFailed, "failed to create output directory", err)
	}
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return doc.NewError(doc.ErrRenderFailed, "failed to write output PDF", err)
	}
	return nil
}
