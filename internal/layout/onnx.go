package layout

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"paper-translator/internal/logger"
)

const (
	// modelInputSize is the square input resolution of DocLayout-YOLO.
	modelInputSize = 1024
	// modelURL is where missing weights are fetched from at startup.
	modelURL = "https://huggingface.co/wybxc/DocLayout-YOLO-DocStructBench-onnx/resolve/main/doclayout_yolo_docstructbench_imgsz1024.onnx"

	defaultConfThreshold = 0.25
	defaultNMSThreshold  = 0.45
)

var (
	ortInitOnce sync.Once
	ortInitErr  error
)

func initRuntime() error {
	ortInitOnce.Do(func() {
		ortInitErr = ort.InitializeEnvironment()
	})
	return ortInitErr
}

// ONNXDetector runs DocLayout-YOLO through onnxruntime.
type ONNXDetector struct {
	modelPath string
	session   *ort.DynamicAdvancedSession
	pre       *preprocessor
	post      *postProcessor
}

// NewONNXDetector loads the model at modelPath, fetching it from the remote
// store when missing. Any failure here means the layout model is unavailable
// and the classifier falls back to regex-only operation.
func NewONNXDetector(modelPath string) (*ONNXDetector, error) {
	if modelPath == "" {
		return nil, fmt.Errorf("layout model path not configured")
	}
	if err := FetchModel(modelPath); err != nil {
		return nil, err
	}
	if err := initRuntime(); err != nil {
		return nil, fmt.Errorf("onnxruntime initialization failed: %w", err)
	}

	session, err := ort.NewDynamicAdvancedSession(modelPath,
		[]string{"images"}, []string{"output0"}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	logger.Info("layout detection model loaded", logger.String("path", modelPath))
	return &ONNXDetector{
		modelPath: modelPath,
		session:   session,
		pre:       newPreprocessor(modelInputSize),
		post:      newPostProcessor(defaultConfThreshold, defaultNMSThreshold),
	}, nil
}

// Detect implements Detector.
func (d *ONNXDetector) Detect(img PageImage, pageNum int, pageWidth, pageHeight float64) ([]Element, error) {
	data, shape := d.pre.run(img.Image)

	inputTensor, err := ort.NewTensor(ort.NewShape(shape...), data)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	outputs := []ort.Value{nil}
	if err := d.session.Run([]ort.Value{inputTensor}, outputs); err != nil {
		return nil, fmt.Errorf("ONNX inference failed: %w", err)
	}
	outTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected ONNX output type %T", outputs[0])
	}
	defer outTensor.Destroy()

	elements := d.post.run(outTensor.GetData(), pageWidth, pageHeight, pageNum)

	logger.Debug("layout detection complete",
		logger.Int("page", pageNum),
		logger.Int("elements", len(elements)))
	return elements, nil
}

// Close releases the ONNX session.
func (d *ONNXDetector) Close() error {
	if d.session != nil {
		return d.session.Destroy()
	}
	return nil
}

// FetchModel downloads the model weights when they are not present locally.
func FetchModel(modelPath string) error {
	if _, err := os.Stat(modelPath); err == nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(modelPath), 0755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	logger.Info("downloading layout detection model",
		logger.String("url", modelURL),
		logger.String("destination", modelPath))

	resp, err := http.Get(modelURL)
	if err != nil {
		return fmt.Errorf("model download failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model download failed: status %d", resp.StatusCode)
	}

	tmp := modelPath + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create model file: %w", err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write model file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, modelPath)
}
