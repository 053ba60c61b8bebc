package detect

import (
	"errors"
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"
	"golang.org/x/sync/singleflight"

	"roadwatch/internal/config"
	"roadwatch/internal/logger"
	"roadwatch/internal/models"
)

const (
	// DetectionThreshold is the minimum confidence for reported boxes.
	DetectionThreshold = 0.5
	// blobSize is the network input size expected by the detector.
	blobSize = 300
)

var (
	// ErrModelUnavailable means the model never loaded and will not be retried.
	ErrModelUnavailable = errors.New("detection model unavailable")
	// ErrInference means a single inference pass failed; the model stays usable.
	ErrInference = errors.New("inference failed")
)

// Engine wraps the process-wide detection network. The network is loaded
// lazily on first use; the load outcome (success or failure) is cached for
// the life of the process so a known-bad model file fails fast instead of
// re-running an expensive load per request.
type Engine struct {
	modelPath  string
	configPath string
	logger     *logger.Logger

	loadGroup singleflight.Group
	loadFn    func() (gocv.Net, error)

	mu      sync.Mutex // guards load state and serializes inference
	net     gocv.Net
	loaded  bool
	loadErr error
}

func NewEngine(config *config.Config, logger *logger.Logger) *Engine {
	engine := &Engine{
		modelPath:  config.ModelPath,
		configPath: config.ConfigPath,
		logger:     logger,
	}
	engine.loadFn = engine.load
	return engine
}

// Detect runs one inference pass over a single decoded frame and returns
// zero or more bounding boxes. Calls are serialized: the underlying network
// is not safe for concurrent forward passes.
func (e *Engine) Detect(frame gocv.Mat) ([]models.BoundingBox, error) {
	if err := e.ensureLoaded(); err != nil {
		return nil, err
	}

	if frame.Empty() {
		return nil, fmt.Errorf("%w: empty frame", ErrInference)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	blob := gocv.BlobFromImage(frame, 1.0/127.5, image.Pt(blobSize, blobSize),
		gocv.NewScalar(127.5, 127.5, 127.5, 0), true, false)
	defer blob.Close()

	e.net.SetInput(blob, "")
	output := e.net.Forward("")
	defer output.Close()

	if output.Empty() {
		return nil, fmt.Errorf("%w: network produced no output", ErrInference)
	}

	// Output rows: [batch_id, class_id, confidence, x1, y1, x2, y2]
	var results []models.BoundingBox
	reshaped := output.Reshape(1, output.Total()/7)
	defer reshaped.Close()

	for i := 0; i < reshaped.Rows(); i++ {
		confidence := reshaped.GetFloatAt(i, 2)
		if confidence <= DetectionThreshold {
			continue
		}
		classID := int(reshaped.GetFloatAt(i, 1))
		x := int(reshaped.GetFloatAt(i, 3) * float32(frame.Cols()))
		y := int(reshaped.GetFloatAt(i, 4) * float32(frame.Rows()))
		width := int(reshaped.GetFloatAt(i, 5)*float32(frame.Cols())) - x
		height := int(reshaped.GetFloatAt(i, 6)*float32(frame.Rows())) - y

		results = append(results, models.BoundingBox{
			Label:      getClassLabel(classID),
			Confidence: float64(confidence),
			X:          x,
			Y:          y,
			Width:      width,
			Height:     height,
		})
	}

	return results, nil
}

// ensureLoaded loads the network exactly once across concurrent callers and
// returns the cached outcome on every subsequent call.
func (e *Engine) ensureLoaded() error {
	e.mu.Lock()
	if e.loaded {
		err := e.loadErr
		e.mu.Unlock()
		return err
	}
	e.mu.Unlock()

	e.loadGroup.Do("model", func() (interface{}, error) {
		net, err := e.loadFn()

		e.mu.Lock()
		defer e.mu.Unlock()
		e.loaded = true
		if err != nil {
			e.loadErr = fmt.Errorf("%w: %v", ErrModelUnavailable, err)
			e.logger.Error("Could not initialize detection network: %v", err)
			return nil, e.loadErr
		}
		e.net = net
		e.logger.Info("Detection network initialized successfully")
		return nil, nil
	})

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadErr
}

// load reads the network from disk and sets backend/target preferences.
func (e *Engine) load() (gocv.Net, error) {
	if _, err := os.Stat(e.modelPath); os.IsNotExist(err) {
		return gocv.Net{}, fmt.Errorf("model file not found: %s", e.modelPath)
	}
	if _, err := os.Stat(e.configPath); os.IsNotExist(err) {
		return gocv.Net{}, fmt.Errorf("config file not found: %s", e.configPath)
	}

	net := gocv.ReadNet(e.modelPath, e.configPath)
	if net.Empty() {
		return gocv.Net{}, fmt.Errorf("failed to load network from %s", e.modelPath)
	}

	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return gocv.Net{}, fmt.Errorf("failed to set preferable backend or target")
	}

	return net, nil
}

// Close releases the network if it was ever loaded.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loaded && e.loadErr == nil {
		e.net.Close()
	}
}

// getClassLabel maps model class IDs to road damage labels.
func getClassLabel(classID int) string {
	labels := map[int]string{
		1: "longitudinal_crack",
		2: "transverse_crack",
		3: "alligator_crack",
		4: "pothole",
	}

	if label, exists := labels[classID]; exists {
		return label
	}
	return fmt.Sprintf("damage_%d", classID)
}
