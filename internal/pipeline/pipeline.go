package pipeline

import (
	"errors"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"roadwatch/internal/alert"
	"roadwatch/internal/detect"
	"roadwatch/internal/logger"
	"roadwatch/internal/media"
	"roadwatch/internal/models"
	"roadwatch/internal/repository"
)

// Detector runs inference on one decoded frame.
type Detector interface {
	Detect(frame gocv.Mat) ([]models.BoundingBox, error)
}

// Renderer writes an annotated copy of a positive frame and returns its path.
type Renderer interface {
	Render(frame gocv.Mat, boxes []models.BoundingBox, artifactName string, frameIndex int) (string, error)
}

// Dispatcher delivers an alert for a positive summary.
type Dispatcher interface {
	Dispatch(summary *models.DetectionSummary) (*alert.Result, error)
}

// FrameSource is a lazy, finite, non-restartable sequence of sampled frames.
type FrameSource interface {
	Next(dst *gocv.Mat) (int, bool)
	Close() error
}

// VideoOpener opens a staged video artifact as a FrameSource.
type VideoOpener func(path string) (FrameSource, error)

// Pipeline orchestrates one detection run: decode, per-frame inference,
// annotation, aggregation, persistence, and conditional alerting. A run is
// strictly sequential over frames; concurrent runs are safe because every
// shared collaborator guards its own state.
type Pipeline struct {
	detector   Detector
	renderer   Renderer
	dispatcher Dispatcher
	records    repository.RecordRepository
	store      *media.Store
	logger     *logger.Logger
	openVideo  VideoOpener
}

func New(detector Detector, renderer Renderer, dispatcher Dispatcher, records repository.RecordRepository, store *media.Store, logger *logger.Logger) *Pipeline {
	return &Pipeline{
		detector:   detector,
		renderer:   renderer,
		dispatcher: dispatcher,
		records:    records,
		store:      store,
		logger:     logger,
		openVideo: func(path string) (FrameSource, error) {
			return media.OpenSampler(path)
		},
	}
}

// RunImageDetection executes one run over a staged image artifact.
func (p *Pipeline) RunImageDetection(userID int64, artifactPath, location string) (*models.DetectionSummary, error) {
	frame := gocv.IMRead(artifactPath, gocv.IMReadColor)
	if frame.Empty() {
		return nil, newError(KindMediaOpenFailed, "could not read image artifact", nil)
	}
	defer frame.Close()

	return p.runSingleFrame(userID, frame, artifactPath, location, models.TypeImage)
}

// RunCameraDetection stages a base64 camera capture and executes one run
// over it.
func (p *Pipeline) RunCameraDetection(userID int64, encoded, location string) (*models.DetectionSummary, error) {
	artifact, err := p.store.SaveCapture(encoded)
	if err != nil {
		return nil, classifyMediaError(err)
	}

	frame := gocv.IMRead(artifact.Path, gocv.IMReadColor)
	if frame.Empty() {
		return nil, newError(KindInvalidInput, "camera payload is not a decodable image", nil)
	}
	defer frame.Close()

	return p.runSingleFrame(userID, frame, artifact.Path, location, models.TypeCamera)
}

// RunVideoDetection executes one run over a staged video artifact, sampling
// frames at a bounded rate. A failed frame is skipped; the run aborts only
// when the media cannot be opened or the model is unavailable.
func (p *Pipeline) RunVideoDetection(userID int64, artifactPath, location string) (*models.DetectionSummary, error) {
	source, err := p.openVideo(artifactPath)
	if err != nil {
		return nil, newError(KindMediaOpenFailed, "could not open video artifact", err)
	}
	defer source.Close()

	summary := p.newSummary(models.TypeVideo, artifactPath, location)
	artifactName := filepath.Base(artifactPath)

	agg := NewAggregator()
	frame := gocv.NewMat()
	defer frame.Close()

	for {
		index, ok := source.Next(&frame)
		if !ok {
			break
		}

		boxes, err := p.detector.Detect(frame)
		if err != nil {
			if errors.Is(err, detect.ErrModelUnavailable) {
				return nil, newError(KindModelUnavailable, "detection model unavailable", err)
			}
			p.logger.Error("Run %s: frame %d inference failed, skipping: %v", summary.RunID, index, err)
			continue
		}

		if len(boxes) == 0 {
			agg.Observe(index, 0, "", nil)
			continue
		}

		resultPath, renderErr := p.renderer.Render(frame, boxes, artifactName, index)
		if renderErr != nil {
			p.logger.Error("Run %s: frame %d annotation failed, skipping: %v", summary.RunID, index, renderErr)
		}
		agg.Observe(index, len(boxes), resultPath, renderErr)
	}

	summary.TotalCount = agg.TotalCount()
	summary.Positives = agg.Positives()

	return p.finish(userID, summary)
}

// runSingleFrame is the shared image/camera path: one frame, one result.
// Unlike video, a failed inference aborts the run because there is no next
// frame to continue with.
func (p *Pipeline) runSingleFrame(userID int64, frame gocv.Mat, artifactPath, location string, kind models.DetectionType) (*models.DetectionSummary, error) {
	summary := p.newSummary(kind, artifactPath, location)

	boxes, err := p.detector.Detect(frame)
	if err != nil {
		if errors.Is(err, detect.ErrModelUnavailable) {
			return nil, newError(KindModelUnavailable, "detection model unavailable", err)
		}
		return nil, newError(KindInferenceFailed, "inference failed on image", err)
	}

	agg := NewAggregator()
	if len(boxes) > 0 {
		resultPath, renderErr := p.renderer.Render(frame, boxes, filepath.Base(artifactPath), 0)
		if renderErr != nil {
			p.logger.Error("Run %s: annotation failed: %v", summary.RunID, renderErr)
		}
		agg.Observe(0, len(boxes), resultPath, renderErr)
	} else {
		agg.Observe(0, 0, "", nil)
	}

	summary.TotalCount = agg.TotalCount()
	summary.Positives = agg.Positives()

	return p.finish(userID, summary)
}

// finish persists the record and, for positive summaries, dispatches the
// alert. The record is written even when dispatch fails so a detection is
// never lost to a notification problem; a storage failure is fatal because
// a completed detection with no record is not an accepted end state.
func (p *Pipeline) finish(userID int64, summary *models.DetectionSummary) (*models.DetectionSummary, error) {
	alertSent := false
	if summary.TotalCount > 0 {
		result, err := p.dispatcher.Dispatch(summary)
		switch {
		case err != nil:
			p.logAlertFailure(summary.RunID, err)
		case result.Status == alert.PartiallyDelivered:
			alertSent = true
			p.logger.Warning("Run %s: alert partially delivered (%d/%d attachments)",
				summary.RunID, result.Attached, result.Requested)
		default:
			alertSent = true
		}
	}

	record := &models.DetectionRecord{
		UserID:     userID,
		Type:       string(summary.Type),
		Location:   summary.Location,
		SourcePath: summary.SourcePath,
		ResultPath: summary.ResultPath(),
		TotalCount: summary.TotalCount,
		AlertSent:  alertSent,
		CreatedAt:  summary.Timestamp,
	}

	if _, err := p.records.Insert(record); err != nil {
		return nil, newError(KindStorage, "failed to persist detection record", err)
	}

	p.logger.Info("🛣️  Run %s complete: type=%s count=%d alert_sent=%t",
		summary.RunID, summary.Type, summary.TotalCount, alertSent)
	return summary, nil
}

func (p *Pipeline) newSummary(kind models.DetectionType, artifactPath, location string) *models.DetectionSummary {
	return &models.DetectionSummary{
		RunID:      uuid.NewString(),
		Type:       kind,
		Location:   location,
		SourcePath: artifactPath,
		Timestamp:  time.Now(),
	}
}

// logAlertFailure separates the remediation paths: missing or rejected
// credentials need rotation, transport failures are usually transient.
func (p *Pipeline) logAlertFailure(runID string, err error) {
	switch {
	case errors.Is(err, alert.ErrCredentialsMissing):
		p.logger.Error("Run %s: alert skipped, credentials missing", runID)
	case errors.Is(err, alert.ErrAuth):
		p.logger.Error("Run %s: alert authentication failed: %v", runID, err)
	default:
		p.logger.Error("Run %s: alert transport failed: %v", runID, err)
	}
}

// classifyMediaError maps staging errors onto the user-facing taxonomy.
func classifyMediaError(err error) *Error {
	switch {
	case errors.Is(err, media.ErrUnsupportedType):
		return newError(KindUnsupportedMediaType, "unsupported media type", err)
	case errors.Is(err, media.ErrEmptyPayload):
		return newError(KindInvalidInput, "empty or invalid payload", err)
	default:
		return newError(KindInvalidInput, "could not stage input", err)
	}
}
