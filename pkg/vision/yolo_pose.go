package vision

import (
	"fmt"
	"image"
	"os"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-poseperfect/pkg/debug"
	"github.com/teslashibe/go-poseperfect/pkg/pose"
)

// YOLOv8-pose output layout per anchor: cx, cy, w, h, score, then x, y, conf
// for each of the 17 COCO keypoints.
const (
	poseBoxChannels = 5
	poseKeypoints   = len(pose.COCOJoints)
	poseChannels    = poseBoxChannels + 3*poseKeypoints // 56
)

// YOLOPoseDetector runs YOLOv8-pose through the OpenCV DNN module.
type YOLOPoseDetector struct {
	net       gocv.Net
	config    DetectorConfig
	mu        sync.Mutex
	inputSize image.Point
	now       func() time.Time
}

// NewYOLOPose loads a YOLOv8-pose ONNX model.
func NewYOLOPose(cfg DetectorConfig) (*YOLOPoseDetector, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, cfg.ModelPath)
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load pose model from %s", cfg.ModelPath)
	}

	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &YOLOPoseDetector{
		net:       net,
		config:    cfg,
		inputSize: image.Pt(cfg.InputWidth, cfg.InputHeight),
		now:       time.Now,
	}, nil
}

// Detect returns the highest scoring person in the JPEG, or nil if there is none.
func (d *YOLOPoseDetector) Detect(jpeg []byte) (*pose.Skeleton, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	img, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	defer img.Close()

	if img.Empty() {
		return nil, ErrEmptyFrame
	}
	captured := d.now()

	blob := gocv.BlobFromImage(img, 1.0/255.0, d.inputSize, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()

	channels, anchors := outputShape(output)
	if channels != poseChannels {
		return nil, fmt.Errorf("unexpected pose output shape: %d channels", channels)
	}

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read pose output: %w", err)
	}

	people := decodePoseOutput(data, anchors, d.config, float32(img.Cols()), float32(img.Rows()))
	if len(people) == 0 {
		return nil, nil
	}

	boxes := make([]image.Rectangle, len(people))
	scores := make([]float32, len(people))
	for i, p := range people {
		boxes[i] = p.box
		scores[i] = p.score
	}
	indices := gocv.NMSBoxes(boxes, scores, d.config.ConfidenceThresh, d.config.NMSThresh)

	best := selectBest(people, indices)
	if best == nil {
		return nil, nil
	}
	debug.Log("pose detected", "people", len(indices), "score", best.score)

	return pose.NewSkeleton(captured, best.keypoints[:]...), nil
}

// Close releases the model.
func (d *YOLOPoseDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

// outputShape returns (channels, anchors) for a [1, C, N] or [C, N] output.
func outputShape(m gocv.Mat) (int, int) {
	if dims := m.Size(); len(dims) == 3 {
		return dims[1], dims[2]
	}
	return m.Rows(), m.Cols()
}

type personCandidate struct {
	box       image.Rectangle // image pixels
	score     float32
	keypoints [poseKeypoints]pose.Keypoint
}

// decodePoseOutput reads a channel-major [56, anchors] tensor into candidates
// above the confidence threshold. Keypoints are normalized to [0,1] with Y up.
func decodePoseOutput(data []float32, anchors int, cfg DetectorConfig, imgW, imgH float32) []personCandidate {
	if anchors <= 0 || len(data) < poseChannels*anchors {
		return nil
	}
	at := func(c, i int) float32 { return data[c*anchors+i] }

	inW := float32(cfg.InputWidth)
	inH := float32(cfg.InputHeight)

	var people []personCandidate
	for i := 0; i < anchors; i++ {
		score := at(4, i)
		if score < cfg.ConfidenceThresh {
			continue
		}

		cx, cy, w, h := at(0, i), at(1, i), at(2, i), at(3, i)
		p := personCandidate{
			box: image.Rect(
				int((cx-w/2)*imgW/inW),
				int((cy-h/2)*imgH/inH),
				int((cx+w/2)*imgW/inW),
				int((cy+h/2)*imgH/inH),
			),
			score: score,
		}

		for k, joint := range pose.COCOJoints {
			base := poseBoxChannels + 3*k
			p.keypoints[k] = pose.Keypoint{
				Joint:      joint,
				X:          clamp01(float64(at(base, i) / inW)),
				Y:          clamp01(1 - float64(at(base+1, i)/inH)),
				Confidence: float64(at(base+2, i)),
			}
		}
		people = append(people, p)
	}
	return people
}

// selectBest picks the highest scoring survivor of NMS.
func selectBest(people []personCandidate, indices []int) *personCandidate {
	var best *personCandidate
	for _, idx := range indices {
		if idx < 0 || idx >= len(people) {
			continue
		}
		if best == nil || people[idx].score > best.score {
			best = &people[idx]
		}
	}
	return best
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
