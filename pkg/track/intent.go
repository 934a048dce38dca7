package track

// IntentKind is what the scene should do with an obstacle.
type IntentKind string

const (
	IntentCreate  IntentKind = "create"
	IntentMove    IntentKind = "move"
	IntentDestroy IntentKind = "destroy"
)

// Intent tells the scene collaborator about an obstacle change. The core
// never renders; it only says what happened.
type Intent struct {
	Kind       IntentKind `json:"kind"`
	ObstacleID uint64     `json:"obstacle_id"`
	Position   float64    `json:"position"`
	Delta      float64    `json:"delta,omitempty"`
	Pose       string     `json:"pose"` // visual tag: which cutout to show
	Resolution string     `json:"resolution,omitempty"`
}

// SceneSink receives intents. Emit is called on the tick goroutine and must not block.
type SceneSink interface {
	Emit(Intent)
}

// SceneFunc adapts a function to SceneSink.
type SceneFunc func(Intent)

// Emit calls f.
func (f SceneFunc) Emit(i Intent) { f(i) }

// MultiSink fans intents out to several sinks.
type MultiSink []SceneSink

// Emit forwards to every non-nil sink.
func (m MultiSink) Emit(i Intent) {
	for _, s := range m {
		if s != nil {
			s.Emit(i)
		}
	}
}
