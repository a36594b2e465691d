package registration

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// ChangeKind tells listeners what kind of action changed the model
type ChangeKind int

const (
	ParametersChanged ChangeKind = iota
	MatrixChanged
	CenterChanged
	UnitChanged
	ResetDone
	ElastixLoaded
	Cancelled
)

func (k ChangeKind) String() string {
	switch k {
	case ParametersChanged:
		return "parameters"
	case MatrixChanged:
		return "matrix"
	case CenterChanged:
		return "center"
	case UnitChanged:
		return "unit"
	case ResetDone:
		return "reset"
	case ElastixLoaded:
		return "elastix"
	case Cancelled:
		return "cancel"
	default:
		return "unknown"
	}
}

// Snapshot is a copy of everything a view needs to display the model
type Snapshot struct {
	Session            uuid.UUID
	Matrix             mgl64.Mat4
	Center             mgl64.Vec3
	Angles             mgl64.Vec3
	Translation        mgl64.Vec3
	Unit               AngleUnit
	DisplayAngles      [3]float64
	RotationSliders    [3]int
	TranslationSliders [3]int
}

// Change is delivered to listeners after every mutation
type Change struct {
	Kind     ChangeKind
	Snapshot Snapshot
}

// Listener receives model changes
type Listener interface {
	ModelChanged(Change)
}

// ListenerFunc adapts a function to the Listener interface
type ListenerFunc func(Change)

// ModelChanged calls f
func (f ListenerFunc) ModelChanged(c Change) { f(c) }

// Subscribe registers l and returns a function removing it again
func (m *Model) Subscribe(l Listener) (unsubscribe func()) {
	id := m.nextID
	m.nextID++
	m.listeners[id] = l
	return func() { delete(m.listeners, id) }
}

// Snapshot returns the current state
func (m *Model) Snapshot() Snapshot {
	return Snapshot{
		Session:            m.id,
		Matrix:             m.matrix,
		Center:             m.center,
		Angles:             m.angles,
		Translation:        m.translation,
		Unit:               m.unit,
		DisplayAngles:      m.DisplayAngles(),
		RotationSliders:    m.rotationSliders,
		TranslationSliders: m.translationSliders,
	}
}

// notify calls listeners in subscription order
func (m *Model) notify(kind ChangeKind) {
	if len(m.listeners) == 0 {
		return
	}
	change := Change{Kind: kind, Snapshot: m.Snapshot()}
	for id := 0; id < m.nextID; id++ {
		if l, ok := m.listeners[id]; ok {
			l.ModelChanged(change)
		}
	}
}
