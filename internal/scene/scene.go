package scene

import (
	"math"

	"github.com/starfield/engine/internal/data"
)

type Transform struct {
	Position data.Vec3
	Scale    float64
	Rotation float64 // radians about Y
}

type Orbit struct {
	Center data.Vec3
	Radius float64
	Period float64
	Angle  float64
}

type Spin struct {
	Rate float64
}

// Lifetime counts down the seconds a body has left.
type Lifetime struct {
	Remaining float64
}

// Body names a node and its model for draw submission.
type Body struct {
	Name  string
	Model string
}

// Scene owns the body nodes and their components. Removal is deferred to
// Flush so a frame never observes a half-removed node.
type Scene struct {
	pool       nodePool
	stores     []remover
	removeList []NodeID

	Bodies     *Store[Body]
	Transforms *Store[Transform]
	Orbits     *Store[Orbit]
	Spins      *Store[Spin]
	Lifetimes  *Store[Lifetime]
}

func New() *Scene {
	s := &Scene{
		Bodies:     NewStore[Body](),
		Transforms: NewStore[Transform](),
		Orbits:     NewStore[Orbit](),
		Spins:      NewStore[Spin](),
		Lifetimes:  NewStore[Lifetime](),
	}
	s.stores = []remover{s.Bodies, s.Transforms, s.Orbits, s.Spins, s.Lifetimes}
	return s
}

// Load spawns one node per table entry.
func (s *Scene) Load(table *data.SceneTable) {
	for _, e := range table.Bodies() {
		s.Spawn(e)
	}
}

// Spawn adds a body described by e and returns its node.
func (s *Scene) Spawn(e data.BodyEntry) NodeID {
	id := s.pool.create()
	s.Bodies.Set(id, &Body{Name: e.Name, Model: e.Model})
	s.Transforms.Set(id, &Transform{Position: e.Position, Scale: e.Scale})
	if e.SpinRate != 0 {
		s.Spins.Set(id, &Spin{Rate: e.SpinRate})
	}
	if e.Lifetime > 0 {
		s.Lifetimes.Set(id, &Lifetime{Remaining: e.Lifetime})
	}
	if e.Orbit != nil {
		o := &Orbit{Center: e.Orbit.Center, Radius: e.Orbit.Radius, Period: e.Orbit.Period}
		s.Orbits.Set(id, o)
		s.Transforms.data[id].Position = o.position()
	}
	return id
}

func (s *Scene) Alive(id NodeID) bool { return s.pool.alive(id) }

// Remove queues a node for removal at the next Flush.
func (s *Scene) Remove(id NodeID) {
	s.removeList = append(s.removeList, id)
}

// Flush drops queued nodes from every store and returns how many were removed.
func (s *Scene) Flush() int {
	n := 0
	for _, id := range s.removeList {
		if !s.pool.destroy(id) {
			continue
		}
		for _, st := range s.stores {
			st.remove(id)
		}
		n++
	}
	s.removeList = s.removeList[:0]
	return n
}

// Advance moves orbiting bodies and spins rotating ones by dt seconds.
// Bodies whose lifetime ran out are queued for removal.
func (s *Scene) Advance(dt float64) {
	Each2(s.Orbits, s.Transforms, func(_ NodeID, o *Orbit, t *Transform) {
		o.Angle = math.Mod(o.Angle+2*math.Pi*dt/o.Period, 2*math.Pi)
		t.Position = o.position()
	})
	Each2(s.Spins, s.Transforms, func(_ NodeID, sp *Spin, t *Transform) {
		t.Rotation = math.Mod(t.Rotation+sp.Rate*dt, 2*math.Pi)
	})
	s.Lifetimes.Each(func(id NodeID, l *Lifetime) {
		l.Remaining -= dt
		if l.Remaining <= 0 {
			s.Remove(id)
		}
	})
}

func (o *Orbit) position() data.Vec3 {
	return data.Vec3{
		X: o.Center.X + o.Radius*math.Cos(o.Angle),
		Y: o.Center.Y,
		Z: o.Center.Z + o.Radius*math.Sin(o.Angle),
	}
}
