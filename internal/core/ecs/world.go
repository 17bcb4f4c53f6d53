package ecs

// DestroyHook runs for an entity before its components are dropped and its
// handle is invalidated. OnDestroy hooks run in registration order, then
// AfterDestroy hooks in registration order.
type DestroyHook func(id EntityID)

// World owns the entity pool, the component registry and a deferred
// destruction queue flushed by CleanupSystem at the end of each tick.
type World struct {
	pool         *EntityPool
	registry     *Registry
	hooks        []DestroyHook
	lateHooks    []DestroyHook
	destroyQueue []EntityID
}

func NewWorld() *World {
	return &World{
		pool:         NewEntityPool(),
		registry:     NewRegistry(),
		destroyQueue: make([]EntityID, 0, 16),
	}
}

func (w *World) Pool() *EntityPool   { return w.pool }
func (w *World) Registry() *Registry { return w.registry }

func (w *World) CreateEntity() EntityID {
	return w.pool.Create()
}

func (w *World) Alive(id EntityID) bool {
	return w.pool.Alive(id)
}

// OnDestroy registers a hook that sees every entity before it is destroyed.
// The weld engine uses this to sever edges while the handle is still valid.
func (w *World) OnDestroy(h DestroyHook) {
	w.hooks = append(w.hooks, h)
}

// AfterDestroy registers a hook that runs once every OnDestroy hook has seen
// the entity. The handle and its components are still valid. The host uses
// it to take its ownership tree apart after the weld engine has notified.
func (w *World) AfterDestroy(h DestroyHook) {
	w.lateHooks = append(w.lateHooks, h)
}

// MarkForDestruction queues an entity for end-of-tick cleanup.
func (w *World) MarkForDestruction(id EntityID) {
	w.destroyQueue = append(w.destroyQueue, id)
}

// Pending returns the number of queued destructions.
func (w *World) Pending() int { return len(w.destroyQueue) }

// Destroy runs the hooks, drops components and frees the handle immediately.
// Returns false for stale handles.
func (w *World) Destroy(id EntityID) bool {
	if !w.pool.Alive(id) {
		return false
	}
	for _, h := range w.hooks {
		h(id)
	}
	for _, h := range w.lateHooks {
		h(id)
	}
	w.registry.RemoveAll(id)
	return w.pool.Destroy(id)
}

// FlushDestroyQueue destroys all queued entities and returns how many were
// actually destroyed (duplicates and stale handles are skipped).
func (w *World) FlushDestroyQueue() int {
	n := 0
	for _, id := range w.destroyQueue {
		if w.Destroy(id) {
			n++
		}
	}
	w.destroyQueue = w.destroyQueue[:0]
	return n
}
