package workers

// Worker is a background job run next to the update loop.
type Worker interface {
	Start() error
	Stop()
	Name() string
}
